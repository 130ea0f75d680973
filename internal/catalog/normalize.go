// Package catalog holds the pure product transformations shared by every
// write path: normalization, merging approved changes and snapshot diffs.
package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"atelier/internal/models"
)

// DefaultCurrency is applied when a product carries no currency code.
const DefaultCurrency = "USD"

// now is swapped in tests.
var now = func() time.Time { return time.Now().UTC() }

var canonicalKeys = map[string]struct{}{
	"id": {}, "name": {}, "gallery_type": {}, "category": {}, "status": {},
	"sort_order": {}, "owner_user_id": {}, "artist": {}, "medium": {},
	"dimensions": {}, "year": {}, "price": {}, "sale_price": {}, "currency": {},
	"description": {}, "image_url": {}, "images": {}, "tags": {}, "featured": {},
	"inventory": {}, "extra_fields": {}, "created_at": {}, "updated_at": {},
}

// IsCanonicalKey reports whether key belongs to the fixed product schema.
func IsCanonicalKey(key string) bool {
	_, ok := canonicalKeys[key]
	return ok
}

// Normalize turns an arbitrary object into a canonical product. It never
// fails: every field is coerced or defaulted, and keys outside the schema are
// kept in ExtraFields, with a nested extra_fields map winning over them.
func Normalize(raw map[string]any, index int) models.Product {
	if raw == nil {
		raw = map[string]any{}
	}
	ts := now()

	p := models.Product{
		ID:          asString(raw["id"]),
		Name:        asString(raw["name"]),
		GalleryType: galleryType(raw["gallery_type"]),
		Category:    asString(raw["category"]),
		Status:      productStatus(raw["status"]),
		Artist:      asString(raw["artist"]),
		Medium:      asString(raw["medium"]),
		Dimensions:  asString(raw["dimensions"]),
		Year:        asInt(raw["year"]),
		Price:       asFloat(raw["price"]),
		SalePrice:   asFloat(raw["sale_price"]),
		Currency:    strings.ToUpper(asString(raw["currency"])),
		Description: asString(raw["description"]),
		ImageURL:    asString(raw["image_url"]),
		Images:      asStringList(raw["images"]),
		Tags:        asStringList(raw["tags"]),
		Featured:    asBool(raw["featured"]),
		Inventory:   asInt(raw["inventory"]),
		CreatedAt:   asTimestamp(raw["created_at"], ts),
		UpdatedAt:   asTimestamp(raw["updated_at"], ts),
	}

	if p.ID == "" {
		p.ID = fmt.Sprintf("product-%d-%d", ts.UnixMilli(), index)
	}
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	if order := asInt(raw["sort_order"]); order != nil {
		p.SortOrder = *order
	} else {
		p.SortOrder = index
	}
	if owner := asInt(raw["owner_user_id"]); owner != nil && *owner > 0 {
		id := uint(*owner)
		p.OwnerUserID = &id
	}

	extra := make(map[string]any)
	for k, v := range raw {
		if !IsCanonicalKey(k) {
			extra[k] = v
		}
	}
	if nested, ok := raw["extra_fields"].(map[string]any); ok {
		for k, v := range nested {
			extra[k] = v
		}
	}
	p.ExtraFields = extra

	return p
}

// NormalizeAll normalizes a raw product list, drops later duplicates of an id
// and orders the result by sort_order, then name.
func NormalizeAll(items []map[string]any) []models.Product {
	out := make([]models.Product, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		p := Normalize(item, i)
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	SortProducts(out)
	return out
}

// SortProducts orders products by sort_order with ties broken by name, then id.
func SortProducts(products []models.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if an != bn {
			return an < bn
		}
		return a.ID < b.ID
	})
}

// ProductToMap renders a product in its generic JSON object form.
func ProductToMap(p models.Product) map[string]any {
	b, err := json.Marshal(p)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return map[string]any{}
	}
	return m
}

// DecodeProduct parses a stored JSON object and normalizes it.
func DecodeProduct(data []byte) (models.Product, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.Product{}, fmt.Errorf("decode product: %w", err)
	}
	return Normalize(raw, 0), nil
}

// DecodeProducts parses a stored JSON array of products. Non-object entries are
// skipped so that hand-edited documents still load.
func DecodeProducts(data []byte) ([]models.Product, error) {
	var items []any
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	raws := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			raws = append(raws, m)
		}
	}
	return NormalizeAll(raws), nil
}

func galleryType(v any) models.GalleryType {
	s := models.GalleryType(strings.ToLower(asString(v)))
	for _, t := range models.GalleryTypes {
		if s == t {
			return s
		}
	}
	return models.GalleryArt
}

func productStatus(v any) models.ProductStatus {
	switch s := models.ProductStatus(strings.ToLower(asString(v))); s {
	case models.ProductStatusActive, models.ProductStatusInactive, models.ProductStatusDraft:
		return s
	}
	return models.ProductStatusActive
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func asFloat(v any) *float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func asInt(v any) *int {
	f := asFloat(v)
	if f == nil {
		return nil
	}
	i := int(math.Trunc(*f))
	return &i
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes", "on":
			return true
		}
		return false
	default:
		if f := asFloat(v); f != nil {
			return *f != 0
		}
		return false
	}
}

func asStringList(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range t {
			if s := asString(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, s := range strings.Split(t, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func asTimestamp(v any, fallback time.Time) string {
	if s := asString(v); s != "" {
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return ts.UTC().Format(time.RFC3339Nano)
		}
	}
	return fallback.Format(time.RFC3339Nano)
}
