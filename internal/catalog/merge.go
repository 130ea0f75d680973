package catalog

import (
	"time"

	"atelier/internal/models"
)

// FindProduct returns the product with id and its index, or -1.
func FindProduct(products []models.Product, id string) (models.Product, int) {
	for i, p := range products {
		if p.ID == id {
			return p, i
		}
	}
	return models.Product{}, -1
}

// Merge applies an approved product to the catalog keyed by id. Incoming
// fields overlay the existing record, created_at and a missing owner are kept
// from the existing record, and updated_at is refreshed. The input slice is
// not modified. Merging the same snapshot twice yields the same catalog apart
// from updated_at.
func Merge(products []models.Product, incoming models.Product) []models.Product {
	stamp := now().Format(time.RFC3339Nano)
	out := make([]models.Product, len(products))
	copy(out, products)

	existing, idx := FindProduct(out, incoming.ID)
	if idx < 0 {
		merged := Normalize(ProductToMap(incoming), len(out))
		merged.UpdatedAt = stamp
		return append(out, merged)
	}

	fields := ProductToMap(existing)
	for k, v := range ProductToMap(incoming) {
		fields[k] = v
	}
	if existing.CreatedAt != "" {
		fields["created_at"] = existing.CreatedAt
	}
	if incoming.OwnerUserID == nil && existing.OwnerUserID != nil {
		fields["owner_user_id"] = *existing.OwnerUserID
	}

	merged := Normalize(fields, idx)
	merged.UpdatedAt = stamp
	out[idx] = merged
	return out
}

// ApplyPatch overlays patch onto the generic form of existing. Keys outside
// the canonical set land in the nested extra_fields map, and a nested
// extra_fields object in the patch is merged key by key, so a patch can
// change one extra field without the stored copy winning in Normalize.
func ApplyPatch(existing models.Product, patch map[string]any) map[string]any {
	fields := ProductToMap(existing)
	extra := make(map[string]any, len(existing.ExtraFields))
	for k, v := range existing.ExtraFields {
		extra[k] = v
	}
	for k, v := range patch {
		switch {
		case k == "extra_fields":
			if nested, ok := v.(map[string]any); ok {
				for nk, nv := range nested {
					extra[nk] = nv
				}
			}
		case IsCanonicalKey(k):
			fields[k] = v
		default:
			extra[k] = v
		}
	}
	fields["extra_fields"] = extra
	return fields
}

// Remove drops the product with id, reporting whether it was present.
func Remove(products []models.Product, id string) ([]models.Product, bool) {
	out := make([]models.Product, 0, len(products))
	found := false
	for _, p := range products {
		if p.ID == id {
			found = true
			continue
		}
		out = append(out, p)
	}
	return out, found
}

// ClearOwner unsets owner_user_id on every product owned by accountID and
// returns how many were changed.
func ClearOwner(products []models.Product, accountID uint) ([]models.Product, int) {
	out := make([]models.Product, len(products))
	copy(out, products)
	changed := 0
	for i := range out {
		if out[i].OwnedBy(accountID) {
			out[i].OwnerUserID = nil
			changed++
		}
	}
	return out, changed
}
