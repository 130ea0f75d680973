package catalog

import (
	"fmt"
	"testing"
	"time"

	"atelier/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func freezeNow(t *testing.T, ts time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return ts }
	t.Cleanup(func() { now = prev })
}

func TestNormalize_Defaults(t *testing.T) {
	freezeNow(t, fixedNow)

	p := Normalize(map[string]any{"name": "  Dawn  "}, 3)

	assert.Equal(t, fmt.Sprintf("product-%d-3", fixedNow.UnixMilli()), p.ID)
	assert.Equal(t, "Dawn", p.Name)
	assert.Equal(t, models.GalleryArt, p.GalleryType)
	assert.Equal(t, models.ProductStatusActive, p.Status)
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, 3, p.SortOrder)
	assert.Nil(t, p.OwnerUserID)
	assert.Nil(t, p.Price)
	assert.NotNil(t, p.Images)
	assert.NotNil(t, p.Tags)
	assert.Empty(t, p.ExtraFields)
	assert.Equal(t, fixedNow.Format(time.RFC3339Nano), p.CreatedAt)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
}

func TestNormalize_Coercion(t *testing.T) {
	freezeNow(t, fixedNow)

	tests := []struct {
		name  string
		raw   map[string]any
		check func(t *testing.T, p models.Product)
	}{
		{"numeric string price", map[string]any{"price": " 12.50 "}, func(t *testing.T, p models.Product) {
			require.NotNil(t, p.Price)
			assert.Equal(t, 12.5, *p.Price)
		}},
		{"unparseable price", map[string]any{"price": "abc"}, func(t *testing.T, p models.Product) {
			assert.Nil(t, p.Price)
		}},
		{"comma separated tags", map[string]any{"tags": "a, b,,c"}, func(t *testing.T, p models.Product) {
			assert.Equal(t, []string{"a", "b", "c"}, p.Tags)
		}},
		{"owner from string", map[string]any{"owner_user_id": "7"}, func(t *testing.T, p models.Product) {
			require.NotNil(t, p.OwnerUserID)
			assert.Equal(t, uint(7), *p.OwnerUserID)
		}},
		{"non-positive owner dropped", map[string]any{"owner_user_id": -1}, func(t *testing.T, p models.Product) {
			assert.Nil(t, p.OwnerUserID)
		}},
		{"unknown gallery type", map[string]any{"gallery_type": "murals"}, func(t *testing.T, p models.Product) {
			assert.Equal(t, models.GalleryArt, p.GalleryType)
		}},
		{"gallery type case", map[string]any{"gallery_type": "Books"}, func(t *testing.T, p models.Product) {
			assert.Equal(t, models.GalleryBooks, p.GalleryType)
		}},
		{"currency upper-cased", map[string]any{"currency": "eur"}, func(t *testing.T, p models.Product) {
			assert.Equal(t, "EUR", p.Currency)
		}},
		{"bad timestamp replaced", map[string]any{"created_at": "yesterday"}, func(t *testing.T, p models.Product) {
			assert.Equal(t, fixedNow.Format(time.RFC3339Nano), p.CreatedAt)
		}},
		{"year truncated", map[string]any{"year": 1999.7}, func(t *testing.T, p models.Product) {
			require.NotNil(t, p.Year)
			assert.Equal(t, 1999, *p.Year)
		}},
		{"featured from string", map[string]any{"featured": "yes"}, func(t *testing.T, p models.Product) {
			assert.True(t, p.Featured)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Normalize(tt.raw, 0))
		})
	}
}

func TestNormalize_ExtraFieldsPrecedence(t *testing.T) {
	freezeNow(t, fixedNow)

	p := Normalize(map[string]any{
		"id":    "p1",
		"frame": "oak",
		"glaze": "matte",
		"extra_fields": map[string]any{
			"frame":  "walnut",
			"signed": true,
		},
	}, 0)

	assert.Equal(t, map[string]any{"frame": "walnut", "glaze": "matte", "signed": true}, p.ExtraFields)
}

func TestNormalize_Idempotent(t *testing.T) {
	freezeNow(t, fixedNow)

	raw := map[string]any{
		"id":            "p-42",
		"name":          "River Study",
		"gallery_type":  "photography",
		"status":        "draft",
		"sort_order":    "4",
		"owner_user_id": 9,
		"year":          "2021",
		"price":         450,
		"sale_price":    "399.99",
		"images":        []any{"a.jpg", " ", "b.jpg"},
		"tags":          []string{"water", "blue"},
		"inventory":     2,
		"created_at":    "2024-01-02T03:04:05Z",
		"frame":         "none",
		"extra_fields":  map[string]any{"edition": "1/10"},
	}

	once := Normalize(raw, 0)
	twice := Normalize(ProductToMap(once), 0)

	assert.Equal(t, once, twice)
	assert.Equal(t, "2024-01-02T03:04:05Z", once.CreatedAt)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, once.Images)
}

func TestNormalizeAll_DedupAndOrder(t *testing.T) {
	freezeNow(t, fixedNow)

	products := NormalizeAll([]map[string]any{
		{"id": "c", "name": "charlie", "sort_order": 2},
		{"id": "b", "name": "Bravo", "sort_order": 1},
		{"id": "a", "name": "alpha", "sort_order": 1},
		{"id": "b", "name": "duplicate", "sort_order": 0},
	})

	require.Len(t, products, 3)
	assert.Equal(t, "a", products[0].ID)
	assert.Equal(t, "b", products[1].ID)
	assert.Equal(t, "Bravo", products[1].Name)
	assert.Equal(t, "c", products[2].ID)
}

func TestDecodeProducts_SkipsNonObjects(t *testing.T) {
	freezeNow(t, fixedNow)

	products, err := DecodeProducts([]byte(`[{"id":"x","name":"X"}, 5, "junk", null]`))
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "x", products[0].ID)

	_, err = DecodeProducts([]byte(`{"id":"x"}`))
	assert.Error(t, err)
}
