package catalog

import (
	"testing"
	"time"

	"atelier/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCatalog() []models.Product {
	return NormalizeAll([]map[string]any{
		{"id": "p1", "name": "Bowl", "owner_user_id": 5, "price": 40, "created_at": "2023-03-01T00:00:00Z", "glaze": "celadon"},
		{"id": "p2", "name": "Cup", "sort_order": 1},
	})
}

func TestMerge_UpdatePreservesCreatedAtAndOwner(t *testing.T) {
	freezeNow(t, fixedNow)
	products := seedCatalog()

	incoming := Normalize(map[string]any{"id": "p1", "name": "Large Bowl", "price": "55", "created_at": "2030-01-01T00:00:00Z"}, 0)
	merged := Merge(products, incoming)

	require.Len(t, merged, 2)
	got, idx := FindProduct(merged, "p1")
	require.Equal(t, 0, idx)
	assert.Equal(t, "Large Bowl", got.Name)
	require.NotNil(t, got.Price)
	assert.Equal(t, 55.0, *got.Price)
	assert.Equal(t, "2023-03-01T00:00:00Z", got.CreatedAt)
	require.NotNil(t, got.OwnerUserID)
	assert.Equal(t, uint(5), *got.OwnerUserID)
	assert.Equal(t, fixedNow.Format(time.RFC3339Nano), got.UpdatedAt)
	assert.Empty(t, got.ExtraFields, "extra fields are replaced wholesale")

	assert.Equal(t, "Bowl", products[0].Name, "input catalog must not be modified")
}

func TestMerge_AppendsNewProduct(t *testing.T) {
	freezeNow(t, fixedNow)
	products := seedCatalog()

	owner := uint(8)
	incoming := Normalize(map[string]any{"id": "p3", "name": "Plate"}, 0)
	incoming.OwnerUserID = &owner

	merged := Merge(products, incoming)
	require.Len(t, merged, 3)
	got, idx := FindProduct(merged, "p3")
	assert.Equal(t, 2, idx)
	assert.True(t, got.OwnedBy(8))
}

func TestMerge_ContainsSnapshotFields(t *testing.T) {
	freezeNow(t, fixedNow)
	products := seedCatalog()

	incoming := Normalize(map[string]any{"id": "p1", "name": "Tea Bowl", "owner_user_id": 5, "tags": []any{"tea"}}, 0)
	merged := Merge(products, incoming)
	got, _ := FindProduct(merged, "p1")

	want := ProductToMap(incoming)
	have := ProductToMap(got)
	for k, v := range want {
		if k == "created_at" || k == "updated_at" {
			continue
		}
		assert.Equal(t, v, have[k], k)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	freezeNow(t, fixedNow)
	products := seedCatalog()

	incoming := Normalize(map[string]any{"id": "p2", "name": "Mug", "inventory": 3}, 1)
	once := Merge(products, incoming)
	twice := Merge(once, incoming)

	assert.Equal(t, once, twice)
}

func TestRemoveAndClearOwner(t *testing.T) {
	freezeNow(t, fixedNow)
	products := seedCatalog()

	cleared, n := ClearOwner(products, 5)
	assert.Equal(t, 1, n)
	assert.Nil(t, cleared[0].OwnerUserID)
	assert.NotNil(t, products[0].OwnerUserID)

	remaining, found := Remove(products, "p2")
	assert.True(t, found)
	assert.Len(t, remaining, 1)

	_, found = Remove(products, "missing")
	assert.False(t, found)
}

func TestApplyPatch_OverlaysFieldsAndExtras(t *testing.T) {
	existing := Normalize(map[string]any{
		"id": "p1", "name": "Bowl", "artist": "Ana", "price": 40, "status": "draft",
		"extra_fields": map[string]any{"glaze": "old", "kiln": "wood"},
	}, 0)

	fields := ApplyPatch(existing, map[string]any{
		"name":         "Blue Bowl",
		"glaze":        "new",
		"extra_fields": map[string]any{"signed": true},
	})
	got := Normalize(fields, 0)

	assert.Equal(t, "Blue Bowl", got.Name)
	assert.Equal(t, "Ana", got.Artist)
	require.NotNil(t, got.Price)
	assert.InDelta(t, 40, *got.Price, 0.001)
	assert.Equal(t, models.ProductStatusDraft, got.Status)
	assert.Equal(t, map[string]any{"glaze": "new", "kiln": "wood", "signed": true}, got.ExtraFields)
	assert.Equal(t, "old", existing.ExtraFields["glaze"])
}
