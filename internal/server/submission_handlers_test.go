package server

import (
	"net/http"
	"testing"

	"atelier/internal/models"
	"atelier/internal/pagination"
	"atelier/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submissionList struct {
	Items   []service.SubmissionView `json:"items"`
	Paging  pagination.Paging        `json:"paging"`
	Sort    sortInfo                 `json:"sort"`
	Filters map[string]any           `json:"filters"`
}

func TestSubmissionReviewFlow(t *testing.T) {
	env := newTestEnv(t, "")
	_, adminToken := env.signIn(t, models.RoleAdmin, "Root")
	vendor, vendorToken := env.signIn(t, models.RoleVendor, "Kiln House")

	var result service.SubmitResult
	status := env.request(t, http.MethodPost, "/api/submissions", vendorToken, fiber.Map{
		"products": []fiber.Map{{"id": "moon-jar", "name": "Moon Jar", "price": "120", "gallery_type": "sculpture"}},
		"note":     "First piece",
	}, &result)
	require.Equal(t, http.StatusCreated, status)
	require.Len(t, result.Created, 1)
	sub := result.Created[0]
	assert.Equal(t, models.SubmissionStatusPending, sub.Status)
	assert.Equal(t, models.SubmissionTypeCreate, sub.SubmissionType)

	// Not in the catalog until approved.
	assert.Equal(t, http.StatusNotFound, env.request(t, http.MethodGet, "/api/products/moon-jar", "", nil, nil))

	var pending submissionList
	status = env.request(t, http.MethodGet, "/api/admin/submissions?status=pending", adminToken, nil, &pending)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, pending.Items, 1)
	assert.Equal(t, "Kiln House", pending.Items[0].VendorName)
	assert.Equal(t, "pending", pending.Filters["status"])
	assert.Equal(t, sortInfo{Field: "created_at", Order: "desc"}, pending.Sort)

	var detail service.SubmissionView
	status = env.request(t, http.MethodGet, pathf("/api/admin/submissions/%d", sub.ID), adminToken, nil, &detail)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, detail.Diff)

	var approved service.SubmissionView
	status = env.request(t, http.MethodPatch, pathf("/api/admin/submissions/%d/approve", sub.ID), adminToken, nil, &approved)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.SubmissionStatusApproved, approved.Status)

	var product models.Product
	status = env.request(t, http.MethodGet, "/api/products/moon-jar", "", nil, &product)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, product.OwnerUserID)
	assert.Equal(t, vendor.ID, *product.OwnerUserID)
	require.NotNil(t, product.Price)
	assert.InDelta(t, 120.0, *product.Price, 0.001)

	var body models.ErrorResponse
	status = env.request(t, http.MethodPatch, pathf("/api/admin/submissions/%d/approve", sub.ID), adminToken, nil, &body)
	assert.Equal(t, http.StatusConflict, status)
	assertErrorCode(t, body, models.CodeConflict)
	status = env.request(t, http.MethodPatch, pathf("/api/admin/submissions/%d/reject", sub.ID), adminToken, fiber.Map{"reason": "late"}, &body)
	assert.Equal(t, http.StatusConflict, status)

	status = env.request(t, http.MethodPatch, "/api/admin/submissions/999/approve", adminToken, nil, &body)
	assert.Equal(t, http.StatusNotFound, status)
	status = env.request(t, http.MethodPatch, "/api/admin/submissions/abc/approve", adminToken, nil, &body)
	assert.Equal(t, http.StatusBadRequest, status)

	// The vendor sees the product as its own and its own submission history.
	var mine submissionList
	status = env.request(t, http.MethodGet, "/api/submissions", vendorToken, nil, &mine)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, models.SubmissionStatusApproved, mine.Items[0].Status)

	assert.Equal(t, http.StatusForbidden, env.request(t, http.MethodPatch, pathf("/api/admin/submissions/%d/approve", sub.ID), vendorToken, nil, nil))
}

func TestSubmissionRejectAndOwnership(t *testing.T) {
	env := newTestEnv(t, "")
	_, adminToken := env.signIn(t, models.RoleAdmin, "Root")
	_, kilnToken := env.signIn(t, models.RoleVendor, "Kiln")
	_, loomToken := env.signIn(t, models.RoleVendor, "Loom")

	var result service.SubmitResult
	require.Equal(t, http.StatusCreated, env.request(t, http.MethodPost, "/api/submissions", kilnToken, fiber.Map{
		"product": fiber.Map{"id": "bowl", "name": "Bowl"},
	}, &result))
	first := result.Created[0]

	var body models.ErrorResponse
	status := env.request(t, http.MethodPatch, pathf("/api/admin/submissions/%d/reject", first.ID), adminToken, fiber.Map{"reason": "  "}, &body)
	assert.Equal(t, http.StatusBadRequest, status)

	var rejected service.SubmissionView
	status = env.request(t, http.MethodPatch, pathf("/api/admin/submissions/%d/reject", first.ID), adminToken, fiber.Map{"reason": "Blurry photos"}, &rejected)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Blurry photos", rejected.RejectionReason)

	// Approve a second attempt so the product is owned by Kiln.
	require.Equal(t, http.StatusCreated, env.request(t, http.MethodPost, "/api/submissions", kilnToken, fiber.Map{
		"product": fiber.Map{"id": "bowl", "name": "Bowl"},
	}, &result))
	require.Equal(t, http.StatusOK, env.request(t, http.MethodPatch, pathf("/api/admin/submissions/%d/approve", result.Created[0].ID), adminToken, nil, nil))

	status = env.request(t, http.MethodPost, "/api/submissions", loomToken, fiber.Map{
		"product": fiber.Map{"id": "bowl", "name": "Stolen Bowl"},
	}, &body)
	assert.Equal(t, http.StatusForbidden, status)
	assertErrorCode(t, body, models.CodeOwnership)

	// Loom cannot read Kiln's submission.
	assert.Equal(t, http.StatusNotFound, env.request(t, http.MethodGet, pathf("/api/submissions/%d", first.ID), loomToken, nil, nil))

	// A mixed batch reports per-item results.
	status = env.request(t, http.MethodPost, "/api/submissions", loomToken, fiber.Map{
		"products": []fiber.Map{{"id": "rug", "name": "Rug"}, {"id": "bowl", "name": "Stolen Bowl"}},
	}, &result)
	require.Equal(t, http.StatusCreated, status)
	assert.Len(t, result.Created, 1)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 1, result.Failures[0].Index)
	assert.Equal(t, models.CodeOwnership, result.Failures[0].Code)

	status = env.request(t, http.MethodPost, "/api/submissions", loomToken, fiber.Map{"products": []fiber.Map{}}, &body)
	assert.Equal(t, http.StatusBadRequest, status)

	assert.Equal(t, http.StatusForbidden, env.request(t, http.MethodPost, "/api/submissions", adminToken, fiber.Map{
		"product": fiber.Map{"id": "x", "name": "X"},
	}, nil))
}

func TestSubmissionListPaging(t *testing.T) {
	env := newTestEnv(t, "")
	_, adminToken := env.signIn(t, models.RoleAdmin, "Root")
	_, vendorToken := env.signIn(t, models.RoleVendor, "Kiln")

	products := make([]fiber.Map, 0, 5)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		products = append(products, fiber.Map{"id": id, "name": "Piece " + id})
	}
	require.Equal(t, http.StatusCreated, env.request(t, http.MethodPost, "/api/submissions", vendorToken, fiber.Map{"products": products}, nil))

	var page submissionList
	status := env.request(t, http.MethodGet, "/api/admin/submissions?sort=product_id&order=asc&page=9&pageSize=2", adminToken, nil, &page)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, pagination.Paging{Total: 5, Page: 3, PageSize: 2, TotalPages: 3, HasPrev: true}, page.Paging)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "e", page.Items[0].ProductID)

	var body models.ErrorResponse
	status = env.request(t, http.MethodGet, "/api/admin/submissions?status=archived", adminToken, nil, &body)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLegacyEdits(t *testing.T) {
	env := newTestEnv(t, "")
	_, adminToken := env.signIn(t, models.RoleAdmin, "Root")
	_, vendorToken := env.signIn(t, models.RoleVendor, "Kiln")

	var created struct {
		Edits []Edit `json:"edits"`
	}
	status := env.request(t, http.MethodPost, "/api/edits", vendorToken, fiber.Map{
		"productId": "vase",
		"changes":   fiber.Map{"name": "Vase", "price": 40},
		"note":      "new",
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	require.Len(t, created.Edits, 1)
	edit := created.Edits[0]
	assert.Equal(t, "vase", edit.ProductID)
	assert.Equal(t, models.SubmissionTypeCreate, edit.Type)
	assert.Nil(t, edit.Current)
	assert.NotEmpty(t, edit.Changes)

	var list struct {
		Items []Edit `json:"items"`
	}
	require.Equal(t, http.StatusOK, env.request(t, http.MethodGet, "/api/edits", adminToken, nil, &list))
	require.Len(t, list.Items, 1)

	var approved Edit
	require.Equal(t, http.StatusOK, env.request(t, http.MethodPatch, pathf("/api/edits/%d/approve", edit.ID), adminToken, nil, &approved))
	assert.Equal(t, models.SubmissionStatusApproved, approved.Status)
	assert.Equal(t, http.StatusForbidden, env.request(t, http.MethodPatch, pathf("/api/edits/%d/reject", edit.ID), vendorToken, fiber.Map{"reason": "x"}, nil))
}

func TestLegacyEditKeepsUntouchedFields(t *testing.T) {
	env := newTestEnv(t, "")
	_, adminToken := env.signIn(t, models.RoleAdmin, "Root")
	vendor, vendorToken := env.signIn(t, models.RoleVendor, "Kiln")
	price := 120.0
	seedCatalog(t, env, models.Product{
		ID:          "vase",
		Name:        "Vase",
		Artist:      "Ana",
		Price:       &price,
		Status:      models.ProductStatusDraft,
		GalleryType: models.GallerySculpture,
		OwnerUserID: &vendor.ID,
		ExtraFields: map[string]any{"glaze": "celadon"},
	})

	var created struct {
		Edits []Edit `json:"edits"`
	}
	require.Equal(t, http.StatusCreated, env.request(t, http.MethodPost, "/api/edits", vendorToken, fiber.Map{
		"productId": "vase",
		"changes":   fiber.Map{"name": "Blue Vase"},
	}, &created))
	require.Len(t, created.Edits, 1)
	assert.Equal(t, models.SubmissionTypeUpdate, created.Edits[0].Type)
	var changed []string
	for _, d := range created.Edits[0].Changes {
		changed = append(changed, d.Path)
	}
	assert.Contains(t, changed, "name")
	assert.NotContains(t, changed, "artist")
	assert.NotContains(t, changed, "price")
	assert.NotContains(t, changed, "status")

	require.Equal(t, http.StatusOK, env.request(t, http.MethodPatch, pathf("/api/edits/%d/approve", created.Edits[0].ID), adminToken, nil, nil))

	var product models.Product
	require.Equal(t, http.StatusOK, env.request(t, http.MethodGet, "/api/products/vase", adminToken, nil, &product))
	assert.Equal(t, "Blue Vase", product.Name)
	assert.Equal(t, "Ana", product.Artist)
	require.NotNil(t, product.Price)
	assert.InDelta(t, 120, *product.Price, 0.001)
	assert.Equal(t, models.ProductStatusDraft, product.Status)
	assert.Equal(t, models.GallerySculpture, product.GalleryType)
	assert.Equal(t, "celadon", product.ExtraFields["glaze"])
}

func TestLegacyEditOtherVendorsProduct(t *testing.T) {
	env := newTestEnv(t, "")
	owner, _ := env.signIn(t, models.RoleVendor, "Kiln")
	_, otherToken := env.signIn(t, models.RoleVendor, "Loom")
	seedCatalog(t, env, models.Product{ID: "vase", Name: "Vase", OwnerUserID: &owner.ID})

	var body models.ErrorResponse
	status := env.request(t, http.MethodPost, "/api/edits", otherToken, fiber.Map{
		"productId": "vase",
		"changes":   fiber.Map{"name": "Mine now"},
	}, &body)
	assert.Equal(t, http.StatusForbidden, status)
	assertErrorCode(t, body, models.CodeOwnership)
}

func TestLegacyEditsFlagOff(t *testing.T) {
	env := newTestEnv(t, "legacy_edits=off")
	_, vendorToken := env.signIn(t, models.RoleVendor, "Kiln")

	assert.Equal(t, http.StatusNotFound, env.request(t, http.MethodGet, "/api/edits", vendorToken, nil, nil))
	assert.Equal(t, http.StatusCreated, env.request(t, http.MethodPost, "/api/submissions", vendorToken, fiber.Map{
		"product": fiber.Map{"id": "vase", "name": "Vase"},
	}, nil))
}
