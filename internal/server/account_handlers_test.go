package server

import (
	"net/http"
	"testing"

	"atelier/internal/models"
	"atelier/internal/pagination"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type accountList struct {
	Items   []models.Account  `json:"items"`
	Paging  pagination.Paging `json:"paging"`
	Filters map[string]any    `json:"filters"`
}

func TestAdminAccountManagement(t *testing.T) {
	env := newTestEnv(t, "")
	_, adminToken := env.signIn(t, models.RoleAdmin, "Root")
	vendor, vendorToken := env.signIn(t, models.RoleVendor, "Kiln House")
	user, _ := env.signIn(t, models.RoleUser, "Fan")

	var vendors accountList
	require.Equal(t, http.StatusOK, env.request(t, http.MethodGet, "/api/admin/vendors", adminToken, nil, &vendors))
	require.Len(t, vendors.Items, 1)
	assert.Equal(t, vendor.ID, vendors.Items[0].ID)
	assert.Equal(t, "vendor", vendors.Filters["role"])

	// A user id under the vendors collection does not exist there.
	assert.Equal(t, http.StatusNotFound, env.request(t, http.MethodGet, pathf("/api/admin/vendors/%d", user.ID), adminToken, nil, nil))
	assert.Equal(t, http.StatusOK, env.request(t, http.MethodGet, pathf("/api/admin/users/%d", user.ID), adminToken, nil, nil))
	assert.Equal(t, http.StatusBadRequest, env.request(t, http.MethodGet, "/api/admin/users?status=frozen", adminToken, nil, nil))

	var updated models.Account
	require.Equal(t, http.StatusOK, env.request(t, http.MethodPatch, pathf("/api/admin/vendors/%d", vendor.ID), adminToken, fiber.Map{"name": "Kiln Studio"}, &updated))
	assert.Equal(t, "Kiln Studio", updated.Name)
	assert.Equal(t, "kiln-studio", updated.Slug)

	var reset struct {
		TemporaryPassword string `json:"temporaryPassword"`
	}
	require.Equal(t, http.StatusOK, env.request(t, http.MethodPost, pathf("/api/admin/vendors/%d/password-reset", vendor.ID), adminToken, nil, &reset))
	assert.Len(t, reset.TemporaryPassword, 16)

	// The reset revokes the old token and the temporary password signs in.
	assert.Equal(t, http.StatusUnauthorized, env.request(t, http.MethodGet, "/api/me", vendorToken, nil, nil))
	vendorToken = env.token(t, vendor.Email, reset.TemporaryPassword)
	assert.Equal(t, http.StatusOK, env.request(t, http.MethodGet, "/api/me", vendorToken, nil, nil))

	require.Equal(t, http.StatusOK, env.request(t, http.MethodPost, pathf("/api/admin/vendors/%d/revoke-sessions", vendor.ID), adminToken, nil, nil))
	assert.Equal(t, http.StatusUnauthorized, env.request(t, http.MethodGet, "/api/me", vendorToken, nil, nil))

	assert.Equal(t, http.StatusForbidden, env.request(t, http.MethodGet, "/api/admin/users", vendorToken, nil, nil))
}

func TestDeleteVendorCascades(t *testing.T) {
	env := newTestEnv(t, "")
	admin, adminToken := env.signIn(t, models.RoleAdmin, "Root")
	vendor, vendorToken := env.signIn(t, models.RoleVendor, "Kiln")

	require.Equal(t, http.StatusCreated, env.request(t, http.MethodPost, "/api/submissions", vendorToken,
		fiber.Map{"product": fiber.Map{"id": "bowl", "name": "Bowl"}}, nil))
	var pending submissionList
	require.Equal(t, http.StatusOK, env.request(t, http.MethodGet, "/api/admin/submissions", adminToken, nil, &pending))
	require.Len(t, pending.Items, 1)
	require.Equal(t, http.StatusOK, env.request(t, http.MethodPatch, pathf("/api/admin/submissions/%d/approve", pending.Items[0].ID), adminToken, nil, nil))

	assert.Equal(t, http.StatusNoContent, env.request(t, http.MethodDelete, pathf("/api/admin/vendors/%d", vendor.ID), adminToken, nil, nil))
	assert.Equal(t, http.StatusNotFound, env.request(t, http.MethodDelete, pathf("/api/admin/vendors/%d", vendor.ID), adminToken, nil, nil))

	var product models.Product
	require.Equal(t, http.StatusOK, env.request(t, http.MethodGet, "/api/products/bowl", adminToken, nil, &product))
	assert.Nil(t, product.OwnerUserID)

	var count int64
	require.NoError(t, env.db.Model(&models.ProductSubmission{}).Where("vendor_id = ?", vendor.ID).Count(&count).Error)
	assert.Zero(t, count)

	// An admin can never be deleted through the role collections.
	assert.Equal(t, http.StatusNotFound, env.request(t, http.MethodDelete, pathf("/api/admin/users/%d", admin.ID), adminToken, nil, nil))
}
