package bootstrap

import (
	"context"
	"testing"

	"atelier/internal/config"
	"atelier/internal/models"
	"atelier/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureAdmin(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	acc, created, err := EnsureAdmin(ctx, &config.Config{}, db)
	require.NoError(t, err)
	assert.Nil(t, acc)
	assert.False(t, created)

	cfg := &config.Config{AdminEmail: "Root@Example.com", AdminPassword: "Password123"}
	acc, created, err = EnsureAdmin(ctx, cfg, db)
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, models.RoleAdmin, acc.Role)
	assert.Equal(t, "root@example.com", acc.Email)
	assert.Equal(t, "Administrator", acc.Name)

	again, created, err := EnsureAdmin(ctx, cfg, db)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, acc.ID, again.ID)
}

func TestEnsureAdminRejectsOtherRole(t *testing.T) {
	db := testutil.NewDB(t)
	vendor := testutil.CreateAccount(t, db, models.RoleVendor, "Kiln")

	_, _, err := EnsureAdmin(context.Background(), &config.Config{AdminEmail: vendor.Email, AdminPassword: "Password123"}, db)
	assert.Error(t, err)

	_, _, err = EnsureAdmin(context.Background(), &config.Config{AdminEmail: "new@example.com"}, db)
	assert.Error(t, err)
}

func TestEnsureContent(t *testing.T) {
	db := testutil.NewDB(t)

	created, err := EnsureContent(context.Background(), db)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = EnsureContent(context.Background(), db)
	require.NoError(t, err)
	assert.False(t, created)
}
