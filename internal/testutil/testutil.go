// Package testutil builds in-memory databases, Redis servers and fixture
// accounts for package tests.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"atelier/internal/auth"
	"atelier/internal/cache"
	"atelier/internal/database"
	"atelier/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultPassword is the password of every fixture account.
const DefaultPassword = "Password123"

var seq atomic.Int64

// NewDB opens a private in-memory SQLite database with the full schema.
// It is limited to one connection, so code under test must run every
// statement of a transaction on the transaction handle.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.ApplySchema(context.Background(), db))
	return db
}

// NewRedis starts a miniredis server and installs it as the shared cache client.
func NewRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})
	return mr, rdb
}

// CreateAccount inserts an active account with DefaultPassword.
func CreateAccount(t *testing.T, db *gorm.DB, role models.Role, name string) *models.Account {
	t.Helper()
	hash, err := auth.HashPassword(DefaultPassword)
	require.NoError(t, err)

	n := seq.Add(1)
	acc := &models.Account{
		Name:           name,
		Email:          fmt.Sprintf("%s-%d@example.com", role, n),
		PasswordHash:   hash,
		Role:           role,
		Status:         models.AccountStatusActive,
		Slug:           fmt.Sprintf("%s-%d", role, n),
		SessionVersion: 1,
	}
	require.NoError(t, db.Create(acc).Error)
	return acc
}
