package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name string `json:"name"`
}

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetClient(rdb)
	t.Cleanup(func() {
		SetClient(nil)
		_ = rdb.Close()
	})
	return mr
}

func TestAside_MissThenHit(t *testing.T) {
	mr := useMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *record) func() error {
		return func() error {
			calls++
			dest.Name = "loaded"
			return nil
		}
	}

	var first record
	require.NoError(t, Aside(ctx, AccountKey(1), &first, AccountTTL, fetch(&first)))
	assert.Equal(t, "loaded", first.Name)
	assert.True(t, mr.Exists("account:1"))

	var second record
	require.NoError(t, Aside(ctx, AccountKey(1), &second, AccountTTL, fetch(&second)))
	assert.Equal(t, "loaded", second.Name)
	assert.Equal(t, 1, calls)

	InvalidateAccount(ctx, 1)
	assert.False(t, mr.Exists("account:1"))
}

func TestAside_FetchErrorNotCached(t *testing.T) {
	mr := useMiniredis(t)

	var dest record
	err := Aside(context.Background(), "k", &dest, time.Minute, func() error { return errors.New("db down") })
	assert.Error(t, err)
	assert.False(t, mr.Exists("k"))
}

func TestAside_WithoutClient(t *testing.T) {
	SetClient(nil)

	var dest record
	err := Aside(context.Background(), "k", &dest, time.Minute, func() error {
		dest.Name = "direct"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "direct", dest.Name)
	Invalidate(context.Background(), "k")
}

func TestInitRedis_Unreachable(t *testing.T) {
	InitRedis("redis://127.0.0.1:1/0")
	assert.Nil(t, GetClient())

	mr := miniredis.RunT(t)
	InitRedis(mr.Addr())
	require.NotNil(t, GetClient())
	t.Cleanup(func() { SetClient(nil) })
}
