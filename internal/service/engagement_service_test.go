package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"atelier/internal/models"
	"atelier/internal/pagination"
	"atelier/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngagementService_Likes(t *testing.T) {
	ts := newTestServices(t, "")
	ctx := context.Background()
	fan := testutil.CreateAccount(t, ts.db, models.RoleUser, "Fan")
	other := testutil.CreateAccount(t, ts.db, models.RoleUser, "Other")
	ts.seedProducts(t,
		models.Product{ID: "vase", Name: "Vase"},
		models.Product{ID: "draft", Name: "Draft", Status: models.ProductStatusDraft},
	)

	status, err := ts.engagement.Like(ctx, fan, "vase")
	require.NoError(t, err)
	assert.Equal(t, int64(1), status.Count)
	assert.True(t, status.Liked)

	status, err = ts.engagement.Like(ctx, fan, "vase")
	require.NoError(t, err)
	assert.Equal(t, int64(1), status.Count)

	_, err = ts.engagement.Like(ctx, other, "vase")
	require.NoError(t, err)

	status, err = ts.engagement.LikeStatus(ctx, nil, "vase")
	require.NoError(t, err)
	assert.Equal(t, int64(2), status.Count)
	assert.False(t, status.Liked)

	status, err = ts.engagement.Unlike(ctx, fan, "vase")
	require.NoError(t, err)
	assert.Equal(t, int64(1), status.Count)
	assert.False(t, status.Liked)

	_, err = ts.engagement.Like(ctx, fan, "draft")
	assertCode(t, err, models.CodeNotFound)
}

func TestEngagementService_Comments(t *testing.T) {
	ts := newTestServices(t, "")
	ctx := context.Background()
	fan := testutil.CreateAccount(t, ts.db, models.RoleUser, "Fan")
	ts.seedProducts(t, models.Product{ID: "vase", Name: "Vase"})

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ts.engagement.now = func() time.Time { return clock }

	first, err := ts.engagement.AddComment(ctx, fan, "vase", "  Lovely glaze  ")
	require.NoError(t, err)
	assert.Equal(t, "Lovely glaze", first.Body)
	assert.Equal(t, "Fan", first.AuthorName)

	clock = clock.Add(10 * time.Second)
	_, err = ts.engagement.AddComment(ctx, fan, "vase", "Again")
	assertCode(t, err, models.CodeRateLimited)

	clock = clock.Add(25 * time.Second)
	second, err := ts.engagement.AddComment(ctx, fan, "vase", "Second thought")
	require.NoError(t, err)

	_, err = ts.engagement.AddComment(ctx, fan, "vase", "   ")
	assertCode(t, err, models.CodeValidation)
	_, err = ts.engagement.AddComment(ctx, fan, "vase", strings.Repeat("x", 1001))
	assertCode(t, err, models.CodeValidation)
	_, err = ts.engagement.AddComment(ctx, fan, "missing", "Hello")
	assertCode(t, err, models.CodeNotFound)

	page, err := ts.engagement.ListComments(ctx, nil, "vase", pagination.Request{Page: 5, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Paging.Total)
	assert.Equal(t, 2, page.Paging.Page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, first.ID, page.Items[0].ID)

	page, err = ts.engagement.ListComments(ctx, nil, "vase", pagination.Request{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, second.ID, page.Items[0].ID)
	assert.Equal(t, "Fan", page.Items[0].AuthorName)
}

func TestEngagementService_Cart(t *testing.T) {
	ts := newTestServices(t, "")
	ctx := context.Background()
	shopper := testutil.CreateAccount(t, ts.db, models.RoleUser, "Shopper")
	price := func(v float64) *float64 { return &v }
	ts.seedProducts(t,
		models.Product{ID: "print", Name: "Print", Price: price(20)},
		models.Product{ID: "bowl", Name: "Bowl", Price: price(50), SalePrice: price(40)},
		models.Product{ID: "zine", Name: "Zine"},
		models.Product{ID: "retired", Name: "Retired", Status: models.ProductStatusInactive, Price: price(5)},
	)

	cart, err := ts.engagement.AddToCart(ctx, shopper, "print", 0)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Quantity)

	cart, err = ts.engagement.AddToCart(ctx, shopper, "print", 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	_, err = ts.engagement.AddToCart(ctx, shopper, "bowl", 1)
	require.NoError(t, err)
	cart, err = ts.engagement.AddToCart(ctx, shopper, "zine", 1)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.TotalQuantity)
	assert.InDelta(t, 100.0, cart.Subtotal, 0.001)

	_, err = ts.engagement.AddToCart(ctx, shopper, "retired", 1)
	assertCode(t, err, models.CodeNotFound)
	_, err = ts.engagement.AddToCart(ctx, shopper, "print", 99)
	assertCode(t, err, models.CodeValidation)
	_, err = ts.engagement.SetCartQuantity(ctx, shopper, "print", 0)
	assertCode(t, err, models.CodeValidation)
	_, err = ts.engagement.SetCartQuantity(ctx, shopper, "missing", 2)
	assertCode(t, err, models.CodeNotFound)

	cart, err = ts.engagement.SetCartQuantity(ctx, shopper, "print", 1)
	require.NoError(t, err)
	assert.InDelta(t, 60.0, cart.Subtotal, 0.001)

	cart, err = ts.engagement.RemoveFromCart(ctx, shopper, "zine")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	_, err = ts.engagement.RemoveFromCart(ctx, shopper, "zine")
	assertCode(t, err, models.CodeNotFound)

	cart, err = ts.engagement.ClearCart(ctx, shopper)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	cart, err = ts.engagement.Cart(ctx, shopper)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestEngagementService_CartSurvivesProductRemoval(t *testing.T) {
	ts := newTestServices(t, "")
	ctx := context.Background()
	shopper := testutil.CreateAccount(t, ts.db, models.RoleUser, "Shopper")
	price := 12.0
	ts.seedProducts(t, models.Product{ID: "card", Name: "Card", Price: &price})

	_, err := ts.engagement.AddToCart(ctx, shopper, "card", 2)
	require.NoError(t, err)

	_, err = ts.content.UpdateCatalog(ctx, nil, OriginCleanup, func(products []models.Product) ([]models.Product, error) {
		products[0].Status = models.ProductStatusInactive
		return products, nil
	})
	require.NoError(t, err)

	cart, err := ts.engagement.Cart(ctx, shopper)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Nil(t, cart.Items[0].Product)
	assert.Nil(t, cart.Items[0].LineTotal)
	assert.Zero(t, cart.Subtotal)
	assert.Equal(t, 2, cart.TotalQuantity)
}
