package repository

import (
	"context"
	"testing"

	"atelier/internal/models"
	"atelier/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngagementRepository_Likes(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewEngagementRepository(db)
	ctx := context.Background()
	user := testutil.CreateAccount(t, db, models.RoleUser, "Fan")

	require.NoError(t, repo.Like(ctx, "p1", user.ID))
	require.NoError(t, repo.Like(ctx, "p1", user.ID))

	n, err := repo.LikeCount(ctx, "p1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	liked, err := repo.HasLiked(ctx, "p1", user.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	require.NoError(t, repo.Unlike(ctx, "p1", user.ID))
	liked, err = repo.HasLiked(ctx, "p1", user.ID)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestEngagementRepository_Comments(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewEngagementRepository(db)
	ctx := context.Background()
	user := testutil.CreateAccount(t, db, models.RoleUser, "Critic")

	latest, err := repo.LatestCommentAt(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	for _, body := range []string{"first", "second", "third"} {
		require.NoError(t, repo.CreateComment(ctx, &models.ProductComment{ProductID: "p1", AccountID: user.ID, Body: body}))
	}

	comments, total, err := repo.ListComments(ctx, "p1", 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, comments, 2)
	assert.Equal(t, "third", comments[0].Body)
	require.NotNil(t, comments[0].Account)
	assert.Equal(t, "Critic", comments[0].Account.Name)

	latest, err = repo.LatestCommentAt(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, latest)
}

func TestEngagementRepository_Cart(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewEngagementRepository(db)
	ctx := context.Background()
	user := testutil.CreateAccount(t, db, models.RoleUser, "Buyer")

	item, err := repo.GetCartItem(ctx, user.ID, "p1")
	require.NoError(t, err)
	assert.Nil(t, item)

	require.NoError(t, repo.SaveCartItem(ctx, &models.CartItem{AccountID: user.ID, ProductID: "p1", Quantity: 2}))
	require.NoError(t, repo.SaveCartItem(ctx, &models.CartItem{AccountID: user.ID, ProductID: "p2", Quantity: 1}))

	item, err = repo.GetCartItem(ctx, user.ID, "p1")
	require.NoError(t, err)
	require.NotNil(t, item)
	item.Quantity = 5
	require.NoError(t, repo.SaveCartItem(ctx, item))

	items, err := repo.ListCart(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 5, items[0].Quantity)

	removed, err := repo.DeleteCartItem(ctx, user.ID, "p2")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.DeleteCartItem(ctx, user.ID, "p2")
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, repo.ClearCart(ctx, user.ID))
	items, err = repo.ListCart(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestEngagementRepository_DeleteByAccountAndProduct(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewEngagementRepository(db)
	ctx := context.Background()
	a := testutil.CreateAccount(t, db, models.RoleUser, "A")
	b := testutil.CreateAccount(t, db, models.RoleUser, "B")

	require.NoError(t, repo.Like(ctx, "p1", a.ID))
	require.NoError(t, repo.Like(ctx, "p1", b.ID))
	require.NoError(t, repo.Like(ctx, "p2", b.ID))
	require.NoError(t, repo.CreateComment(ctx, &models.ProductComment{ProductID: "p1", AccountID: a.ID, Body: "hi"}))
	require.NoError(t, repo.SaveCartItem(ctx, &models.CartItem{AccountID: a.ID, ProductID: "p2", Quantity: 1}))

	require.NoError(t, repo.DeleteByAccount(ctx, a.ID))
	n, err := repo.LikeCount(ctx, "p1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	items, err := repo.ListCart(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, repo.DeleteByProduct(ctx, "p2"))
	n, err = repo.LikeCount(ctx, "p2")
	require.NoError(t, err)
	assert.Zero(t, n)
}
