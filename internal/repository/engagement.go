package repository

import (
	"context"
	"errors"
	"time"

	"atelier/internal/models"
	"atelier/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EngagementRepository persists likes, comments and cart lines.
type EngagementRepository interface {
	Like(ctx context.Context, productID string, accountID uint) error
	Unlike(ctx context.Context, productID string, accountID uint) error
	LikeCount(ctx context.Context, productID string) (int64, error)
	HasLiked(ctx context.Context, productID string, accountID uint) (bool, error)

	CreateComment(ctx context.Context, comment *models.ProductComment) error
	ListComments(ctx context.Context, productID string, offset, limit int) ([]models.ProductComment, int64, error)
	LatestCommentAt(ctx context.Context, accountID uint) (*time.Time, error)

	ListCart(ctx context.Context, accountID uint) ([]models.CartItem, error)
	GetCartItem(ctx context.Context, accountID uint, productID string) (*models.CartItem, error)
	SaveCartItem(ctx context.Context, item *models.CartItem) error
	DeleteCartItem(ctx context.Context, accountID uint, productID string) (bool, error)
	ClearCart(ctx context.Context, accountID uint) error

	DeleteByAccount(ctx context.Context, accountID uint) error
	DeleteByProduct(ctx context.Context, productID string) error
	WithTx(tx *gorm.DB) EngagementRepository
}

type engagementRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewEngagementRepository returns a new EngagementRepository implementation.
func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db, log: observability.NewRepoLogger("engagement")}
}

func (r *engagementRepository) WithTx(tx *gorm.DB) EngagementRepository {
	return &engagementRepository{db: tx, log: r.log}
}

// Like is idempotent: liking twice leaves one row.
func (r *engagementRepository) Like(ctx context.Context, productID string, accountID uint) error {
	like := &models.ProductLike{ProductID: productID, AccountID: accountID}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(like).Error; err != nil {
		r.log.LogError(ctx, err, "like")
		return models.NewInternalError(err)
	}
	return nil
}

func (r *engagementRepository) Unlike(ctx context.Context, productID string, accountID uint) error {
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND account_id = ?", productID, accountID).
		Delete(&models.ProductLike{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *engagementRepository) LikeCount(ctx context.Context, productID string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.ProductLike{}).Where("product_id = ?", productID).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *engagementRepository) HasLiked(ctx context.Context, productID string, accountID uint) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.ProductLike{}).
		Where("product_id = ? AND account_id = ?", productID, accountID).
		Count(&n).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *engagementRepository) CreateComment(ctx context.Context, comment *models.ProductComment) error {
	if err := r.db.WithContext(ctx).Omit("Account").Create(comment).Error; err != nil {
		r.log.LogError(ctx, err, "create_comment")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{"comment_id": comment.ID, "product_id": comment.ProductID})
	return nil
}

func (r *engagementRepository) ListComments(ctx context.Context, productID string, offset, limit int) ([]models.ProductComment, int64, error) {
	var total int64
	base := r.db.WithContext(ctx).Model(&models.ProductComment{}).Where("product_id = ?", productID)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var comments []models.ProductComment
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Preload("Account").
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&comments).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return comments, total, nil
}

// LatestCommentAt returns nil when the account has never commented.
func (r *engagementRepository) LatestCommentAt(ctx context.Context, accountID uint) (*time.Time, error) {
	var comment models.ProductComment
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Take(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &comment.CreatedAt, nil
}

func (r *engagementRepository) ListCart(ctx context.Context, accountID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.WithContext(ctx).Where("account_id = ?", accountID).Order("created_at ASC").Order("id ASC").Find(&items).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

// GetCartItem returns nil, nil when the product is not in the cart.
func (r *engagementRepository) GetCartItem(ctx context.Context, accountID uint, productID string) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).Where("account_id = ? AND product_id = ?", accountID, productID).Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &item, nil
}

func (r *engagementRepository) SaveCartItem(ctx context.Context, item *models.CartItem) error {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Product is already in the cart")
		}
		r.log.LogError(ctx, err, "save_cart_item")
		return models.NewInternalError(err)
	}
	return nil
}

func (r *engagementRepository) DeleteCartItem(ctx context.Context, accountID uint, productID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("account_id = ? AND product_id = ?", accountID, productID).Delete(&models.CartItem{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *engagementRepository) ClearCart(ctx context.Context, accountID uint) error {
	if err := r.db.WithContext(ctx).Where("account_id = ?", accountID).Delete(&models.CartItem{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// DeleteByAccount removes every like, comment and cart line of an account.
func (r *engagementRepository) DeleteByAccount(ctx context.Context, accountID uint) error {
	db := r.db.WithContext(ctx)
	for _, m := range []any{&models.ProductLike{}, &models.ProductComment{}, &models.CartItem{}} {
		if err := db.Where("account_id = ?", accountID).Delete(m).Error; err != nil {
			r.log.LogError(ctx, err, "delete_by_account")
			return models.NewInternalError(err)
		}
	}
	r.log.LogDelete(ctx, map[string]any{"account_id": accountID})
	return nil
}

// DeleteByProduct removes every like, comment and cart line of a product.
func (r *engagementRepository) DeleteByProduct(ctx context.Context, productID string) error {
	db := r.db.WithContext(ctx)
	for _, m := range []any{&models.ProductLike{}, &models.ProductComment{}, &models.CartItem{}} {
		if err := db.Where("product_id = ?", productID).Delete(m).Error; err != nil {
			r.log.LogError(ctx, err, "delete_by_product")
			return models.NewInternalError(err)
		}
	}
	r.log.LogDelete(ctx, map[string]any{"product_id": productID})
	return nil
}
