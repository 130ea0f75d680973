package repository

import (
	"context"
	"errors"
	"strings"

	"atelier/internal/cache"
	"atelier/internal/models"
	"atelier/internal/observability"

	"gorm.io/gorm"
)

// AccountFilter narrows an account listing.
type AccountFilter struct {
	Role   models.Role
	Status models.AccountStatus
	Search string
	Sort   string
	Desc   bool
	Offset int
	Limit  int
}

// AccountSortColumns are the accepted AccountFilter.Sort values.
var AccountSortColumns = []string{"created_at", "name", "email", "last_login_at"}

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	Create(ctx context.Context, acc *models.Account) error
	Update(ctx context.Context, acc *models.Account) error
	BumpSessionVersion(ctx context.Context, id uint) error
	TouchLastLogin(ctx context.Context, acc *models.Account) error
	List(ctx context.Context, filter AccountFilter) ([]models.Account, int64, error)
	Delete(ctx context.Context, id uint) error
	WithTx(tx *gorm.DB) AccountRepository
}

type accountRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewAccountRepository returns a new AccountRepository implementation.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db, log: observability.NewRepoLogger("accounts")}
}

func (r *accountRepository) WithTx(tx *gorm.DB) AccountRepository {
	return &accountRepository{db: tx, log: r.log}
}

// cachedAccount keeps the fields Account hides from JSON so a cache hit is a
// complete record.
type cachedAccount struct {
	models.Account
	PasswordHash   string `json:"password_hash"`
	SessionVersion int    `json:"session_version"`
}

func (r *accountRepository) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	var cached cachedAccount
	err := cache.Aside(ctx, cache.AccountKey(id), &cached, cache.AccountTTL, func() error {
		defer observability.TrackQuery("select", "accounts")()
		if err := r.db.WithContext(ctx).First(&cached.Account, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Account", id)
			}
			return models.NewInternalError(err)
		}
		cached.PasswordHash = cached.Account.PasswordHash
		cached.SessionVersion = cached.Account.SessionVersion
		return nil
	})
	if err != nil {
		return nil, err
	}

	acc := cached.Account
	acc.PasswordHash = cached.PasswordHash
	acc.SessionVersion = cached.SessionVersion
	return &acc, nil
}

// GetByEmail returns nil, nil when no account uses email.
func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var acc models.Account
	email = strings.ToLower(strings.TrimSpace(email))
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&acc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &acc, nil
}

func (r *accountRepository) Create(ctx context.Context, acc *models.Account) error {
	acc.Email = strings.ToLower(strings.TrimSpace(acc.Email))
	if acc.SessionVersion == 0 {
		acc.SessionVersion = 1
	}
	if acc.Status == "" {
		acc.Status = models.AccountStatusActive
	}
	if err := r.db.WithContext(ctx).Create(acc).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("An account with this email already exists")
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{"account_id": acc.ID, "role": acc.Role})
	return nil
}

func (r *accountRepository) Update(ctx context.Context, acc *models.Account) error {
	acc.Email = strings.ToLower(strings.TrimSpace(acc.Email))
	if err := r.db.WithContext(ctx).Save(acc).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("An account with this email already exists")
		}
		r.log.LogError(ctx, err, "update")
		return models.NewInternalError(err)
	}
	cache.InvalidateAccount(ctx, acc.ID)
	r.log.LogUpdate(ctx, map[string]any{"account_id": acc.ID})
	return nil
}

// BumpSessionVersion increments session_version in a single statement,
// invalidating every token issued before the call.
func (r *accountRepository) BumpSessionVersion(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		UpdateColumn("session_version", gorm.Expr("session_version + ?", 1))
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "bump_session_version")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Account", id)
	}
	cache.InvalidateAccount(ctx, id)
	r.log.LogUpdate(ctx, map[string]any{"account_id": id, "field": "session_version"})
	return nil
}

// TouchLastLogin stamps last_login_at without rewriting the rest of the row.
func (r *accountRepository) TouchLastLogin(ctx context.Context, acc *models.Account) error {
	if err := r.db.WithContext(ctx).Model(acc).UpdateColumn("last_login_at", acc.LastLoginAt).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateAccount(ctx, acc.ID)
	return nil
}

func (r *accountRepository) List(ctx context.Context, filter AccountFilter) ([]models.Account, int64, error) {
	defer observability.TrackQuery("list", "accounts")()

	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Role != "" {
			db = db.Where("role = ?", filter.Role)
		}
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		if strings.TrimSpace(filter.Search) != "" {
			p := likePattern(filter.Search)
			db = db.Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(email) LIKE ? ESCAPE '\\')", p, p)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Account{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	column := "created_at"
	for _, c := range AccountSortColumns {
		if filter.Sort == c {
			column = c
		}
	}

	var accounts []models.Account
	q := r.db.WithContext(ctx).Model(&models.Account{}).Scopes(scope).
		Order(column + " " + orderDirection(filter.Desc)).
		Order("id " + orderDirection(filter.Desc)).
		Offset(filter.Offset)
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Find(&accounts).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return accounts, total, nil
}

func (r *accountRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Account{}, id)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "delete")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Account", id)
	}
	cache.InvalidateAccount(ctx, id)
	r.log.LogDelete(ctx, map[string]any{"account_id": id})
	return nil
}
