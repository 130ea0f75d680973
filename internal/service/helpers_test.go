package service

import (
	"context"
	"testing"
	"time"

	"atelier/internal/auth"
	"atelier/internal/featureflags"
	"atelier/internal/models"
	"atelier/internal/repository"
	"atelier/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServices struct {
	db          *gorm.DB
	issuer      *auth.TokenIssuer
	accountRepo repository.AccountRepository
	content     *ContentService
	products    *ProductService
	submissions *SubmissionService
	accounts    *AccountService
	engagement  *EngagementService
}

func newTestServices(t *testing.T, flags string) *testServices {
	t.Helper()
	db := testutil.NewDB(t)

	accountRepo := repository.NewAccountRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	engagementRepo := repository.NewEngagementRepository(db)
	issuer := auth.NewTokenIssuer("test_secret", time.Hour)

	content := NewContentService(repository.NewContentRepository(db))
	_, err := content.EnsureInitialized(context.Background())
	require.NoError(t, err)

	products := NewProductService(content, engagementRepo, nil)
	return &testServices{
		db:          db,
		issuer:      issuer,
		accountRepo: accountRepo,
		content:     content,
		products:    products,
		submissions: NewSubmissionService(db, submissionRepo, content, nil),
		accounts:    NewAccountService(db, accountRepo, submissionRepo, engagementRepo, content, issuer, featureflags.NewManager(flags), nil),
		engagement:  NewEngagementService(products, engagementRepo, 30*time.Second),
	}
}

// seedProducts writes products straight into the catalog.
func (ts *testServices) seedProducts(t *testing.T, products ...models.Product) {
	t.Helper()
	_, err := ts.content.UpdateCatalog(context.Background(), nil, OriginBootstrap, func(existing []models.Product) ([]models.Product, error) {
		return append(existing, products...), nil
	})
	require.NoError(t, err)
}

func ownedBy(id uint) *uint { return &id }

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, models.HasCode(err, code), "expected %s, got %v", code, err)
}
