// Package seed populates a development database with demo vendors, shoppers,
// catalog products and engagement. It is intended for development only.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"atelier/internal/auth"
	"atelier/internal/catalog"
	"atelier/internal/middleware"
	"atelier/internal/models"
	"atelier/internal/repository"
	"atelier/internal/service"
	"atelier/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "Password123"

// Options configure the seeder.
type Options struct {
	Vendors           int
	Users             int
	ProductsPerVendor int
	PendingPerVendor  int
	CommentsPerUser   int
	Clean             bool
	// RandomSeed makes the generated data reproducible when non-zero.
	RandomSeed int64
}

// DefaultOptions is a small but complete demo dataset.
var DefaultOptions = Options{
	Vendors:           4,
	Users:             12,
	ProductsPerVendor: 6,
	PendingPerVendor:  2,
	CommentsPerUser:   2,
	Clean:             true,
}

// Summary counts what a run created.
type Summary struct {
	Vendors     int
	Users       int
	Products    int
	Submissions int
	Likes       int
	Comments    int
}

// Seeder builds demo data through the same services the API uses.
type Seeder struct {
	db          *gorm.DB
	opts        Options
	faker       *gofakeit.Faker
	accounts    repository.AccountRepository
	engagement  repository.EngagementRepository
	content     *service.ContentService
	submissions *service.SubmissionService
}

// NewSeeder returns a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	content := service.NewContentService(repository.NewContentRepository(db))
	return &Seeder{
		db:          db,
		opts:        opts,
		faker:       gofakeit.New(opts.RandomSeed),
		accounts:    repository.NewAccountRepository(db),
		engagement:  repository.NewEngagementRepository(db),
		content:     content,
		submissions: service.NewSubmissionService(db, repository.NewSubmissionRepository(db), content, nil),
	}
}

// Run creates the configured dataset, clearing previous demo data first when
// Options.Clean is set.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	middleware.Logger.InfoContext(ctx, "seeding database",
		slog.Int("vendors", s.opts.Vendors),
		slog.Int("users", s.opts.Users))

	if s.opts.Clean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, err
		}
	}
	if _, err := s.content.EnsureInitialized(ctx); err != nil {
		return nil, fmt.Errorf("init content: %w", err)
	}

	hash, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	summary := &Summary{}
	vendors, err := s.createAccounts(ctx, models.RoleVendor, s.opts.Vendors, hash)
	if err != nil {
		return nil, fmt.Errorf("create vendors: %w", err)
	}
	summary.Vendors = len(vendors)

	users, err := s.createAccounts(ctx, models.RoleUser, s.opts.Users, hash)
	if err != nil {
		return nil, fmt.Errorf("create users: %w", err)
	}
	summary.Users = len(users)

	products, err := s.createProducts(ctx, vendors)
	if err != nil {
		return nil, fmt.Errorf("create products: %w", err)
	}
	summary.Products = len(products)

	for _, vendor := range vendors {
		n, err := s.createPending(ctx, vendor)
		if err != nil {
			return nil, fmt.Errorf("create submissions: %w", err)
		}
		summary.Submissions += n
	}

	summary.Likes, summary.Comments, err = s.createEngagement(ctx, users, products)
	if err != nil {
		return nil, fmt.Errorf("create engagement: %w", err)
	}

	middleware.Logger.InfoContext(ctx, "seeding completed",
		slog.Int("products", summary.Products),
		slog.Int("submissions", summary.Submissions),
		slog.Int("likes", summary.Likes),
		slog.Int("comments", summary.Comments))
	return summary, nil
}

// ClearAll removes every non-admin account with its submissions and
// engagement, and empties the catalog. Site sections are kept.
func (s *Seeder) ClearAll(ctx context.Context) error {
	middleware.Logger.InfoContext(ctx, "clearing demo data")
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range []any{&models.CartItem{}, &models.ProductComment{}, &models.ProductLike{}, &models.ProductSubmission{}} {
			if err := all.Delete(model).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("role <> ?", models.RoleAdmin).Delete(&models.Account{}).Error; err != nil {
			return err
		}
		_, err := s.content.WithTx(tx).UpdateCatalog(ctx, nil, service.OriginCleanup, func([]models.Product) ([]models.Product, error) {
			return []models.Product{}, nil
		})
		return err
	})
}

func (s *Seeder) createAccounts(ctx context.Context, role models.Role, n int, hash string) ([]*models.Account, error) {
	out := make([]*models.Account, 0, n)
	for i := 0; i < n; i++ {
		name := s.faker.Name()
		if role == models.RoleVendor {
			name = s.faker.Company()
		}
		acc := &models.Account{
			Name:           name,
			Email:          fmt.Sprintf("%s%d@atelier.test", role, i+1),
			PasswordHash:   hash,
			Role:           role,
			Status:         models.AccountStatusActive,
			Slug:           validation.Slugify(name),
			SessionVersion: 1,
		}
		if err := s.accounts.Create(ctx, acc); err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, nil
}

// BuildProduct returns a raw product proposal for vendor. Prices, sale
// prices and optional fields vary so the catalog exercises every filter.
func (s *Seeder) BuildProduct(vendor *models.Account, index int) map[string]any {
	f := s.faker
	kind := models.GalleryTypes[f.Number(0, len(models.GalleryTypes)-1)]
	title := f.Adjective() + " " + f.Noun()
	title = strings.ToUpper(title[:1]) + title[1:]
	price := float64(f.Number(20, 900))

	raw := map[string]any{
		"id":           fmt.Sprintf("%s-%d-%s", vendor.Slug, index+1, strings.ToLower(f.LetterN(4))),
		"name":         title,
		"gallery_type": string(kind),
		"category":     f.RandomString([]string{"original", "print", "edition", "object"}),
		"artist":       vendor.Name,
		"medium":       f.RandomString([]string{"oil on canvas", "stoneware", "risograph", "gelatin silver print", "bronze", "linen"}),
		"dimensions":   fmt.Sprintf("%d x %d cm", f.Number(10, 120), f.Number(10, 120)),
		"year":         f.Number(1995, 2026),
		"price":        price,
		"description":  f.Paragraph(1, 2, 12, " "),
		"image_url":    fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.UUID()),
		"tags":         []any{f.Color(), f.Adjective()},
		"featured":     f.Number(1, 5) == 1,
		"inventory":    f.Number(0, 12),
	}
	if f.Bool() {
		raw["sale_price"] = price * 0.8
	}
	if kind == models.GalleryBooks {
		raw["isbn"] = f.Numerify("978##########")
	}
	return raw
}

func (s *Seeder) createProducts(ctx context.Context, vendors []*models.Account) ([]models.Product, error) {
	var created []models.Product
	_, err := s.content.UpdateCatalog(ctx, nil, service.OriginBootstrap, func(products []models.Product) ([]models.Product, error) {
		for _, vendor := range vendors {
			for i := 0; i < s.opts.ProductsPerVendor; i++ {
				raw := s.BuildProduct(vendor, i)
				raw["owner_user_id"] = vendor.ID
				p := catalog.Normalize(raw, len(products))
				products = append(products, p)
				created = append(created, p)
			}
		}
		return products, nil
	})
	return created, err
}

func (s *Seeder) createPending(ctx context.Context, vendor *models.Account) (int, error) {
	if s.opts.PendingPerVendor <= 0 {
		return 0, nil
	}
	items := make([]map[string]any, 0, s.opts.PendingPerVendor)
	for i := 0; i < s.opts.PendingPerVendor; i++ {
		items = append(items, s.BuildProduct(vendor, s.opts.ProductsPerVendor+i))
	}
	result, err := s.submissions.Submit(ctx, vendor, service.SubmitInput{Products: items, Note: s.faker.Sentence(8)})
	if err != nil {
		return 0, err
	}
	if len(result.Failures) > 0 {
		return 0, result.Failures[0].Err()
	}
	return len(result.Created), nil
}

func (s *Seeder) createEngagement(ctx context.Context, users []*models.Account, products []models.Product) (int, int, error) {
	if len(products) == 0 {
		return 0, 0, nil
	}
	likes, comments := 0, 0
	for _, user := range users {
		for _, p := range products {
			if !s.faker.Bool() {
				continue
			}
			if err := s.engagement.Like(ctx, p.ID, user.ID); err != nil {
				return 0, 0, err
			}
			likes++
		}
		for i := 0; i < s.opts.CommentsPerUser; i++ {
			p := products[s.faker.Number(0, len(products)-1)]
			comment := &models.ProductComment{ProductID: p.ID, AccountID: user.ID, Body: s.faker.Sentence(10)}
			if err := s.engagement.CreateComment(ctx, comment); err != nil {
				return 0, 0, err
			}
			comments++
		}
	}
	return likes, comments, nil
}
