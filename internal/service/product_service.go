package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"atelier/internal/auth"
	"atelier/internal/catalog"
	"atelier/internal/models"
	"atelier/internal/notifications"
	"atelier/internal/pagination"
	"atelier/internal/repository"
)

// ProductSortFields are the accepted ProductQuery.Sort values.
var ProductSortFields = []string{"sort_order", "name", "price", "created_at", "updated_at"}

// ProductQuery filters and orders a catalog listing.
type ProductQuery struct {
	Search      string
	GalleryType string
	Category    string
	Status      string
	Featured    *bool
	Sort        string
	Desc        bool
	Page        pagination.Request
}

// ProductPage is one page of visible products.
type ProductPage struct {
	Items  []models.Product  `json:"items"`
	Paging pagination.Paging `json:"paging"`
}

// ProductService serves catalog reads scoped to the caller and direct admin edits.
type ProductService struct {
	content    *ContentService
	engagement repository.EngagementRepository
	notifier   *notifications.Notifier
}

// NewProductService returns a ProductService.
func NewProductService(content *ContentService, engagement repository.EngagementRepository, notifier *notifications.Notifier) *ProductService {
	return &ProductService{content: content, engagement: engagement, notifier: notifier}
}

// List returns the products actor may see, filtered, sorted and paginated.
func (s *ProductService) List(ctx context.Context, actor *models.Account, q ProductQuery) (*ProductPage, error) {
	doc, err := s.content.Read(ctx)
	if err != nil {
		return nil, err
	}

	term := strings.ToLower(strings.TrimSpace(q.Search))
	visible := make([]models.Product, 0, len(doc.Products))
	for i := range doc.Products {
		p := &doc.Products[i]
		if !auth.CanViewProduct(actor, p) {
			continue
		}
		if q.GalleryType != "" && string(p.GalleryType) != strings.ToLower(q.GalleryType) {
			continue
		}
		if q.Category != "" && !strings.EqualFold(p.Category, q.Category) {
			continue
		}
		if q.Status != "" && string(p.Status) != strings.ToLower(q.Status) {
			continue
		}
		if q.Featured != nil && p.Featured != *q.Featured {
			continue
		}
		if term != "" && !matchesProduct(p, term) {
			continue
		}
		visible = append(visible, *p)
	}

	sortProducts(visible, q.Sort, q.Desc)
	items, paging := pagination.Slice(visible, q.Page)
	return &ProductPage{Items: items, Paging: paging}, nil
}

// Get returns one product. Products the actor may not see are reported as missing.
func (s *ProductService) Get(ctx context.Context, actor *models.Account, id string) (*models.Product, error) {
	doc, err := s.content.Read(ctx)
	if err != nil {
		return nil, err
	}
	p, idx := catalog.FindProduct(doc.Products, id)
	if idx < 0 || !auth.CanViewProduct(actor, &p) {
		return nil, models.NewNotFoundError("Product", id)
	}
	return &p, nil
}

// Lookup resolves ids against one catalog read, omitting products actor may not see.
func (s *ProductService) Lookup(ctx context.Context, actor *models.Account, ids []string) (map[string]models.Product, error) {
	doc, err := s.content.Read(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.Product, len(ids))
	for _, id := range ids {
		if p, idx := catalog.FindProduct(doc.Products, id); idx >= 0 && auth.CanViewProduct(actor, &p) {
			out[id] = p
		}
	}
	return out, nil
}

// Create adds a product directly to the catalog.
func (s *ProductService) Create(ctx context.Context, actor *models.Account, raw map[string]any) (*models.Product, error) {
	if raw == nil {
		return nil, models.NewValidationError("Product body is required")
	}
	var created models.Product
	_, err := s.content.UpdateCatalog(ctx, &actor.ID, OriginAdmin, func(products []models.Product) ([]models.Product, error) {
		p := catalog.Normalize(raw, len(products))
		if !auth.CanEditProduct(actor, &p) {
			return nil, models.NewForbiddenError("Only admins can edit the catalog directly")
		}
		if strings.TrimSpace(p.Name) == "" {
			return nil, models.NewValidationError("Product name is required")
		}
		if _, idx := catalog.FindProduct(products, p.ID); idx >= 0 {
			return nil, models.NewConflictError(fmt.Sprintf("Product %q already exists", p.ID))
		}
		created = p
		return append(products, p), nil
	})
	if err != nil {
		return nil, err
	}

	recordActivity(ctx, s.notifier, notifications.ActivityEvent{
		Type:      notifications.EventProductCreated,
		ActorID:   actor.ID,
		SubjectID: created.ID,
		Summary:   fmt.Sprintf("Product %q created", created.Name),
	})
	return s.Get(ctx, actor, created.ID)
}

// Update overlays patch onto an existing product.
func (s *ProductService) Update(ctx context.Context, actor *models.Account, id string, patch map[string]any) (*models.Product, error) {
	if patch == nil {
		return nil, models.NewValidationError("Product body is required")
	}
	_, err := s.content.UpdateCatalog(ctx, &actor.ID, OriginAdmin, func(products []models.Product) ([]models.Product, error) {
		existing, idx := catalog.FindProduct(products, id)
		if idx < 0 {
			return nil, models.NewNotFoundError("Product", id)
		}
		if !auth.CanEditProduct(actor, &existing) {
			return nil, models.NewForbiddenError("Only admins can edit the catalog directly")
		}
		fields := catalog.ApplyPatch(existing, patch)
		fields["id"] = id
		return catalog.Merge(products, catalog.Normalize(fields, idx)), nil
	})
	if err != nil {
		return nil, err
	}

	recordActivity(ctx, s.notifier, notifications.ActivityEvent{
		Type:      notifications.EventProductUpdated,
		ActorID:   actor.ID,
		SubjectID: id,
		Summary:   fmt.Sprintf("Product %q updated", id),
	})
	return s.Get(ctx, actor, id)
}

// Delete removes a product and its likes, comments and cart lines.
func (s *ProductService) Delete(ctx context.Context, actor *models.Account, id string) error {
	_, err := s.content.UpdateCatalog(ctx, &actor.ID, OriginAdmin, func(products []models.Product) ([]models.Product, error) {
		existing, idx := catalog.FindProduct(products, id)
		if idx < 0 {
			return nil, models.NewNotFoundError("Product", id)
		}
		if !auth.CanEditProduct(actor, &existing) {
			return nil, models.NewForbiddenError("Only admins can edit the catalog directly")
		}
		out, _ := catalog.Remove(products, id)
		return out, nil
	})
	if err != nil {
		return err
	}
	if err := s.engagement.DeleteByProduct(ctx, id); err != nil {
		return err
	}

	recordActivity(ctx, s.notifier, notifications.ActivityEvent{
		Type:      notifications.EventProductDeleted,
		ActorID:   actor.ID,
		SubjectID: id,
		Summary:   fmt.Sprintf("Product %q deleted", id),
	})
	return nil
}

func matchesProduct(p *models.Product, term string) bool {
	fields := []string{p.ID, p.Name, p.Artist, p.Category, p.Medium, p.Description, string(p.GalleryType)}
	fields = append(fields, p.Tags...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func sortProducts(products []models.Product, field string, desc bool) {
	less := func(a, b *models.Product) int {
		switch field {
		case "name":
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		case "price":
			return comparePrice(a.Price, b.Price)
		case "created_at":
			return strings.Compare(a.CreatedAt, b.CreatedAt)
		case "updated_at":
			return strings.Compare(a.UpdatedAt, b.UpdatedAt)
		default:
			return a.SortOrder - b.SortOrder
		}
	}
	sort.SliceStable(products, func(i, j int) bool {
		a, b := &products[i], &products[j]
		if field == "price" && (a.Price == nil) != (b.Price == nil) {
			return b.Price == nil
		}
		c := less(a, b)
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// comparePrice orders missing prices last; sortProducts keeps them last when descending too.
func comparePrice(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}
