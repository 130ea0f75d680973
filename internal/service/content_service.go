// Package service holds the business rules behind the HTTP handlers.
package service

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"atelier/internal/catalog"
	"atelier/internal/models"
	"atelier/internal/notifications"
	"atelier/internal/observability"
	"atelier/internal/repository"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

//go:embed defaults/sections.yml
var defaultSectionsYAML []byte

// Catalog write origins, used as the metrics label.
const (
	OriginAdmin     = "admin"
	OriginApproval  = "approval"
	OriginBootstrap = "bootstrap"
	OriginCleanup   = "cleanup"
)

// SiteDocument is the decoded, healed form of the singleton site state.
type SiteDocument struct {
	Sections  map[string]any   `json:"sections"`
	Products  []models.Product `json:"products"`
	Revision  int              `json:"revision"`
	UpdatedAt time.Time        `json:"updatedAt"`
	UpdatedBy *uint            `json:"updatedBy"`
}

// ContentService owns the read/write contract of the site-content document.
// Reads heal missing or corrupt JSON to defaults. Writes replace sections and
// products together; concurrent writers are last-write-wins.
type ContentService struct {
	repo     repository.ContentRepository
	notifier *notifications.Notifier
	now      func() time.Time
}

// NewContentService returns a ContentService over repo.
func NewContentService(repo repository.ContentRepository) *ContentService {
	return &ContentService{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// WithTx returns a ContentService whose reads and writes run on tx.
func (s *ContentService) WithTx(tx *gorm.DB) *ContentService {
	return &ContentService{repo: s.repo.WithTx(tx), notifier: s.notifier, now: s.now}
}

// WithNotifier returns a ContentService that records section edits in the activity feed.
func (s *ContentService) WithNotifier(n *notifications.Notifier) *ContentService {
	return &ContentService{repo: s.repo, notifier: n, now: s.now}
}

// DefaultSections returns a fresh copy of the built-in sections tree.
func DefaultSections() (map[string]any, error) {
	var sections map[string]any
	if err := yaml.Unmarshal(defaultSectionsYAML, &sections); err != nil {
		return nil, fmt.Errorf("parse default sections: %w", err)
	}
	return sections, nil
}

// EnsureInitialized writes the default document when none exists and reports
// whether it did.
func (s *ContentService) EnsureInitialized(ctx context.Context) (bool, error) {
	_, ok, err := s.repo.Load(ctx)
	if err != nil {
		return false, err
	}
	if ok {
		return false, nil
	}

	sections, err := DefaultSections()
	if err != nil {
		return false, models.NewInternalError(err)
	}
	if _, err := s.Write(ctx, &SiteDocument{Sections: sections, Products: []models.Product{}}, nil, OriginBootstrap); err != nil {
		return false, err
	}
	observability.GlobalLogger.InfoContext(ctx, "Initialized site content document")
	return true, nil
}

// Read returns the current document, creating the default one when missing.
func (s *ContentService) Read(ctx context.Context) (*SiteDocument, error) {
	state, ok, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		if _, err := s.EnsureInitialized(ctx); err != nil {
			return nil, err
		}
		if state, ok, err = s.repo.Load(ctx); err != nil {
			return nil, err
		} else if !ok {
			return nil, models.NewInternalError(fmt.Errorf("site state missing after initialization"))
		}
	}
	return s.decode(ctx, state), nil
}

func (s *ContentService) decode(ctx context.Context, state *models.SiteState) *SiteDocument {
	doc := &SiteDocument{
		Revision:  state.Revision,
		UpdatedAt: state.UpdatedAt,
		UpdatedBy: state.UpdatedBy,
	}

	if err := json.Unmarshal(state.Sections, &doc.Sections); err != nil || doc.Sections == nil {
		if err != nil {
			observability.GlobalLogger.WarnContext(ctx, "Healing corrupt site sections", slog.String("error", err.Error()))
		}
		doc.Sections = map[string]any{}
	}
	if defaults, err := DefaultSections(); err == nil {
		for _, name := range models.SectionNames {
			if _, ok := doc.Sections[name]; !ok {
				doc.Sections[name] = defaults[name]
			}
		}
	}

	products, err := catalog.DecodeProducts(state.Products)
	if err != nil {
		if len(state.Products) > 0 {
			observability.GlobalLogger.WarnContext(ctx, "Healing corrupt product catalog", slog.String("error", err.Error()))
		}
		products = []models.Product{}
	}
	doc.Products = products
	return doc
}

// Write re-normalizes products, stamps the document and persists it as one
// row. The returned document reflects what was stored.
func (s *ContentService) Write(ctx context.Context, doc *SiteDocument, actorID *uint, origin string) (*SiteDocument, error) {
	raws := make([]map[string]any, 0, len(doc.Products))
	for _, p := range doc.Products {
		raws = append(raws, catalog.ProductToMap(p))
	}
	products := catalog.NormalizeAll(raws)

	sections := doc.Sections
	if sections == nil {
		sections = map[string]any{}
	}
	sectionsJSON, err := json.Marshal(sections)
	if err != nil {
		return nil, models.NewValidationError("Sections must be valid JSON")
	}
	productsJSON, err := json.Marshal(products)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	state := &models.SiteState{
		Sections:  datatypes.JSON(sectionsJSON),
		Products:  datatypes.JSON(productsJSON),
		Revision:  doc.Revision + 1,
		UpdatedAt: s.now(),
		UpdatedBy: actorID,
	}
	if err := s.repo.Save(ctx, state); err != nil {
		return nil, err
	}

	observability.CatalogWritesTotal.WithLabelValues(origin).Inc()
	observability.CatalogProducts.Set(float64(len(products)))

	return &SiteDocument{
		Sections:  sections,
		Products:  products,
		Revision:  state.Revision,
		UpdatedAt: state.UpdatedAt,
		UpdatedBy: actorID,
	}, nil
}

// SaveSection replaces one named section and writes the whole document.
func (s *ContentService) SaveSection(ctx context.Context, name string, value any, actorID uint) (*SiteDocument, error) {
	if !models.IsSectionName(name) {
		return nil, models.NewValidationError(fmt.Sprintf("Unknown section %q", name))
	}
	if value == nil {
		return nil, models.NewValidationError("Section content is required")
	}

	doc, err := s.Read(ctx)
	if err != nil {
		return nil, err
	}
	doc.Sections[name] = value
	written, err := s.Write(ctx, doc, &actorID, OriginAdmin)
	if err != nil {
		return nil, err
	}

	recordActivity(ctx, s.notifier, notifications.ActivityEvent{
		Type:      notifications.EventContentUpdated,
		ActorID:   actorID,
		SubjectID: name,
		Summary:   fmt.Sprintf("Section %q updated", name),
		Details:   map[string]any{"revision": written.Revision},
	})
	return written, nil
}

// UpdateCatalog runs a read-modify-write of the product list. fn receives a
// copy it may return modified; returning an error aborts without writing.
func (s *ContentService) UpdateCatalog(ctx context.Context, actorID *uint, origin string, fn func([]models.Product) ([]models.Product, error)) (*SiteDocument, error) {
	doc, err := s.Read(ctx)
	if err != nil {
		return nil, err
	}
	products, err := fn(doc.Products)
	if err != nil {
		return nil, err
	}
	doc.Products = products
	return s.Write(ctx, doc, actorID, origin)
}
