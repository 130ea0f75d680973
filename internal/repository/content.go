package repository

import (
	"context"
	"errors"

	"atelier/internal/models"
	"atelier/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContentRepository reads and writes the singleton site-state row.
type ContentRepository interface {
	// Load returns the stored document and whether it exists.
	Load(ctx context.Context) (*models.SiteState, bool, error)
	// Save upserts sections and products together in one statement.
	Save(ctx context.Context, state *models.SiteState) error
	WithTx(tx *gorm.DB) ContentRepository
}

type contentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewContentRepository returns a new ContentRepository implementation.
func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db, log: observability.NewRepoLogger("site_states")}
}

func (r *contentRepository) WithTx(tx *gorm.DB) ContentRepository {
	return &contentRepository{db: tx, log: r.log}
}

func (r *contentRepository) Load(ctx context.Context) (*models.SiteState, bool, error) {
	defer observability.TrackQuery("select", "site_states")()

	var state models.SiteState
	err := r.db.WithContext(ctx).Where("id = ?", models.SiteStateID).Take(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		r.log.LogError(ctx, err, "load")
		return nil, false, models.NewInternalError(err)
	}
	return &state, true, nil
}

func (r *contentRepository) Save(ctx context.Context, state *models.SiteState) error {
	defer observability.TrackQuery("upsert", "site_states")()

	state.ID = models.SiteStateID
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"sections", "products", "revision", "updated_at", "updated_by"}),
	}).Create(state).Error
	if err != nil {
		r.log.LogError(ctx, err, "save")
		return models.NewInternalError(err)
	}
	r.log.LogUpdate(ctx, map[string]any{"revision": state.Revision})
	return nil
}
