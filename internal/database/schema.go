package database

import (
	"context"
	"fmt"
	"log/slog"

	"atelier/internal/middleware"

	"gorm.io/gorm"
)

// TableStatus reports whether one managed table exists.
type TableStatus struct {
	Table  string
	Exists bool
}

// ApplySchema creates or updates every managed table.
func ApplySchema(ctx context.Context, db *gorm.DB) error {
	middleware.Logger.InfoContext(ctx, "Running GORM AutoMigrate", slog.Int("models", len(PersistentModels())))
	if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// SchemaStatus lists each managed table and whether it is present.
func SchemaStatus(ctx context.Context, db *gorm.DB) ([]TableStatus, error) {
	migrator := db.WithContext(ctx).Migrator()
	out := make([]TableStatus, 0, len(PersistentModels()))
	for _, model := range PersistentModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse model: %w", err)
		}
		out = append(out, TableStatus{
			Table:  stmt.Schema.Table,
			Exists: migrator.HasTable(model),
		})
	}
	return out, nil
}
