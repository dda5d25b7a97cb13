// Package store persists harvests and their reviews.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/reviews-cli/internal/config"
	"github.com/sells-group/reviews-cli/internal/model"
)

// Store defines the persistence interface for harvested reviews.
type Store interface {
	// Harvests
	CreateHarvest(ctx context.Context, asin string) (*model.Harvest, error)
	CompleteHarvest(ctx context.Context, harvestID string, reviewCount int) error
	FailHarvest(ctx context.Context, harvestID string) error
	ListHarvests(ctx context.Context, limit int) ([]model.Harvest, error)

	// Reviews
	SaveReviews(ctx context.Context, harvestID string, reviews []model.Review) error
	// GetReviews returns the reviews of the most recent completed harvest
	// for the ASIN, in harvest order.
	GetReviews(ctx context.Context, asin string) ([]model.Review, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store from configuration.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
