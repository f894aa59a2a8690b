package ports

import (
	"context"

	"github.com/uyirthuli/donor-match-service/internal/core/domain"
)

// DonorIndex is the geospatial lookup used to pull a candidate pool.
// Results may be approximate; exact radius enforcement happens in the
// candidate filter.
type DonorIndex interface {
	Upsert(ctx context.Context, donorID string, loc domain.Coordinates) error
	Remove(ctx context.Context, donorID string) error
	Near(ctx context.Context, center domain.Coordinates, radiusKm float64) ([]string, error)
}
