package storage

import (
	"context"

	"github.com/nsyszr/quakedb/pkg/model"
)

// Interface is implemented by the storage
type Interface interface {
	Earthquakes() EarthquakeStore
	Ping(ctx context.Context) error
	Close() error
}

// EarthquakeStore is responsible for managing the Earthquake model
type EarthquakeStore interface {
	FetchAll(ctx context.Context) ([]model.Earthquake, error)
	FindByID(ctx context.Context, id string) (*model.Earthquake, error)
	FindByLatitudeRange(ctx context.Context, min, max float64) ([]model.Earthquake, error)
	Create(ctx context.Context, m *model.Earthquake) error
	// CreateBatch stores all models within one transaction. The returned slice
	// is aligned with ms and holds ErrDuplicateKey for every model that was
	// skipped because its id is taken. A non-nil error means nothing was stored.
	CreateBatch(ctx context.Context, ms []model.Earthquake) ([]error, error)
	// Update overwrites the record stored under id, m.ID may differ from id.
	Update(ctx context.Context, id string, m *model.Earthquake) error
	Delete(ctx context.Context, id string) error
	DeleteByNetwork(ctx context.Context, network string) (int64, error)
	Count(ctx context.Context) (int, error)
	CountByNetwork(ctx context.Context, network string) (int, error)
}
