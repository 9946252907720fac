package memory

import (
	"context"

	"github.com/nsyszr/quakedb/pkg/storage"
)

// Store contains all memory-based sub-stores for managing the persistent models
type store struct {
	earthquakes *earthquakeStore
}

// NewStore creates a new memory-based Storage interface
func NewStore() storage.Interface {
	return &store{
		earthquakes: newEarthquakeStore(),
	}
}

// Earthquakes returns a sub-store for managing the Earthquake model
func (s *store) Earthquakes() storage.EarthquakeStore {
	return s.earthquakes
}

// Ping always succeeds, the memory store has no connection to check
func (s *store) Ping(ctx context.Context) error {
	return nil
}

func (s *store) Close() error {
	return nil
}
