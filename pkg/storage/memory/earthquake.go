package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/nsyszr/quakedb/pkg/model"
	"github.com/nsyszr/quakedb/pkg/storage"
)

type earthquakeStore struct {
	store map[string]model.Earthquake
	sync.RWMutex
}

func newEarthquakeStore() *earthquakeStore {
	return &earthquakeStore{
		store: make(map[string]model.Earthquake),
	}
}

func (s *earthquakeStore) FetchAll(ctx context.Context) ([]model.Earthquake, error) {
	s.RLock()
	defer s.RUnlock()

	return s.filter(func(m *model.Earthquake) bool { return true }), nil
}

func (s *earthquakeStore) FindByID(ctx context.Context, id string) (*model.Earthquake, error) {
	s.RLock()
	defer s.RUnlock()
	if m, ok := s.store[id]; ok {
		return &m, nil
	}

	return nil, storage.ErrNotFound
}

func (s *earthquakeStore) FindByLatitudeRange(ctx context.Context, min, max float64) ([]model.Earthquake, error) {
	s.RLock()
	defer s.RUnlock()

	return s.filter(func(m *model.Earthquake) bool {
		return m.Latitude >= min && m.Latitude <= max
	}), nil
}

func (s *earthquakeStore) Create(ctx context.Context, m *model.Earthquake) error {
	s.Lock()
	defer s.Unlock()

	if _, ok := s.store[m.ID]; ok {
		return storage.ErrDuplicateKey
	}
	s.store[m.ID] = *m

	return nil
}

func (s *earthquakeStore) CreateBatch(ctx context.Context, ms []model.Earthquake) ([]error, error) {
	s.Lock()
	defer s.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	errs := make([]error, len(ms))
	for i, m := range ms {
		if _, ok := s.store[m.ID]; ok {
			errs[i] = storage.ErrDuplicateKey
			continue
		}
		s.store[m.ID] = m
	}

	return errs, nil
}

func (s *earthquakeStore) Update(ctx context.Context, id string, m *model.Earthquake) error {
	s.Lock()
	defer s.Unlock()

	if _, ok := s.store[id]; !ok {
		return storage.ErrNotFound
	}
	if m.ID != id {
		if _, ok := s.store[m.ID]; ok {
			return storage.ErrDuplicateKey
		}
		delete(s.store, id)
	}
	s.store[m.ID] = *m

	return nil
}

func (s *earthquakeStore) Delete(ctx context.Context, id string) error {
	s.Lock()
	defer s.Unlock()

	_, ok := s.store[id]
	if !ok {
		return storage.ErrNotFound
	}

	delete(s.store, id)

	return nil
}

func (s *earthquakeStore) DeleteByNetwork(ctx context.Context, network string) (int64, error) {
	s.Lock()
	defer s.Unlock()

	var n int64
	for id, m := range s.store {
		if m.Network == network {
			delete(s.store, id)
			n++
		}
	}

	return n, nil
}

func (s *earthquakeStore) Count(ctx context.Context) (int, error) {
	s.RLock()
	defer s.RUnlock()

	return len(s.store), nil
}

func (s *earthquakeStore) CountByNetwork(ctx context.Context, network string) (int, error) {
	s.RLock()
	defer s.RUnlock()

	return len(s.filter(func(m *model.Earthquake) bool { return m.Network == network })), nil
}

// filter must be called with the lock held. The result is sorted by id so
// that listings are stable across calls.
func (s *earthquakeStore) filter(keep func(m *model.Earthquake) bool) []model.Earthquake {
	models := make([]model.Earthquake, 0)
	for _, m := range s.store {
		if keep(&m) {
			models = append(models, m)
		}
	}

	sort.Slice(models, func(i, j int) bool {
		return models[i].ID < models[j].ID
	})

	return models
}
