// Package quake implements the operations on the earthquake records: single
// record CRUD, bulk delete by network, latitude search and CSV import.
package quake

import (
	"context"

	"github.com/nsyszr/quakedb/pkg/events"
	"github.com/nsyszr/quakedb/pkg/metrics"
	"github.com/nsyszr/quakedb/pkg/model"
	"github.com/nsyszr/quakedb/pkg/storage"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Service contains the dependencies shared by all operations
type Service struct {
	store   storage.Interface
	events  events.Publisher
	metrics *metrics.Metrics
}

// DeleteResult reports a bulk delete by network
type DeleteResult struct {
	Deleted   int
	Remaining int
}

// NewService creates a new earthquake service
func NewService(store storage.Interface, pub events.Publisher, m *metrics.Metrics) *Service {
	if pub == nil {
		pub = events.NewNopPublisher()
	}
	if m == nil {
		m = metrics.NewForTesting()
	}

	return &Service{
		store:   store,
		events:  pub,
		metrics: m,
	}
}

// Create validates the raw fields and stores a new record. It fails with
// storage.ErrDuplicateKey if the id is taken.
func (s *Service) Create(ctx context.Context, raw *RawEarthquake) (*model.Earthquake, error) {
	m, err := ParseEarthquake(raw)
	if err != nil {
		return nil, err
	}

	if err := s.Insert(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

// Insert stores an already typed record, e.g. one decoded from JSON
func (s *Service) Insert(ctx context.Context, m *model.Earthquake) error {
	if err := ValidateEarthquake(m); err != nil {
		return err
	}

	if err := s.store.Earthquakes().Create(ctx, m); err != nil {
		return err
	}
	s.metrics.Mutations.WithLabelValues("create").Inc()

	e := events.NewEvent(events.ActionCreated)
	e.ID = m.ID
	e.Network = m.Network
	s.publish(e)

	return nil
}

// Get returns the record stored under id
func (s *Service) Get(ctx context.Context, id string) (*model.Earthquake, error) {
	return s.store.Earthquakes().FindByID(ctx, id)
}

// FetchAll returns every record
func (s *Service) FetchAll(ctx context.Context) ([]model.Earthquake, error) {
	return s.store.Earthquakes().FetchAll(ctx)
}

// Update overwrites all fields of the record stored under lookupID. The id
// itself may change.
func (s *Service) Update(ctx context.Context, lookupID string, raw *RawEarthquake) (*model.Earthquake, error) {
	if _, err := s.store.Earthquakes().FindByID(ctx, lookupID); err != nil {
		return nil, err
	}

	m, err := ParseEarthquake(raw)
	if err != nil {
		return nil, err
	}

	if err := s.replace(ctx, lookupID, m); err != nil {
		return nil, err
	}

	return m, nil
}

// Replace overwrites the record stored under lookupID with an already typed
// record
func (s *Service) Replace(ctx context.Context, lookupID string, m *model.Earthquake) error {
	if _, err := s.store.Earthquakes().FindByID(ctx, lookupID); err != nil {
		return err
	}
	if err := ValidateEarthquake(m); err != nil {
		return err
	}

	return s.replace(ctx, lookupID, m)
}

func (s *Service) replace(ctx context.Context, lookupID string, m *model.Earthquake) error {
	if err := s.store.Earthquakes().Update(ctx, lookupID, m); err != nil {
		return err
	}
	s.metrics.Mutations.WithLabelValues("update").Inc()

	e := events.NewEvent(events.ActionUpdated)
	e.ID = m.ID
	e.Network = m.Network
	if m.ID != lookupID {
		e.PrevID = lookupID
	}
	s.publish(e)

	return nil
}

// Delete removes the record stored under id
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Earthquakes().Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.Mutations.WithLabelValues("delete").Inc()

	e := events.NewEvent(events.ActionDeleted)
	e.ID = id
	e.Count = 1
	s.publish(e)

	return nil
}

// DeleteByNetwork removes all records of a network. The counts are taken
// before and after the delete and are not atomic with it.
func (s *Service) DeleteByNetwork(ctx context.Context, network string) (*DeleteResult, error) {
	store := s.store.Earthquakes()

	before, err := store.CountByNetwork(ctx, network)
	if err != nil {
		return nil, err
	}
	if _, err := store.DeleteByNetwork(ctx, network); err != nil {
		return nil, err
	}
	after, err := store.Count(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.Mutations.WithLabelValues("delete_network").Add(float64(before))

	log.WithFields(log.Fields{
		"net":       network,
		"deleted":   before,
		"remaining": after,
	}).Info("Deleted earthquakes by network")

	e := events.NewEvent(events.ActionDeleted)
	e.Network = network
	e.Count = before
	s.publish(e)

	return &DeleteResult{Deleted: before, Remaining: after}, nil
}

// Search returns all records whose latitude lies within degrees of latitude.
// Both values are raw user input; invalid input fails with ErrInvalidInput
// before the store is queried.
func (s *Service) Search(ctx context.Context, latitude, degrees string) ([]model.Earthquake, error) {
	min, max, err := ParseSearch(latitude, degrees)
	if err != nil {
		return nil, err
	}

	models, err := s.store.Earthquakes().FindByLatitudeRange(ctx, min, max)
	if err != nil {
		return nil, err
	}
	s.metrics.SearchResults.Observe(float64(len(models)))

	return models, nil
}

func (s *Service) publish(e *events.Event) {
	if err := s.events.Publish(e); err != nil {
		log.WithFields(log.Fields{
			"action": e.Action,
			"id":     e.ID,
		}).Warn("quake: failed to publish event: ", err)
	}
}

// IsInvalidInput reports whether err was caused by rejected user input
func IsInvalidInput(err error) bool {
	return errors.Cause(err) == ErrInvalidInput
}
