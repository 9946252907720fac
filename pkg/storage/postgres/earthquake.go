package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/nsyszr/quakedb/pkg/model"
	"github.com/nsyszr/quakedb/pkg/storage"
	"github.com/pkg/errors"
)

// uniqueViolation is the SQLSTATE raised for a primary key conflict
const uniqueViolation = "23505"

func newEarthquakeStore(db *sqlx.DB) *earthquakeStore {
	return &earthquakeStore{
		db: db,
	}
}

type earthquakeStore struct {
	db *sqlx.DB
}

type sqlDataEarthquake struct {
	ID        string  `db:"id"`
	Time      string  `db:"time"`
	Latitude  float64 `db:"latitude"`
	Longitude float64 `db:"longitude"`
	Depth     float64 `db:"depth"`
	Magnitude float64 `db:"mag"`
	Network   string  `db:"net"`
}

// sqlDataEarthquakeUpdate carries the id the row is currently stored under
type sqlDataEarthquakeUpdate struct {
	sqlDataEarthquake
	LookupID string `db:"lookup_id"`
}

var sqlParamsEarthquake = []string{
	"id",
	"time",
	"latitude",
	"longitude",
	"depth",
	"mag",
	"net",
}

// sqlProjectionEarthquake is the column order used by every listing
const sqlProjectionEarthquake = "time, latitude, longitude, depth, mag, net, id"

func (d *sqlDataEarthquake) Scan(m *model.Earthquake) error {
	d.ID = m.ID
	d.Time = m.Time
	d.Latitude = m.Latitude
	d.Longitude = m.Longitude
	d.Depth = m.Depth
	d.Magnitude = m.Magnitude
	d.Network = m.Network

	return nil
}

func (d *sqlDataEarthquake) Model() (*model.Earthquake, error) {
	m := &model.Earthquake{
		ID:        d.ID,
		Time:      d.Time,
		Latitude:  d.Latitude,
		Longitude: d.Longitude,
		Depth:     d.Depth,
		Magnitude: d.Magnitude,
		Network:   d.Network,
	}

	return m, nil
}

func (s *earthquakeStore) FetchAll(ctx context.Context) ([]model.Earthquake, error) {
	query := fmt.Sprintf("SELECT %s FROM earthquakes", sqlProjectionEarthquake)
	return selectEarthquakes(ctx, s.db, query)
}

func (s *earthquakeStore) FindByID(ctx context.Context, id string) (*model.Earthquake, error) {
	return findEarthquakeByID(ctx, s.db, id)
}

func (s *earthquakeStore) FindByLatitudeRange(ctx context.Context, min, max float64) ([]model.Earthquake, error) {
	query := fmt.Sprintf("SELECT %s FROM earthquakes WHERE latitude BETWEEN $1 AND $2", sqlProjectionEarthquake)
	return selectEarthquakes(ctx, s.db, query, min, max)
}

func (s *earthquakeStore) Create(ctx context.Context, m *model.Earthquake) error {
	return createEarthquake(ctx, s.db, m)
}

func (s *earthquakeStore) CreateBatch(ctx context.Context, ms []model.Earthquake) ([]error, error) {
	return createEarthquakes(ctx, s.db, ms)
}

func (s *earthquakeStore) Update(ctx context.Context, id string, m *model.Earthquake) error {
	return updateEarthquake(ctx, s.db, id, m)
}

func (s *earthquakeStore) Delete(ctx context.Context, id string) error {
	n, err := execRowsAffected(ctx, s.db, "DELETE FROM earthquakes WHERE id=$1", id)
	if err != nil {
		return errors.Wrap(err, "failed to delete earthquake")
	}
	if n == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s *earthquakeStore) DeleteByNetwork(ctx context.Context, network string) (int64, error) {
	n, err := execRowsAffected(ctx, s.db, "DELETE FROM earthquakes WHERE net=$1", network)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete earthquakes by network")
	}

	return n, nil
}

func (s *earthquakeStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM earthquakes"); err != nil {
		return 0, errors.Wrap(err, "failed to count earthquakes")
	}

	return n, nil
}

func (s *earthquakeStore) CountByNetwork(ctx context.Context, network string) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM earthquakes WHERE net=$1", network); err != nil {
		return 0, errors.Wrap(err, "failed to count earthquakes by network")
	}

	return n, nil
}

func selectEarthquakes(ctx context.Context, db *sqlx.DB, query string, args ...interface{}) ([]model.Earthquake, error) {
	rows := make([]sqlDataEarthquake, 0)
	models := make([]model.Earthquake, 0)

	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to fetch earthquakes")
	}

	for _, d := range rows {
		m, err := d.Model()
		if err != nil {
			return nil, errors.Wrap(err, "failed to convert SQL data to earthquake model")
		}

		models = append(models, *m)
	}

	return models, nil
}

func findEarthquakeByID(ctx context.Context, db *sqlx.DB, id string) (*model.Earthquake, error) {
	d := sqlDataEarthquake{}
	query := fmt.Sprintf("SELECT %s FROM earthquakes WHERE id=$1", sqlProjectionEarthquake)
	if err := db.GetContext(ctx, &d, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find earthquake")
	}

	return d.Model()
}

func insertEarthquakeQuery() string {
	return fmt.Sprintf(
		"INSERT INTO earthquakes (%s) VALUES (%s)",
		strings.Join(sqlParamsEarthquake, ", "),
		":"+strings.Join(sqlParamsEarthquake, ", :"),
	)
}

func createEarthquake(ctx context.Context, db *sqlx.DB, m *model.Earthquake) error {
	d := sqlDataEarthquake{}
	if err := d.Scan(m); err != nil {
		return errors.Wrap(err, "failed to convert earthquake model to SQL data")
	}

	if _, err := db.NamedExecContext(ctx, insertEarthquakeQuery(), d); err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicateKey
		}
		return errors.Wrap(err, "failed to create earthquake")
	}

	return nil
}

// createEarthquakes inserts all rows in one transaction. Conflicting ids are
// skipped by the database so a duplicate never aborts the transaction.
func createEarthquakes(ctx context.Context, db *sqlx.DB, ms []model.Earthquake) ([]error, error) {
	errs := make([]error, len(ms))
	if len(ms) == 0 {
		return errs, nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	query := insertEarthquakeQuery() + " ON CONFLICT (id) DO NOTHING"
	for i := range ms {
		d := sqlDataEarthquake{}
		if err := d.Scan(&ms[i]); err != nil {
			return nil, errors.Wrap(err, "failed to convert earthquake model to SQL data")
		}

		res, err := tx.NamedExecContext(ctx, query, d)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create earthquake %s", ms[i].ID)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, errors.Wrap(err, "failed to read affected rows")
		}
		if n == 0 {
			errs[i] = storage.ErrDuplicateKey
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit earthquakes")
	}

	return errs, nil
}

func updateEarthquake(ctx context.Context, db *sqlx.DB, id string, m *model.Earthquake) error {
	if _, err := findEarthquakeByID(ctx, db, id); err != nil {
		return err
	}

	d := sqlDataEarthquakeUpdate{LookupID: id}
	if err := d.Scan(m); err != nil {
		return errors.Wrap(err, "failed to convert earthquake model to SQL data")
	}

	var queryParams []string
	for _, param := range sqlParamsEarthquake {
		queryParams = append(queryParams, fmt.Sprintf("%s=:%s", param, param))
	}
	query := fmt.Sprintf("UPDATE earthquakes SET %s WHERE id=:lookup_id", strings.Join(queryParams, ", "))
	if _, err := db.NamedExecContext(ctx, query, d); err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicateKey
		}
		return errors.Wrap(err, "failed to update earthquake")
	}

	return nil
}

func execRowsAffected(ctx context.Context, db *sqlx.DB, query string, args ...interface{}) (int64, error) {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func isUniqueViolation(err error) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && pqErr.Code == uniqueViolation
}
