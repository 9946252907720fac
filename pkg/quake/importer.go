package quake

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nsyszr/quakedb/pkg/events"
	"github.com/nsyszr/quakedb/pkg/model"
	"github.com/nsyszr/quakedb/pkg/storage"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// CSVContentType is the only content type accepted for uploads
const CSVContentType = "text/csv"

// CSVColumns are the header names the importer reads
var CSVColumns = []string{"id", "time", "latitude", "longitude", "depth", "mag", "net"}

// ImportReport is the outcome of a bulk import
type ImportReport struct {
	Imported int      `json:"imported"`
	Errors   []string `json:"errors"`
}

// CheckUpload rejects an upload before any of its rows is read
func CheckUpload(filename, contentType string) error {
	if filename == "" {
		return ErrEmptyUpload
	}
	if contentType != CSVContentType {
		return ErrInvalidFileType
	}
	return nil
}

// Import reads CSV rows from r and stores every valid row. Rows failing
// validation or carrying a taken id are reported and skipped, the valid rows
// are committed together. An error is only returned when the file itself is
// unusable or the store failed, in which case nothing was stored.
func (s *Service) Import(ctx context.Context, r io.Reader) (*ImportReport, error) {
	start := time.Now()

	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}

	// One message slot per row keeps the report in file order
	messages := make([]string, len(rows))
	valid := make([]model.Earthquake, 0, len(rows))
	positions := make([]int, 0, len(rows))

	for i := range rows {
		m, err := ParseEarthquake(&rows[i])
		if err != nil {
			messages[i] = rowError(rows[i].ID, err)
			continue
		}
		valid = append(valid, *m)
		positions = append(positions, i)
	}

	errs, err := s.store.Earthquakes().CreateBatch(ctx, valid)
	if err != nil {
		return nil, errors.Wrap(err, "failed to store imported earthquakes")
	}

	report := &ImportReport{Errors: make([]string, 0)}
	for j, err := range errs {
		switch {
		case err == nil:
			report.Imported++
		case errors.Cause(err) == storage.ErrDuplicateKey:
			messages[positions[j]] = fmt.Sprintf("Error: ID %s already exists.", valid[j].ID)
		default:
			messages[positions[j]] = rowError(valid[j].ID, err)
		}
	}
	for _, msg := range messages {
		if msg != "" {
			report.Errors = append(report.Errors, msg)
		}
	}

	s.metrics.ImportedRows.Add(float64(report.Imported))
	s.metrics.RejectedRows.Add(float64(len(report.Errors)))
	s.metrics.ImportDuration.Observe(time.Since(start).Seconds())

	log.WithFields(log.Fields{
		"rows":     len(rows),
		"imported": report.Imported,
		"rejected": len(report.Errors),
	}).Info("Imported earthquakes from CSV")

	if report.Imported > 0 {
		e := events.NewEvent(events.ActionImported)
		e.Count = report.Imported
		s.publish(e)
	}

	return report, nil
}

func rowError(id string, err error) string {
	return fmt.Sprintf("Error processing row %s: %s", id, err.Error())
}

// readRows maps every data row onto the CSV columns by header name. Missing
// trailing fields are left empty and fail validation later.
func readRows(r io.Reader) ([]RawEarthquake, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, invalidInput("malformed CSV header: %s", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, col := range CSVColumns {
		if _, ok := index[col]; !ok {
			return nil, invalidInput("missing CSV column %q", col)
		}
	}

	rows := make([]RawEarthquake, 0)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, invalidInput("malformed CSV: %s", err)
		}

		field := func(col string) string {
			if i := index[col]; i < len(record) {
				return record[i]
			}
			return ""
		}
		rows = append(rows, RawEarthquake{
			ID:        field("id"),
			Time:      field("time"),
			Latitude:  field("latitude"),
			Longitude: field("longitude"),
			Depth:     field("depth"),
			Magnitude: field("mag"),
			Network:   field("net"),
		})
	}

	return rows, nil
}
