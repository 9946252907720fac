package quake

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nsyszr/quakedb/pkg/model"
)

// RawEarthquake holds the unparsed fields of a form submission or a CSV row
type RawEarthquake struct {
	ID        string `json:"id" form:"id"`
	Time      string `json:"time" form:"time"`
	Latitude  string `json:"latitude" form:"latitude"`
	Longitude string `json:"longitude" form:"longitude"`
	Depth     string `json:"depth" form:"depth"`
	Magnitude string `json:"mag" form:"mag"`
	Network   string `json:"net" form:"net"`
}

// ParseEarthquake converts the raw fields into a validated model
func ParseEarthquake(r *RawEarthquake) (*model.Earthquake, error) {
	if strings.TrimSpace(r.ID) == "" {
		return nil, invalidInput("id is required")
	}

	m := &model.Earthquake{
		ID:      r.ID,
		Time:    r.Time,
		Network: r.Network,
	}

	fields := []struct {
		name  string
		value string
		dst   *float64
	}{
		{"latitude", r.Latitude, &m.Latitude},
		{"longitude", r.Longitude, &m.Longitude},
		{"depth", r.Depth, &m.Depth},
		{"mag", r.Magnitude, &m.Magnitude},
	}
	for _, f := range fields {
		v, err := parseFloat(f.name, f.value)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	if err := ValidateEarthquake(m); err != nil {
		return nil, err
	}

	return m, nil
}

// ValidateEarthquake checks that all fields of m are set and its numbers are
// finite
func ValidateEarthquake(m *model.Earthquake) error {
	if strings.TrimSpace(m.ID) == "" {
		return invalidInput("id is required")
	}
	if strings.TrimSpace(m.Time) == "" {
		return invalidInput("time is required")
	}

	numbers := []struct {
		name  string
		value float64
	}{
		{"latitude", m.Latitude},
		{"longitude", m.Longitude},
		{"depth", m.Depth},
		{"mag", m.Magnitude},
	}
	for _, n := range numbers {
		if math.IsNaN(n.value) || math.IsInf(n.value, 0) {
			return invalidInput("%s must be a finite number", n.name)
		}
	}

	if strings.TrimSpace(m.Network) == "" {
		return invalidInput("net is required")
	}

	texts := []struct {
		name  string
		value string
	}{
		{"id", m.ID},
		{"time", m.Time},
		{"net", m.Network},
	}
	for _, f := range texts {
		if !storableText(f.value) {
			return invalidInput("%s must be valid UTF-8 text without NUL bytes", f.name)
		}
	}

	return nil
}

// storableText reports whether s can be stored in a TEXT column
func storableText(s string) bool {
	return utf8.ValidString(s) && !strings.ContainsRune(s, 0)
}

// ParseSearch returns the inclusive latitude bounds around latitude
func ParseSearch(latitude, degrees string) (min, max float64, err error) {
	lat, err := parseFloat("latitude", latitude)
	if err != nil {
		return 0, 0, invalidInput(MsgInvalidSearch)
	}
	deg, err := parseFloat("degrees", degrees)
	if err != nil || deg < 0 {
		return 0, 0, invalidInput(MsgInvalidSearch)
	}

	return lat - deg, lat + deg, nil
}

func parseFloat(name, value string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, invalidInput("could not convert %s to float: %q", name, value)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, invalidInput("%s must be a finite number, got %q", name, value)
	}

	return v, nil
}
