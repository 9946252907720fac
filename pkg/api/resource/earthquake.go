package resource

import (
	"github.com/nsyszr/quakedb/pkg/model"
)

type EarthquakeResource struct {
	ID        string  `json:"id"`
	Time      string  `json:"time"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Depth     float64 `json:"depth"`
	Magnitude float64 `json:"mag"`
	Network   string  `json:"net"`
}

type EarthquakeListResource struct {
	Members []*EarthquakeResource `json:"members"`
}

func NewEarthquake(m *model.Earthquake) *EarthquakeResource {
	return &EarthquakeResource{
		ID:        m.ID,
		Time:      m.Time,
		Latitude:  m.Latitude,
		Longitude: m.Longitude,
		Depth:     m.Depth,
		Magnitude: m.Magnitude,
		Network:   m.Network,
	}
}

// NewEarthquakeList keeps the order of the store
func NewEarthquakeList(m []model.Earthquake) (out *EarthquakeListResource) {
	out = &EarthquakeListResource{
		Members: make([]*EarthquakeResource, 0, len(m)),
	}

	for i := range m {
		out.Members = append(out.Members, NewEarthquake(&m[i]))
	}

	return // out
}

// Model converts the resource. Validation happens in the service.
func (r *EarthquakeResource) Model() *model.Earthquake {
	return &model.Earthquake{
		ID:        r.ID,
		Time:      r.Time,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Depth:     r.Depth,
		Magnitude: r.Magnitude,
		Network:   r.Network,
	}
}
