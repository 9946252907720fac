package model

// Earthquake is a model of the persistency layer
type Earthquake struct {
	ID        string
	Time      string
	Latitude  float64
	Longitude float64
	Depth     float64
	Magnitude float64
	Network   string
}
