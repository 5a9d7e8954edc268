package models

import "time"

// RawLine is one recognised decoder line.
type RawLine struct {
	Timestamp string   // UTC, "2006-01-02 15:04:05"
	GroupID   string   // e.g. "10.120"
	Capcodes  []string // in transmission order
	Body      string
	Raw       string // trimmed original line
}

// GeoStatus is the outcome of a geocoding attempt.
type GeoStatus string

const (
	GeoNotAttempted GeoStatus = "not-attempted"
	GeoCacheHit     GeoStatus = "cache-hit"
	GeoResolved     GeoStatus = "resolved"
	GeoResolvedNone GeoStatus = "resolved-empty"
	GeoRateLimited  GeoStatus = "rate-limited"
	GeoFailed       GeoStatus = "failed"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Message is the enriched, aggregated unit that is dispatched to sensors.
// Body is the aggregation key.
type Message struct {
	ID             string
	ReceivedAt     time.Time // last arrival, monotonic reading included
	LocalTimestamp string
	GroupID        string
	Capcodes       []string
	Receivers      string
	Disciplines    string
	Remarks        string
	Body           string
	Raw            string
	Priority       int

	Region     string
	Location   string
	Street     string
	PostalCode string
	City       string
	Address    string

	Latitude  *float64
	Longitude *float64
	MapURL    string
	GeoStatus GeoStatus
	GeoInfo   string

	Posted bool
}

// HasCoordinates reports whether both latitude and longitude are known.
func (m *Message) HasCoordinates() bool {
	return m.Latitude != nil && m.Longitude != nil
}

// Coordinates returns the message position; ok is false when unknown.
func (m *Message) Coordinates() (Coordinates, bool) {
	if !m.HasCoordinates() {
		return Coordinates{}, false
	}
	return Coordinates{Latitude: *m.Latitude, Longitude: *m.Longitude}, true
}

// Clone returns a deep copy that is safe to use outside the recent buffer.
func (m *Message) Clone() Message {
	c := *m
	c.Capcodes = append([]string(nil), m.Capcodes...)
	if m.Latitude != nil {
		lat := *m.Latitude
		c.Latitude = &lat
	}
	if m.Longitude != nil {
		lng := *m.Longitude
		c.Longitude = &lng
	}
	return c
}
