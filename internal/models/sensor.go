package models

// DefaultFriendlyName is used when a sensor does not set one.
const DefaultFriendlyName = "P2000-SDR"

// SensorConfig describes one output consumer.
// A nil filter slice means the category is not declared for the sensor;
// a non-nil empty slice is declared and matches only the empty string.
type SensorConfig struct {
	Name         string
	FriendlyName string
	Home         *Coordinates
	RadiusKm     *float64

	Keywords    []string
	Capcodes    []string
	Regions     []string
	Disciplines []string
}

// HasRadius reports whether the sensor is geofenced.
func (s *SensorConfig) HasRadius() bool {
	return s.RadiusKm != nil && s.Home != nil
}
