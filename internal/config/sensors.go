package config

import (
	"fmt"
	"os"
	"strings"

	"p2000-receiver/internal/models"

	"gopkg.in/yaml.v3"
)

// filterList accepts a YAML sequence or a comma separated scalar.
// A key that is absent or null stays nil (category not declared).
type filterList []string

func (f *filterList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		out := make(filterList, 0, len(items))
		for _, item := range items {
			out = append(out, strings.TrimSpace(item))
		}
		*f = out
	case yaml.ScalarNode:
		parts := strings.Split(value.Value, ",")
		out := make(filterList, 0, len(parts))
		for _, p := range parts {
			out = append(out, strings.TrimSpace(p))
		}
		*f = out
	default:
		return fmt.Errorf("line %d: filter must be a list or a comma separated string", value.Line)
	}
	return nil
}

type sensorEntry struct {
	Name             string     `yaml:"name"`
	FriendlyName     string     `yaml:"friendly_name"`
	ZoneLatitude     *float64   `yaml:"zone_latitude"`
	ZoneLongitude    *float64   `yaml:"zone_longitude"`
	ZoneRadius       *float64   `yaml:"zone_radius"`
	SearchKeyword    filterList `yaml:"search_keyword"`
	SearchCapcode    filterList `yaml:"search_capcode"`
	SearchRegion     filterList `yaml:"search_region"`
	SearchDiscipline filterList `yaml:"search_discipline"`
}

type sensorsFile struct {
	Sensors []sensorEntry `yaml:"sensors"`
}

// LoadSensors reads the sensor definitions from a YAML file.
func LoadSensors(path string) ([]models.SensorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sensors file: %w", err)
	}
	return ParseSensors(data)
}

// ParseSensors decodes and validates sensor definitions.
func ParseSensors(data []byte) ([]models.SensorConfig, error) {
	var file sensorsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse sensors file: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Sensors))
	out := make([]models.SensorConfig, 0, len(file.Sensors))
	for i, e := range file.Sensors {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("sensor %d: name is required", i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("sensor %s: duplicate name", name)
		}
		seen[name] = struct{}{}

		cfg := models.SensorConfig{
			Name:         name,
			FriendlyName: e.FriendlyName,
			Keywords:     e.SearchKeyword,
			Capcodes:     e.SearchCapcode,
			Regions:      e.SearchRegion,
			Disciplines:  e.SearchDiscipline,
		}
		if cfg.FriendlyName == "" {
			cfg.FriendlyName = models.DefaultFriendlyName
		}

		if e.ZoneLatitude != nil && e.ZoneLongitude != nil {
			cfg.Home = &models.Coordinates{Latitude: *e.ZoneLatitude, Longitude: *e.ZoneLongitude}
		}
		if e.ZoneRadius != nil {
			if cfg.Home == nil {
				return nil, fmt.Errorf("sensor %s: zone_radius needs zone_latitude and zone_longitude", name)
			}
			if *e.ZoneRadius < 0 {
				return nil, fmt.Errorf("sensor %s: zone_radius must not be negative", name)
			}
			radius := *e.ZoneRadius
			cfg.RadiusKm = &radius
		}

		out = append(out, cfg)
	}
	return out, nil
}
