// Package router decides, per sensor, whether a finished message is posted.
package router

import (
	"fmt"

	"p2000-receiver/internal/geo"
	"p2000-receiver/internal/match"
	"p2000-receiver/internal/models"
)

// Reasons recorded for a decision.
const (
	ReasonOutsideRadius = "outside radius"
	ReasonKeyword       = "keyword"
	ReasonRegion        = "region"
	ReasonCapcode       = "capcode"
	ReasonDiscipline    = "discipline"
	ReasonNoCriteria    = "no post criteria"
)

// Decision is the routing outcome for one sensor.
type Decision struct {
	Sensor string
	Post   bool
	// Reason names the criterion that rejected the message, or the last
	// criterion that matched when Post is true.
	Reason     string
	DistanceKm *float64
}

// Sensor is a SensorConfig with compiled filters.
type Sensor struct {
	Config      models.SensorConfig
	keywords    *match.Patterns
	capcodes    *match.Patterns
	regions     *match.Patterns
	disciplines *match.Patterns
}

// NewSensor compiles the filters of cfg. Undeclared categories stay nil.
func NewSensor(cfg models.SensorConfig) (*Sensor, error) {
	s := &Sensor{Config: cfg}
	var err error
	if s.keywords, err = compile(cfg.Keywords); err != nil {
		return nil, fmt.Errorf("sensor %s keyword: %w", cfg.Name, err)
	}
	if s.capcodes, err = compile(cfg.Capcodes); err != nil {
		return nil, fmt.Errorf("sensor %s capcode: %w", cfg.Name, err)
	}
	if s.regions, err = compile(cfg.Regions); err != nil {
		return nil, fmt.Errorf("sensor %s region: %w", cfg.Name, err)
	}
	if s.disciplines, err = compile(cfg.Disciplines); err != nil {
		return nil, fmt.Errorf("sensor %s discipline: %w", cfg.Name, err)
	}
	return s, nil
}

func compile(patterns []string) (*match.Patterns, error) {
	if patterns == nil {
		return nil, nil
	}
	if len(patterns) == 0 {
		// declared but empty: only an empty field matches
		patterns = []string{""}
	}
	return match.Compile(patterns)
}

// Name returns the sensor name.
func (s *Sensor) Name() string {
	return s.Config.Name
}

// Evaluate applies the radius gate and the declared filters in order.
func (s *Sensor) Evaluate(msg *models.Message) Decision {
	d := Decision{Sensor: s.Config.Name}

	if s.Config.HasRadius() {
		if pos, ok := msg.Coordinates(); ok {
			km := geo.DistanceKm(*s.Config.Home, pos)
			d.DistanceKm = &km
			if km > *s.Config.RadiusKm {
				d.Reason = ReasonOutsideRadius
				return d
			}
			d.Post = true
			d.Reason = "radius"
		}
	}

	checks := []struct {
		reason   string
		patterns *match.Patterns
		matches  func(p *match.Patterns) bool
	}{
		{ReasonKeyword, s.keywords, func(p *match.Patterns) bool { return p.Match(msg.Body) }},
		{ReasonRegion, s.regions, func(p *match.Patterns) bool { return p.Match(msg.Region) }},
		{ReasonCapcode, s.capcodes, func(p *match.Patterns) bool { return p.MatchAny(msg.Capcodes) }},
		{ReasonDiscipline, s.disciplines, func(p *match.Patterns) bool { return p.Match(msg.Disciplines) }},
	}
	for _, c := range checks {
		if c.patterns == nil {
			continue
		}
		if !c.matches(c.patterns) {
			d.Post = false
			d.Reason = c.reason
			return d
		}
		d.Post = true
		d.Reason = c.reason
	}

	if !d.Post {
		d.Reason = ReasonNoCriteria
	}
	return d
}

// Router evaluates every sensor.
type Router struct {
	sensors []*Sensor
}

// New compiles all sensors.
func New(configs []models.SensorConfig) (*Router, error) {
	r := &Router{sensors: make([]*Sensor, 0, len(configs))}
	for _, cfg := range configs {
		s, err := NewSensor(cfg)
		if err != nil {
			return nil, err
		}
		r.sensors = append(r.sensors, s)
	}
	return r, nil
}

// Sensors returns the compiled sensors in configuration order.
func (r *Router) Sensors() []*Sensor {
	return r.sensors
}

// Route evaluates msg against every sensor.
func (r *Router) Route(msg *models.Message) []Decision {
	out := make([]Decision, 0, len(r.sensors))
	for _, s := range r.sensors {
		out = append(out, s.Evaluate(msg))
	}
	return out
}
