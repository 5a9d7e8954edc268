package router

import (
	"testing"

	"p2000-receiver/internal/config"
	"p2000-receiver/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func testMessage() *models.Message {
	return &models.Message{
		Body:        "A1 Kerkstraat 1234AB Amsterdam",
		Capcodes:    []string{"000120901", "001420059"},
		Region:      "Amsterdam-Amstelland",
		Disciplines: "Brandweer, Ambulance",
		Latitude:    ptr(52.04503), // 5.01 km north of the test home point
		Longitude:   ptr(5.0),
	}
}

func evaluate(t *testing.T, cfg models.SensorConfig, msg *models.Message) Decision {
	t.Helper()
	s, err := NewSensor(cfg)
	require.NoError(t, err)
	return s.Evaluate(msg)
}

func TestEvaluate_RadiusGateRejectsBeforeFilters(t *testing.T) {
	d := evaluate(t, models.SensorConfig{
		Name:     "home",
		Home:     &models.Coordinates{Latitude: 52.0, Longitude: 5.0},
		RadiusKm: ptr(5),
		Keywords: []string{"*Amsterdam*"},
		Capcodes: []string{"*"},
	}, testMessage())

	assert.False(t, d.Post)
	assert.Equal(t, ReasonOutsideRadius, d.Reason)
	require.NotNil(t, d.DistanceKm)
	assert.Equal(t, 5.01, *d.DistanceKm)
}

func TestEvaluate_InsideRadiusPosts(t *testing.T) {
	msg := testMessage()
	msg.Latitude = ptr(52.0449)

	d := evaluate(t, models.SensorConfig{
		Name:     "home",
		Home:     &models.Coordinates{Latitude: 52.0, Longitude: 5.0},
		RadiusKm: ptr(5),
	}, msg)

	assert.True(t, d.Post)
	require.NotNil(t, d.DistanceKm)
}

func TestEvaluate_RadiusWithoutCoordinatesNeedsAnotherCriterion(t *testing.T) {
	msg := testMessage()
	msg.Latitude, msg.Longitude = nil, nil
	cfg := models.SensorConfig{
		Name:     "home",
		Home:     &models.Coordinates{Latitude: 52.0, Longitude: 5.0},
		RadiusKm: ptr(5),
	}

	d := evaluate(t, cfg, msg)
	assert.False(t, d.Post)
	assert.Equal(t, ReasonNoCriteria, d.Reason)
	assert.Nil(t, d.DistanceKm)

	cfg.Regions = []string{"Amsterdam*"}
	assert.True(t, evaluate(t, cfg, msg).Post)
}

func TestEvaluate_Filters(t *testing.T) {
	tests := []struct {
		name   string
		cfg    models.SensorConfig
		post   bool
		reason string
	}{
		{"nothing declared", models.SensorConfig{}, false, ReasonNoCriteria},
		{"keyword", models.SensorConfig{Keywords: []string{"A1*"}}, true, ReasonKeyword},
		{"keyword miss", models.SensorConfig{Keywords: []string{"A2*"}}, false, ReasonKeyword},
		{"keyword is whole text", models.SensorConfig{Keywords: []string{"Kerkstraat"}}, false, ReasonKeyword},
		{"region", models.SensorConfig{Regions: []string{"Amsterdam-*"}}, true, ReasonRegion},
		{"capcode any", models.SensorConfig{Capcodes: []string{"0014200[5-6]?"}}, true, ReasonCapcode},
		{"capcode miss", models.SensorConfig{Capcodes: []string{"0009*"}}, false, ReasonCapcode},
		{"discipline", models.SensorConfig{Disciplines: []string{"*Ambulance*"}}, true, ReasonDiscipline},
		{"declared empty rejects", models.SensorConfig{Regions: []string{}}, false, ReasonRegion},
		{"declared empty keyword rejects", models.SensorConfig{Keywords: []string{}}, false, ReasonKeyword},
		{"declared empty capcode rejects", models.SensorConfig{Capcodes: []string{}}, false, ReasonCapcode},
		{"declared empty string", models.SensorConfig{Regions: []string{""}}, false, ReasonRegion},
		{"later miss rejects", models.SensorConfig{Keywords: []string{"A1*"}, Disciplines: []string{"Politie"}}, false, ReasonDiscipline},
		{"all match", models.SensorConfig{Keywords: []string{"A1*"}, Regions: []string{"*"}, Capcodes: []string{"000120901"}, Disciplines: []string{"Brandweer*"}}, true, ReasonDiscipline},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Name = "s"
			d := evaluate(t, tt.cfg, testMessage())
			assert.Equal(t, tt.post, d.Post)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestRouter_RouteEvaluatesEverySensor(t *testing.T) {
	r, err := New([]models.SensorConfig{
		{Name: "fire", Disciplines: []string{"Brandweer*"}},
		{Name: "police", Disciplines: []string{"Politie*"}},
	})
	require.NoError(t, err)

	decisions := r.Route(testMessage())
	require.Len(t, decisions, 2)
	assert.Equal(t, "fire", decisions[0].Sensor)
	assert.True(t, decisions[0].Post)
	assert.Equal(t, "police", decisions[1].Sensor)
	assert.False(t, decisions[1].Post)
}

func TestEvaluate_EmptyListFromSensorsFileIsNotAcceptAny(t *testing.T) {
	sensors, err := config.ParseSensors([]byte("sensors:\n  - name: strict\n    search_keyword: []\n"))
	require.NoError(t, err)
	require.Len(t, sensors, 1)

	msg := testMessage()
	msg.Body = "totally unrelated"
	d := evaluate(t, sensors[0], msg)

	assert.False(t, d.Post)
	assert.Equal(t, ReasonKeyword, d.Reason)
}
