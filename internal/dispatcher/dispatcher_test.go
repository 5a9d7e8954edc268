package dispatcher

import (
	"context"
	"errors"
	"testing"

	"p2000-receiver/internal/metrics"
	"p2000-receiver/internal/models"
	"p2000-receiver/internal/router"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockSink struct {
	mock.Mock
	name string
}

func (m *MockSink) Name() string { return m.name }

func (m *MockSink) Send(ctx context.Context, sensor string, payload models.Payload) error {
	args := m.Called(ctx, sensor, payload)
	return args.Error(0)
}

type memoryJournal struct {
	entries []models.JournalEntry
}

func (j *memoryJournal) Record(_ context.Context, entry models.JournalEntry) error {
	j.entries = append(j.entries, entry)
	return nil
}

func testMessage() models.Message {
	return models.Message{
		ID:          "msg-1",
		Body:        "A1 Kerkstraat 1234AB Amsterdam",
		Capcodes:    []string{"000120901"},
		Receivers:   "BRW Amsterdam (000120901)",
		Disciplines: "Brandweer",
		Region:      "Amsterdam-Amstelland",
		Priority:    1,
		Address:     "Kerkstraat 1234AB Amsterdam",
		GeoStatus:   models.GeoNotAttempted,
	}
}

func TestProcess_FailingSinkDoesNotBlockOthers(t *testing.T) {
	r, err := router.New([]models.SensorConfig{
		{Name: "fire", FriendlyName: "Brandweer", Disciplines: []string{"Brandweer"}},
		{Name: "police", Disciplines: []string{"Politie"}},
	})
	require.NoError(t, err)

	failing := &MockSink{name: "homeassistant"}
	failing.On("Send", mock.Anything, "fire", mock.Anything).Return(errors.New("connection refused")).Once()
	working := &MockSink{name: "mqtt"}
	working.On("Send", mock.Anything, "fire", mock.MatchedBy(func(p models.Payload) bool {
		return p.State == "A1 Kerkstraat 1234AB Amsterdam" && p.Attributes.FriendlyName == "Brandweer"
	})).Return(nil).Once()

	journal := &memoryJournal{}
	m := metrics.New(prometheus.NewRegistry())
	d := New(r, []Sink{failing, working}, zap.NewNop(), WithJournal(journal), WithMetrics(m))

	decisions := d.Process(context.Background(), testMessage())

	require.Len(t, decisions, 2)
	assert.True(t, decisions[0].Post)
	assert.False(t, decisions[1].Post)
	failing.AssertExpectations(t)
	working.AssertExpectations(t)

	require.Len(t, journal.entries, 2)
	assert.Equal(t, models.DecisionPosted, journal.entries[0].Decision)
	assert.Equal(t, models.DecisionSkipped, journal.entries[1].Decision)
	assert.Equal(t, "discipline", journal.entries[1].Reason)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SinkErrors.WithLabelValues("homeassistant")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatch.WithLabelValues("fire", "posted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatch.WithLabelValues("police", "skipped")))
}

func TestBuildPayload(t *testing.T) {
	msg := testMessage()
	msg.GeoInfo = "enabled: true ratelimit: false gps-checked: true"
	km := 3.21

	p := BuildPayload(msg, models.SensorConfig{Name: "p2000"}, router.Decision{DistanceKm: &km})

	assert.Equal(t, msg.Body, p.State)
	assert.Equal(t, models.DefaultFriendlyName, p.Attributes.FriendlyName)
	assert.Equal(t, "msg-1", p.Attributes.MessageID)
	assert.Equal(t, msg.GeoInfo, p.Attributes.OpenCage)
	assert.Equal(t, &km, p.Attributes.Distance)
	assert.Equal(t, []string{"000120901"}, p.Attributes.Capcodes)
}
