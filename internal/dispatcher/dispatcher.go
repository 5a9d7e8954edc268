// Package dispatcher routes settled messages to the configured sensors and
// delivers the accepted ones to every sink.
package dispatcher

import (
	"context"

	"p2000-receiver/internal/metrics"
	"p2000-receiver/internal/models"
	"p2000-receiver/internal/router"

	"go.uber.org/zap"
)

// Journal records routing decisions.
type Journal interface {
	Record(ctx context.Context, entry models.JournalEntry) error
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithJournal records every decision in j.
func WithJournal(j Journal) Option {
	return func(d *Dispatcher) { d.journal = j }
}

// WithMetrics counts decisions and sink failures.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// Dispatcher evaluates sensors and fans payloads out to sinks.
type Dispatcher struct {
	router  *router.Router
	sinks   []Sink
	journal Journal
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// New creates a Dispatcher.
func New(r *router.Router, sinks []Sink, logger *zap.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		router: r,
		sinks:  sinks,
		logger: logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Process routes msg to every sensor. Sink and journal failures are logged
// and never returned; every sink is attempted once per accepted sensor.
func (d *Dispatcher) Process(ctx context.Context, msg models.Message) []router.Decision {
	decisions := make([]router.Decision, 0, len(d.router.Sensors()))

	for _, sensor := range d.router.Sensors() {
		decision := sensor.Evaluate(&msg)
		decisions = append(decisions, decision)

		result := models.DecisionSkipped
		if decision.Post {
			result = models.DecisionPosted
		}
		d.metrics.Decision(sensor.Name(), result)
		d.record(ctx, msg, decision, result)

		if !decision.Post {
			d.logger.Debug("Message ignored for sensor",
				zap.String("sensor", sensor.Name()),
				zap.String("body", msg.Body),
				zap.String("reason", decision.Reason),
			)
			continue
		}

		payload := BuildPayload(msg, sensor.Config, decision)
		for _, sink := range d.sinks {
			if err := sink.Send(ctx, sensor.Name(), payload); err != nil {
				d.metrics.SinkError(sink.Name())
				d.logger.Error("Failed to deliver message",
					zap.String("sink", sink.Name()),
					zap.String("sensor", sensor.Name()),
					zap.String("message_id", msg.ID),
					zap.Error(err),
				)
				continue
			}
			d.logger.Debug("Message delivered",
				zap.String("sink", sink.Name()),
				zap.String("sensor", sensor.Name()),
				zap.String("message_id", msg.ID),
			)
		}

		d.logger.Info("Message posted for sensor",
			zap.String("sensor", sensor.Name()),
			zap.String("body", msg.Body),
			zap.String("reason", decision.Reason),
		)
	}

	return decisions
}

func (d *Dispatcher) record(ctx context.Context, msg models.Message, decision router.Decision, result string) {
	if d.journal == nil {
		return
	}
	err := d.journal.Record(ctx, models.JournalEntry{
		MessageID: msg.ID,
		Sensor:    decision.Sensor,
		Decision:  result,
		Reason:    decision.Reason,
		Body:      msg.Body,
		Region:    msg.Region,
		MapURL:    msg.MapURL,
	})
	if err != nil {
		d.logger.Warn("Failed to journal decision", zap.String("sensor", decision.Sensor), zap.Error(err))
	}
}
