package pipeline

import (
	"context"
	"time"

	"p2000-receiver/internal/aggregator"
	"p2000-receiver/internal/models"
	"p2000-receiver/internal/router"

	"go.uber.org/zap"
)

// Processor routes one message to the sensors.
type Processor interface {
	Process(ctx context.Context, msg models.Message) []router.Decision
}

// DispatchLoop periodically claims settled messages and processes them.
type DispatchLoop struct {
	buffer    *aggregator.Buffer
	processor Processor
	interval  time.Duration
	settle    time.Duration
	logger    *zap.Logger
}

// NewDispatchLoop creates a loop that runs every interval and claims messages
// that have not been merged into for settle.
func NewDispatchLoop(buffer *aggregator.Buffer, processor Processor, interval, settle time.Duration, logger *zap.Logger) *DispatchLoop {
	if interval <= 0 {
		interval = time.Second
	}
	return &DispatchLoop{
		buffer:    buffer,
		processor: processor,
		interval:  interval,
		settle:    settle,
		logger:    logger,
	}
}

// Start blocks until ctx is cancelled.
func (l *DispatchLoop) Start(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.DispatchPending(ctx)
		}
	}
}

// DispatchPending processes every settled message once and returns how many
// were handled.
func (l *DispatchLoop) DispatchPending(ctx context.Context) int {
	pending := l.buffer.Claim(l.settle)
	for _, msg := range pending {
		decisions := l.processor.Process(ctx, msg)
		posted := 0
		for _, d := range decisions {
			if d.Post {
				posted++
			}
		}
		l.logger.Info("Message dispatched",
			zap.String("message_id", msg.ID),
			zap.String("body", msg.Body),
			zap.Int("sensors", len(decisions)),
			zap.Int("posted", posted),
		)
	}
	return len(pending)
}
