package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/jay1247sjh/smartmall-governance-api/internal/models"
	"github.com/jay1247sjh/smartmall-governance-api/pkg/jobs"
)

type eventPublisher interface {
	PublishEvent(ctx context.Context, channel string, payload []byte) error
}

// EventNotifier fans governance events out to interested viewers over the
// redis channel. Delivery is fire-and-forget: enqueue failures are logged and
// dropped, never propagated back into the mutation path.
type EventNotifier struct {
	queue   *jobs.Queue
	logger  *zap.Logger
	channel string
}

// NewEventNotifier wires the notifier to its publisher and starts nothing;
// call Start before use and Stop on shutdown.
func NewEventNotifier(publisher eventPublisher, channel string, workers, bufferSize int, logger *zap.Logger) *EventNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &EventNotifier{logger: logger, channel: channel}
	n.queue = jobs.NewQueue("governance-events", func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.([]byte)
		if !ok {
			return nil
		}
		return publisher.PublishEvent(ctx, channel, payload)
	}, jobs.QueueConfig{Workers: workers, BufferSize: bufferSize, Logger: logger})
	return n
}

// Start launches the delivery workers.
func (n *EventNotifier) Start(ctx context.Context) {
	n.queue.Start(ctx)
}

// Stop drains the workers.
func (n *EventNotifier) Stop() {
	n.queue.Stop()
}

// Notify enqueues a domain event for asynchronous delivery.
func (n *EventNotifier) Notify(event models.DomainEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Sugar().Errorw("marshal domain event", "type", event.Type, "error", err)
		return
	}
	if err := n.queue.Enqueue(jobs.Job{Type: string(event.Type), Payload: payload}); err != nil {
		n.logger.Sugar().Warnw("drop domain event", "type", event.Type, "error", err)
	}
}

// EventSink abstracts the notifier for services; a no-op sink keeps tests
// silent.
type EventSink interface {
	Notify(event models.DomainEvent)
}

// NopSink discards every event.
type NopSink struct{}

// Notify implements EventSink.
func (NopSink) Notify(models.DomainEvent) {}
