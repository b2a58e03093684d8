package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/noah-isme/m3-catalog/pkg/config"
	"github.com/noah-isme/m3-catalog/pkg/jobs"
)

// Outgoing is one message waiting to be published.
type Outgoing struct {
	Topic     string
	Payload   interface{}
	RequestID string
}

type publisher interface {
	Publish(topic string, msgs ...*message.Message) error
}

// AsyncPublisher publishes in the background through a retrying job queue.
// Each attempt goes through a circuit breaker so a dead broker fails fast
// instead of tying up queue workers.
type AsyncPublisher struct {
	pub     publisher
	breaker *gobreaker.CircuitBreaker
	queue   *jobs.Queue[Outgoing]
	logger  *zap.Logger
}

// NewAsyncPublisher wires pub behind a breaker and a worker queue.
func NewAsyncPublisher(pub publisher, cfg config.EventsConfig, logger *zap.Logger) *AsyncPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &AsyncPublisher{pub: pub, logger: logger.Named("events")}
	p.breaker = gobreaker.NewCircuitBreaker(breakerSettings("bus-publisher", cfg, p.logger))
	p.queue = jobs.NewQueue("events", p.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return p
}

func breakerSettings(name string, cfg config.EventsConfig, logger *zap.Logger) gobreaker.Settings {
	minRequests := cfg.BreakerMinRequests
	if minRequests == 0 {
		minRequests = 5
	}
	failureRate := cfg.BreakerFailureRate
	if failureRate <= 0 {
		failureRate = 0.5
	}
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= failureRate
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	}
}

// Start launches the publishing workers.
func (p *AsyncPublisher) Start(ctx context.Context) {
	p.queue.Start(ctx)
}

// Stop waits for in-flight publishes to finish.
func (p *AsyncPublisher) Stop() {
	p.queue.Stop()
}

// Enqueue schedules out for publication without waiting. It returns
// jobs.ErrQueueFull when the backlog is full, so a stalled broker never
// holds up the caller.
func (p *AsyncPublisher) Enqueue(out Outgoing) error {
	return p.queue.TryEnqueue(out.Topic, out)
}

// PublishNow publishes synchronously through the breaker.
func (p *AsyncPublisher) PublishNow(out Outgoing) error {
	msg, err := NewMessage(out.Topic, out.Payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", out.Topic, err)
	}
	if out.RequestID != "" {
		msg.Metadata.Set(MetaRequestID, out.RequestID)
	}
	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.pub.Publish(out.Topic, msg)
	})
	return err
}

func (p *AsyncPublisher) handle(_ context.Context, job jobs.Job[Outgoing]) error {
	err := p.PublishNow(job.Payload)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		p.logger.Debug("publish short-circuited", zap.String("topic", job.Payload.Topic))
	}
	return err
}
