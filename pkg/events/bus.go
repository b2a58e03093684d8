// Package events carries the catalog's collaborator messaging: media-created
// notifications going out and tag suggestions coming in. Backends are
// pluggable watermill publisher/subscriber pairs selected by configuration.
package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"

	"github.com/noah-isme/m3-catalog/pkg/config"
)

// Factory builds the publisher/subscriber pair for one backend.
type Factory func(ctx context.Context, cfg *config.Config, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{}
)

// RegisterFactory registers the factory for a bus type.
func RegisterFactory(busType string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[busType] = f
}

func lookupFactory(busType string) (Factory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	f, ok := factories[busType]
	return f, ok
}

// Bus wraps a watermill publisher and subscriber.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     watermill.LoggerAdapter
}

// New initialises the bus backend named by cfg.Bus.Type.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Bus, error) {
	factory, ok := lookupFactory(cfg.Bus.Type)
	if !ok {
		return nil, fmt.Errorf("unsupported bus type: %q", cfg.Bus.Type)
	}
	adapter := NewLoggerAdapter(logger)
	pub, sub, err := factory(ctx, cfg, adapter)
	if err != nil {
		return nil, fmt.Errorf("init bus (%s): %w", cfg.Bus.Type, err)
	}
	adapter.Info("bus initialised", watermill.LogFields{"type": cfg.Bus.Type})
	return &Bus{publisher: pub, subscriber: sub, logger: adapter}, nil
}

// NewWith builds a bus over an existing publisher and subscriber.
func NewWith(pub message.Publisher, sub message.Subscriber, logger *zap.Logger) *Bus {
	return &Bus{publisher: pub, subscriber: sub, logger: NewLoggerAdapter(logger)}
}

// Publisher exposes the underlying publisher.
func (b *Bus) Publisher() message.Publisher {
	return b.publisher
}

// Logger exposes the watermill logger adapter.
func (b *Bus) Logger() watermill.LoggerAdapter {
	return b.logger
}

// Publish sends msgs on topic.
func (b *Bus) Publish(topic string, msgs ...*message.Message) error {
	if b == nil || b.publisher == nil {
		return fmt.Errorf("bus publisher not initialised")
	}
	return b.publisher.Publish(topic, msgs...)
}

// Subscribe returns the message stream for topic.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if b == nil || b.subscriber == nil {
		return nil, fmt.Errorf("bus subscriber not initialised")
	}
	return b.subscriber.Subscribe(ctx, topic)
}

// Close releases the publisher and subscriber.
func (b *Bus) Close() error {
	if b == nil {
		return nil
	}
	var err error
	if b.publisher != nil {
		if e := b.publisher.Close(); e != nil {
			err = e
		}
	}
	if b.subscriber != nil && any(b.subscriber) != any(b.publisher) {
		if e := b.subscriber.Close(); e != nil {
			err = e
		}
	}
	return err
}
