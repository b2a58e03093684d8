package events

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// Consumer routes subscribed topics to handlers through a watermill router
// with panic recovery and bounded retries.
type Consumer struct {
	bus    *Bus
	router *message.Router
}

// NewConsumer creates a router over bus. maxRetries bounds redelivery of a
// failing message before it is dropped and logged.
func NewConsumer(bus *Bus, maxRetries int, retryDelay time.Duration) (*Consumer, error) {
	router, err := message.NewRouter(message.RouterConfig{}, bus.Logger())
	if err != nil {
		return nil, err
	}
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      maxRetries,
			InitialInterval: retryDelay,
			Multiplier:      2,
			Logger:          bus.Logger(),
		}.Middleware,
	)
	return &Consumer{bus: bus, router: router}, nil
}

// Handle registers handler for topic.
func (c *Consumer) Handle(name, topic string, handler message.NoPublishHandlerFunc) {
	c.router.AddNoPublisherHandler(name, topic, c.bus.subscriber, handler)
}

// Run blocks until ctx is cancelled or the router fails.
func (c *Consumer) Run(ctx context.Context) error {
	return c.router.Run(ctx)
}

// Running is closed once every handler has subscribed.
func (c *Consumer) Running() chan struct{} {
	return c.router.Running()
}

// Close stops the router.
func (c *Consumer) Close() error {
	return c.router.Close()
}
