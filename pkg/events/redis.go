package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/m3-catalog/pkg/config"
)

const redisChannelBuffer = 100

func init() {
	RegisterFactory(config.BusRedis, redisFactory)
}

// NewRedis returns a configured Redis client.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func redisFactory(ctx context.Context, cfg *config.Config, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	client, err := NewRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	return NewRedisPublisher(client), NewRedisSubscriber(client, logger), nil
}

// redisFrame is the on-channel encoding of a watermill message; Redis
// pub/sub carries only a string so UUID and metadata travel inline.
type redisFrame struct {
	UUID     string            `json:"uuid"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Payload  []byte            `json:"payload"`
}

// RedisPublisher publishes watermill messages over Redis pub/sub.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish implements message.Publisher.
func (p *RedisPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		data, err := sonic.Marshal(redisFrame{UUID: msg.UUID, Metadata: msg.Metadata, Payload: msg.Payload})
		if err != nil {
			return fmt.Errorf("encode message %s: %w", msg.UUID, err)
		}
		ctx := msg.Context()
		if err := p.client.Publish(ctx, topic, data).Err(); err != nil {
			return fmt.Errorf("publish %s: %w", topic, err)
		}
	}
	return nil
}

// Close implements message.Publisher. The client is shared with the
// subscriber, which owns it.
func (p *RedisPublisher) Close() error {
	return nil
}

// RedisSubscriber delivers Redis pub/sub channel messages as watermill messages.
// A message is handed to the consumer and the next one is read only after the
// previous was acked or nacked.
type RedisSubscriber struct {
	client *redis.Client
	logger watermill.LoggerAdapter

	mu      sync.Mutex
	subs    []*redis.PubSub
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

func NewRedisSubscriber(client *redis.Client, logger watermill.LoggerAdapter) *RedisSubscriber {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &RedisSubscriber{client: client, logger: logger, closeCh: make(chan struct{})}
}

// Subscribe implements message.Subscriber.
func (s *RedisSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("redis subscriber closed")
	}

	ps := s.client.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}
	s.subs = append(s.subs, ps)

	out := make(chan *message.Message, redisChannelBuffer)
	s.wg.Add(1)
	go s.consume(ctx, topic, ps, out)
	return out, nil
}

func (s *RedisSubscriber) consume(ctx context.Context, topic string, ps *redis.PubSub, out chan<- *message.Message) {
	defer s.wg.Done()
	defer close(out)

	in := ps.Channel()
	fields := watermill.LogFields{"topic": topic}
	for {
		select {
		case <-s.closeCh:
			return
		case <-ctx.Done():
			return
		case raw, ok := <-in:
			if !ok {
				return
			}
			var frame redisFrame
			if err := sonic.UnmarshalString(raw.Payload, &frame); err != nil {
				s.logger.Error("dropping undecodable redis message", err, fields)
				continue
			}
			msg := message.NewMessage(frame.UUID, frame.Payload)
			for k, v := range frame.Metadata {
				msg.Metadata.Set(k, v)
			}
			msgCtx, cancel := context.WithCancel(ctx)
			msg.SetContext(msgCtx)

			select {
			case out <- msg:
			case <-s.closeCh:
				cancel()
				return
			case <-ctx.Done():
				cancel()
				return
			}

			select {
			case <-msg.Acked():
			case <-msg.Nacked():
				s.logger.Info("message nacked; redis pub/sub does not redeliver", fields.Add(watermill.LogFields{"uuid": msg.UUID}))
			case <-s.closeCh:
			case <-ctx.Done():
			}
			cancel()
		}
	}
}

// Close implements message.Subscriber and closes the shared client.
func (s *RedisSubscriber) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.closeCh)
	subs := s.subs
	s.mu.Unlock()

	for _, ps := range subs {
		if err := ps.Close(); err != nil {
			s.logger.Error("close redis subscription", err, nil)
		}
	}
	s.wg.Wait()
	return s.client.Close()
}
