package events

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"

	"github.com/noah-isme/m3-catalog/pkg/config"
)

const natsDrainTimeout = 30 * time.Second

func init() {
	RegisterFactory(config.BusNATS, natsFactory)
}

func buildNatsOptions(cfg config.BusConfig) []nc.Option {
	return []nc.Option{
		nc.Name(cfg.NATSClientID),
		nc.MaxReconnects(cfg.NATSMaxReconnects),
		nc.ReconnectWait(cfg.NATSReconnectWait),
		nc.DrainTimeout(natsDrainTimeout),
		nc.RetryOnFailedConnect(true),
	}
}

func buildJetStreamConfig(cfg config.BusConfig) nats.JetStreamConfig {
	return nats.JetStreamConfig{
		Disabled:      !cfg.JetStreamEnabled,
		AutoProvision: cfg.JetStreamAutoProvision,
		TrackMsgId:    cfg.JetStreamEnabled,
		DurablePrefix: cfg.JetStreamDurablePrefix,
	}
}

func natsFactory(_ context.Context, cfg *config.Config, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	opts := buildNatsOptions(cfg.Bus)
	jsCfg := buildJetStreamConfig(cfg.Bus)
	marshaler := &nats.JSONMarshaler{}

	pub, err := nats.NewPublisher(nats.PublisherConfig{
		URL:         cfg.Bus.NATSURL,
		NatsOptions: opts,
		JetStream:   jsCfg,
		Marshaler:   marshaler,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	sub, err := nats.NewSubscriber(nats.SubscriberConfig{
		URL:              cfg.Bus.NATSURL,
		NatsOptions:      opts,
		JetStream:        jsCfg,
		Unmarshaler:      marshaler,
		QueueGroupPrefix: cfg.Bus.JetStreamDurablePrefix,
		SubscribersCount: 1,
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, nil, err
	}

	logger.Info("nats bus configured", watermill.LogFields{
		"url":       cfg.Bus.NATSURL,
		"jetstream": cfg.Bus.JetStreamEnabled,
	})
	return pub, sub, nil
}
