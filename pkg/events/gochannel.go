package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/noah-isme/m3-catalog/pkg/config"
)

func init() {
	RegisterFactory(config.BusGoChannel, goChannelFactory)
}

// goChannelFactory keeps events in process; used for development and tests.
func goChannelFactory(_ context.Context, cfg *config.Config, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	ch := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.Bus.GoChannelBuffer,
	}, logger)
	return ch, ch, nil
}
