package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
)

// Metadata keys set on every published message.
const (
	MetaTopic      = "topic"
	MetaOccurredAt = "occurred_at"
	MetaProducer   = "producer"
	MetaRequestID  = "request_id"

	producerName = "m3-catalog"
)

// NewMessage encodes payload as JSON into a watermill message for topic.
func NewMessage(topic string, payload interface{}) (*message.Message, error) {
	data, err := sonic.Marshal(payload)
	if err != nil {
		return nil, err
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set(MetaTopic, topic)
	msg.Metadata.Set(MetaOccurredAt, time.Now().UTC().Format(time.RFC3339Nano))
	msg.Metadata.Set(MetaProducer, producerName)
	return msg, nil
}

// Decode unmarshals a message payload into T.
func Decode[T any](msg *message.Message) (T, error) {
	var out T
	err := sonic.Unmarshal(msg.Payload, &out)
	return out, err
}
