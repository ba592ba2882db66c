package messaging

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

// Transport pairs the publisher and subscriber sides of one message bus.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// NewRedisStreamTransport builds a transport over Redis streams. Consumers sharing
// consumerGroup split the stream between them.
func NewRedisStreamTransport(
	client redis.UniversalClient, consumerGroup string, logger watermill.LoggerAdapter,
) (*Transport, error) {
	pub, err := redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: client,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis stream publisher: %w", err)
	}

	sub, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        client,
		ConsumerGroup: consumerGroup,
	}, logger)
	if err != nil {
		_ = pub.Close()

		return nil, fmt.Errorf("failed to create redis stream subscriber: %w", err)
	}

	return &Transport{Publisher: pub, Subscriber: sub}, nil
}

// NewInProcessTransport builds a transport that delivers messages within this
// process only. Messages published before a subscriber exists are dropped.
func NewInProcessTransport(buffer int64, logger watermill.LoggerAdapter) *Transport {
	ch := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: buffer,
	}, logger)

	return &Transport{Publisher: ch, Subscriber: ch}
}
