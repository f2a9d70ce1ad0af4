// Package gochannel provides an in-memory channel for development and tests.
package gochannel

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// CreateChannel returns the same GoChannel instance as both publisher and
// subscriber. No external broker is required.
func CreateChannel(logger watermill.LoggerAdapter) (*gochannel.GoChannel, *gochannel.GoChannel, error) {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: 1000,
			Persistent:          false,
		},
		logger,
	)

	return pubSub, pubSub, nil
}

// CreateTestChannel uses a small buffer and blocks publishes until the
// subscriber acks, which keeps tests deterministic.
func CreateTestChannel(logger watermill.LoggerAdapter) (*gochannel.GoChannel, *gochannel.GoChannel, error) {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            10,
			Persistent:                     true,
			BlockPublishUntilSubscriberAck: true,
		},
		logger,
	)

	return pubSub, pubSub, nil
}
