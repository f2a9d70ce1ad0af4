package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/caseflow/caseflow/pkg/channels/gochannel"
	"github.com/caseflow/caseflow/pkg/channels/kafka"
	"github.com/caseflow/caseflow/pkg/eventbus"
)

// NewEventBus builds the event bus for the given provider. The broker
// list only applies to kafka; the gochannel provider is in-process and
// meant for development.
func NewEventBus(provider, brokers string, logger *slog.Logger) (eventbus.EventBus, error) {
	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), "caseflow", brokers)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	case "gochannel":
		pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %q", provider)
	}
}
