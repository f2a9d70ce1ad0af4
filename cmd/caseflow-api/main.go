package main

import (
	"context"
	"os"

	"github.com/caseflow/caseflow/pkg/cmd"
	"github.com/caseflow/caseflow/pkg/log"
	"github.com/caseflow/caseflow/pkg/registry"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "caseflow-api",
		Usage:                 "Define, validate and compile case workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma-separated Kafka broker list",
				Value:   "localhost:9092",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "directory-url",
				Usage:   "Base URL of the user directory service",
				Value:   "http://localhost:8080",
				Sources: cli.EnvVars("DIRECTORY_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Caseflow API")

			hookRegistry := registry.NewRegistry(logger)
			registry.RegisterDefaultHooks(hookRegistry)

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			api := NewAPI(
				logger,
				persistence,
				hookRegistry,
				eventBus,
				command.String("directory-url"),
			)

			err = api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
