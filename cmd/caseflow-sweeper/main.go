// Package main runs the periodic SLA sweep as a standalone service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/caseflow/caseflow/pkg/calendar"
	"github.com/caseflow/caseflow/pkg/cmd"
	"github.com/caseflow/caseflow/pkg/log"
	"github.com/caseflow/caseflow/pkg/otelhelper"
	"github.com/caseflow/caseflow/pkg/scheduler"
	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
)

func main() {
	command := &cli.Command{
		Name:                  "caseflow-sweeper",
		Usage:                 "Escalate tasks that exceeded their business-day SLA",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "sweeper-id",
				Aliases: []string{"id"},
				Usage:   "Custom sweeper ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("SWEEPER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "engine-url",
				Usage:    "Base URL of the execution engine's task API",
				Required: true,
				Sources:  cli.EnvVars("ENGINE_URL"),
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
				Name:    "schedule",
				Usage:   "Cron expression for the sweep",
				Value:   "*/15 * * * *",
				Sources: cli.EnvVars("SWEEP_SCHEDULE"),
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

			sweeperID := command.String("sweeper-id")
			if sweeperID == "" {
				sweeperID = fmt.Sprintf("sweeper-%s", uuid.New().String()[:8])
			}

			logger := log.WithModule("caseflow-sweeper").With("sweeper_id", sweeperID)

			logger.InfoContext(ctx, "Initializing Caseflow SLA sweeper")

			tracer, err := otelhelper.NewTracer(ctx, "caseflow-sweeper")
			if err != nil {
				return fmt.Errorf("failed to initialize tracer: %w", err)
			}

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

			calendarService := calendar.NewService(persistence, persistence, logger)
			taskSource := scheduler.NewEngineTaskSource(command.String("engine-url"), logger)

			sweeper := scheduler.NewSweeper(
				taskSource,
				persistence,
				calendarService,
				eventBus,
				logger,
				scheduler.WithTracer(tracer),
			)

			err = sweeper.Start(ctx, command.String("schedule"))
			if err != nil {
				return err
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			<-sigChan
			logger.InfoContext(ctx, "Shutting down SLA sweeper")
			sweeper.Stop()

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
