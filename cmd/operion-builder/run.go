package main

import (
	"context"
	"fmt"
	"time"

	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/cmd"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/graph"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/log"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/otelhelper"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/publisher"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/services"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/subscription"
	"github.com/urfave/cli/v3"
)

func RunAPICommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Start the builder API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Persistence URL (file://dir, redis://, postgres://, sqlite://)",
				Value:   "file://./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "engine-url",
				Usage:    "Base URL of the workflow engine",
				Required: true,
				Sources:  cli.EnvVars("ENGINE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-transport",
				Usage:   "Engine event transport (sse, kafka, socketio, gochannel)",
				Value:   "sse",
				Sources: cli.EnvVars("EVENT_TRANSPORT"),
			},
			&cli.StringSliceFlag{
				Name:    "kafka-brokers",
				Usage:   "Kafka broker addresses",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "event-topic",
				Usage:   "Topic engine events are published on",
				Sources: cli.EnvVars("EVENT_TOPIC"),
			},
			&cli.StringFlag{
				Name:    "socketio-url",
				Usage:   "Socket.IO endpoint, defaults to the engine URL",
				Sources: cli.EnvVars("SOCKETIO_URL"),
			},
			&cli.StringFlag{
				Name:    "socketio-namespace",
				Usage:   "Socket.IO namespace",
				Value:   "/",
				Sources: cli.EnvVars("SOCKETIO_NAMESPACE"),
			},
			&cli.UintFlag{
				Name:    "breaker-failures",
				Usage:   "Consecutive engine failures that open the circuit breaker",
				Value:   5,
				Sources: cli.EnvVars("ENGINE_BREAKER_FAILURES"),
			},
			&cli.DurationFlag{
				Name:    "breaker-open-for",
				Usage:   "How long the circuit breaker stays open",
				Value:   30 * time.Second,
				Sources: cli.EnvVars("ENGINE_BREAKER_OPEN_FOR"),
			},
			&cli.BoolFlag{
				Name:    "otel-enabled",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("builder")

			if command.Bool("otel-enabled") {
				tracerProvider, err := otelhelper.InitTracer(ctx, "operion-builder")
				if err != nil {
					return fmt.Errorf("failed to initialize tracer: %w", err)
				}

				defer func() {
					if err := tracerProvider.Shutdown(ctx); err != nil {
						logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
					}
				}()
			}

			logger.InfoContext(ctx, "Initializing workflow builder")

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			events, err := cmd.NewEventChannel(cmd.EventConfig{
				Transport:         command.String("event-transport"),
				EngineURL:         command.String("engine-url"),
				Brokers:           command.StringSlice("kafka-brokers"),
				Topic:             command.String("event-topic"),
				SocketIOURL:       command.String("socketio-url"),
				SocketIONamespace: command.String("socketio-namespace"),
			}, logger)
			if err != nil {
				return err
			}

			store, err := graph.NewStore(ctx, persistence, logger)
			if err != nil {
				return err
			}

			tracker := subscription.NewClient(events.Source, persistence, logger,
				subscription.WithObserver(subscription.ObserverFunc(func(update subscription.Update) {
					if update.Completed {
						logger.Info("Workflow run finished", "workflow_id", update.WorkflowID)
					}
				})),
			)

			defer func() {
				tracker.Deactivate()

				if err := events.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event transport", "error", err)
				}
			}()

			resumed, err := tracker.Resume(ctx)
			if err != nil {
				logger.WarnContext(ctx, "Failed to resume active workflow", "error", err)
			} else if resumed {
				logger.InfoContext(ctx, "Resumed tracking", "workflow_id", tracker.State().WorkflowID)
			}

			engine := publisher.New(command.String("engine-url"), logger,
				publisher.WithBreaker(uint32(command.Uint("breaker-failures")), command.Duration("breaker-open-for")),
			)

			builder := services.NewBuilder(store, engine, tracker, persistence, logger)

			api := NewAPI(logger, builder)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start builder API", "error", err)

				return err
			}

			return nil
		},
	}
}
