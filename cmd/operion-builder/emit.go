package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/cmd"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/log"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
	"github.com/urfave/cli/v3"
)

func NewEmitCommand() *cli.Command {
	return &cli.Command{
		Name:      "emit",
		Usage:     "Publish an event log file on the event broker, as the engine would",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "event-transport",
				Usage:   "Broker transport (kafka)",
				Value:   "kafka",
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
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("emit")

			data, err := readArgFile(command)
			if err != nil {
				return err
			}

			count, err := emitEvents(ctx, logger, cmd.EventConfig{
				Transport: command.String("event-transport"),
				Brokers:   command.StringSlice("kafka-brokers"),
				Topic:     command.String("event-topic"),
			}, data)
			if err != nil {
				return err
			}

			logger.InfoContext(ctx, "Emitted events", "count", count)

			return nil
		},
	}
}

func emitEvents(ctx context.Context, logger *slog.Logger, cfg cmd.EventConfig, data []byte) (int, error) {
	var events []models.WorkflowEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return 0, fmt.Errorf("failed to decode event log: %w", err)
	}

	channel, err := cmd.NewEventChannel(cfg, logger)
	if err != nil {
		return 0, err
	}

	defer func() {
		if err := channel.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event transport", "error", err)
		}
	}()

	if err := channel.Emit(events...); err != nil {
		return 0, err
	}

	return len(events), nil
}
