package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/projector"
	"github.com/urfave/cli/v3"
)

type replayOutput struct {
	Snapshot models.StatusSnapshot    `json:"snapshot"`
	Timeline []projector.TimelineItem `json:"timeline"`
}

func NewReplayCommand() *cli.Command {
	return &cli.Command{
		Name:      "replay",
		Usage:     "Project an event log file into its status snapshot and timeline",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, command *cli.Command) error {
			data, err := readArgFile(command)
			if err != nil {
				return err
			}

			return replayEvents(command.Root().Writer, data)
		},
	}
}

func replayEvents(out io.Writer, data []byte) error {
	var events []models.WorkflowEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return fmt.Errorf("failed to decode event log: %w", err)
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")

	return encoder.Encode(replayOutput{
		Snapshot: projector.Project(events),
		Timeline: projector.Timeline(events),
	})
}
