package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/services"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/validation"
	"github.com/urfave/cli/v3"
)

var (
	ErrMissingFile    = errors.New("a file argument is required")
	ErrNotPublishable = errors.New("workflow is not publishable")
)

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Check an exported workflow against the publish rules",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, command *cli.Command) error {
			data, err := readArgFile(command)
			if err != nil {
				return err
			}

			return validateDocument(command.Root().Writer, data)
		},
	}
}

func validateDocument(out io.Writer, data []byte) error {
	doc, err := services.DecodeDocument(data)
	if err != nil {
		return err
	}

	result := validation.Validate(doc)
	if result.Publishable {
		_, _ = fmt.Fprintf(out, "publishable: %d nodes, %d edges\n", len(doc.Nodes), len(doc.Edges))

		return nil
	}

	for _, violation := range result.Violations {
		subject := violation.NodeID
		if subject == "" {
			subject = violation.EdgeID
		}

		if subject == "" {
			_, _ = fmt.Fprintf(out, "%s: %s\n", violation.Code, violation.Message)
		} else {
			_, _ = fmt.Fprintf(out, "%s [%s]: %s\n", violation.Code, subject, violation.Message)
		}
	}

	return fmt.Errorf("%w: %d violations", ErrNotPublishable, len(result.Violations))
}

func readArgFile(command *cli.Command) ([]byte, error) {
	path := command.Args().First()
	if path == "" {
		return nil, ErrMissingFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return data, nil
}
