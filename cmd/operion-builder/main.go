package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"
)

const defaultPort = 9092

func main() {
	cmd := &cli.Command{
		Name:                  "operion-builder",
		Usage:                 "Author, publish and follow approval workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			RunAPICommand(),
			NewValidateCommand(),
			NewReplayCommand(),
			NewEmitCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		os.Exit(1)
	}
}
