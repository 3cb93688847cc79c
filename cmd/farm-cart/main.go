package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "farm-cart:", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "path to a TOML config file",
		Sources: cli.EnvVars("CONFIG_FILE"),
	}

	return &cli.Command{
		Name:  "farm-cart",
		Usage: "farm marketplace cart service",
		Flags: []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return serve(ctx, cmd.String("config"))
				},
			},
			{
				Name:  "migrate",
				Usage: "apply database migrations for the configured backend and exit",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return migrate(ctx, cmd.String("config"))
				},
			},
		},
		DefaultCommand: "serve",
	}
}
