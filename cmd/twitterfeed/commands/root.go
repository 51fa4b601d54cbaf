// Package commands implements the twitterfeed command line.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/FeyP/drupal-twitter-feed/internal/app"
	"github.com/FeyP/drupal-twitter-feed/internal/observability"
)

// environ is replaced in tests.
var environ = os.Environ

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string, version, commit string) error {
	return newRootCommand(version, commit).Run(ctx, args)
}

func newRootCommand(version, commit string) *cli.Command {
	var shutdownLogging observability.ShutdownFunc

	return &cli.Command{
		Name:    "twitterfeed",
		Usage:   "Render recent posts of a timeline as an embeddable block",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to a .toml or .yaml config file",
				Sources: cli.EnvVars(app.EnvPrefix + "CONFIG"),
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file with " + app.EnvPrefix + "* variables",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json)",
				Value: "text",
			},
			&cli.StringFlag{
				Name:  "log-exporter",
				Usage: "OpenTelemetry log exporter (none|stdout|otlp-http|otlp-grpc)",
				Value: observability.ExporterNone,
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			var level slog.Level
			if err := level.UnmarshalText([]byte(cmd.String("log-level"))); err != nil {
				return ctx, err
			}

			shutdown, err := observability.Instrument(ctx, level, cmd.String("log-format"), cmd.String("log-exporter"))
			if err != nil {
				return ctx, fmt.Errorf("failed to set up observability layer: %w", err)
			}
			shutdownLogging = shutdown
			return ctx, nil
		},
		After: func(ctx context.Context, cmd *cli.Command) error {
			if shutdownLogging == nil {
				return nil
			}
			return shutdownLogging(context.WithoutCancel(ctx))
		},
		Commands: []*cli.Command{
			serveCommand(),
			renderCommand(),
			authCommand(),
			versionCommand(version, commit),
		},
	}
}

// loadConfig loads configuration using the global flags. overrides hold
// values from command-specific flags and win over every other source.
func loadConfig(cmd *cli.Command, overrides map[string]any) (*app.Config, error) {
	cfg, err := app.LoadConfig(app.LoadOptions{
		Path:      cmd.String("config"),
		EnvFile:   cmd.String("env-file"),
		Environ:   environ,
		Overrides: overrides,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve configured blocks over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "listen address (overrides server.addr)",
			},
		},
		Action: serveAction,
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	overrides := map[string]any{}
	if cmd.IsSet("addr") {
		overrides["server.addr"] = cmd.String("addr")
	}

	cfg, err := loadConfig(cmd, overrides)
	if err != nil {
		return err
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	slog.InfoContext(ctx, "starting", "blocks", len(cfg.Blocks))

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("app failed to start: %w", err)
	}

	slog.InfoContext(ctx, "stopped gracefully")
	return nil
}

func versionCommand(version, commit string) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, err := fmt.Fprintf(cmd.Root().Writer, "twitterfeed %s (%s)\n", version, commit)
			return err
		},
	}
}
