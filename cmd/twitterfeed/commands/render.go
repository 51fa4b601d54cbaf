package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/FeyP/drupal-twitter-feed/internal/block"
)

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "Run one fetch cycle and print the result",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "block",
				Usage: "id of a configured block",
			},
			&cli.StringFlag{
				Name:  "username",
				Usage: "screen name to fetch instead of a configured block",
			},
			&cli.IntFlag{
				Name:  "count",
				Usage: "number of posts (defaults to max_tweets)",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "output format (html|json)",
				Value: "html",
			},
		},
		Action: renderAction,
	}
}

func renderAction(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if format != "html" && format != "json" {
		return fmt.Errorf("unsupported format %q (expected: html, json)", format)
	}

	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}

	var req block.Request
	switch id := cmd.String("block"); {
	case id != "" && cmd.IsSet("username"):
		return errors.New("--block and --username are mutually exclusive")
	case id != "":
		settings, ok := cfg.Blocks[id]
		if !ok {
			return fmt.Errorf("block %q is not configured", id)
		}
		req = settings.Request()
	default:
		req = block.Request{Username: cmd.String("username"), Count: cfg.MaxTweets}
	}
	if cmd.IsSet("count") {
		req.Count = cmd.Int("count")
	}
	if req.Count > cfg.MaxTweets {
		return fmt.Errorf("%w: count %d exceeds maximum of %d", block.ErrInvalidRequest, req.Count, cfg.MaxTweets)
	}

	renderer, err := cfg.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	view, err := renderer.Render(ctx, req)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	w := cmd.Root().Writer
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}
	return block.WriteHTML(w, view, renderer.ProfileURL(view.Username))
}
