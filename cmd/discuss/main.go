package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/alphabot-ai/discuss/internal/config"
)

const version = "0.1.0"

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// errReported marks a failure already shown to the user.
var errReported = errors.New("reported")

type app struct {
	cfg    *config.Config
	log    *slog.Logger
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func main() {
	a := &app{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}
	if err := a.cli().Run(os.Args); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		}
		os.Exit(1)
	}
}

func (a *app) cli() *cli.App {
	return &cli.App{
		Name:      "discuss",
		Usage:     "Discussion board client and server",
		Version:   version,
		Reader:    a.in,
		Writer:    a.out,
		ErrWriter: a.errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to config file (overrides CONFIG_PATH env)"},
			&cli.StringFlag{Name: "url", Usage: "server URL (overrides client.base_url)"},
			&cli.BoolFlag{Name: "debug", Usage: "log client internals to stderr"},
		},
		Before: a.before,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the discuss server",
				Action: a.serve,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Usage: "listen address (overrides server.addr)"},
					&cli.StringFlag{Name: "db", Usage: "database path (overrides server.db_path)"},
				},
			},
			{
				Name:    "list",
				Aliases: []string{"read"},
				Usage:   "List comments, newest first",
				Action:  a.list,
			},
			{
				Name:   "post",
				Usage:  "Post a new comment",
				Action: a.post,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "text", Required: true},
					&cli.StringFlag{Name: "image", Usage: "optional image URL"},
				},
			},
			{
				Name:   "edit",
				Usage:  "Replace the text of a comment",
				Action: a.edit,
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "id", Required: true},
					&cli.StringFlag{Name: "text", Required: true},
				},
			},
			{
				Name:   "like",
				Usage:  "Toggle your like on a comment",
				Action: a.like,
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "id", Required: true},
				},
			},
			{
				Name:    "delete",
				Aliases: []string{"rm"},
				Usage:   "Delete a comment",
				Action:  a.delete,
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "id", Required: true},
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "skip the confirmation prompt"},
				},
			},
			{
				Name:   "liked",
				Usage:  "Show the comments you have liked",
				Action: a.liked,
			},
			{
				Name:      "theme",
				Usage:     "Show or change the display theme",
				ArgsUsage: "[dark|light|toggle]",
				Action:    a.theme,
			},
		},
	}
}

func (a *app) before(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if u := c.String("url"); u != "" {
		cfg.Client.BaseURL = u
	}
	a.cfg = cfg

	level := slog.LevelError
	if c.Bool("debug") {
		level = slog.LevelDebug
	}
	a.log = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))
	return nil
}

// setupLogger picks the server log format by environment.
func setupLogger(env string, w io.Writer) *slog.Logger {
	switch env {
	case envDev:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
