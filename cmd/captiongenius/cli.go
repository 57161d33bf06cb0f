package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/captiongenius/internal/errors"
	"github.com/hpungsan/captiongenius/internal/generate"
	"github.com/hpungsan/captiongenius/internal/ops"
	"github.com/hpungsan/captiongenius/internal/settings"
	"github.com/hpungsan/captiongenius/internal/web"
)

// maxStdinBytes caps favorite text read from stdin.
const maxStdinBytes = 64 << 10

// newCLIApp creates the CLI application with all commands.
func newCLIApp(a *app) *cli.App {
	cliApp := &cli.App{
		Name:    "captiongenius",
		Usage:   "Social media captions for your photos",
		Version: Version,
		Commands: []*cli.Command{
			serveCmd(a),
			generateCmd(a),
			historyCmd(a),
			favoritesCmd(a),
			settingsCmd(a),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	cliApp.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return cliApp
}

// serveCmd creates the serve command.
func serveCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the browser UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8080, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			port := c.Int("port")
			if port < 0 || port > 65535 {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid port: %d", port)))
			}
			srv, err := web.NewServer(a.ctrl, a.logger, Version, c.String("bind"), port)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return web.Run(srv, a.logger)
		},
	}
}

// settingsFlags are the generation settings accepted by generate and settings.
func settingsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "platform", Usage: "Instagram, Twitter/X (x), LinkedIn, Facebook, Story/Status (story)"},
		&cli.StringFlag{Name: "length", Usage: "Short, Medium, Long"},
		&cli.StringFlag{Name: "style", Usage: "Witty, Poetic, Professional, Casual, Motivational, Storytelling, Minimalist"},
		&cli.StringFlag{Name: "tone", Usage: "Funny, Serious, Inspirational, Mysterious, Playful"},
		&cli.BoolFlag{Name: "emojis", Usage: "Include emojis (--emojis=false to disable)"},
		&cli.BoolFlag{Name: "hashtags", Usage: "Include hashtags (--hashtags=false to disable)"},
	}
}

// overrideFromFlags builds a settings override from the flags that were set.
func overrideFromFlags(c *cli.Context) (settings.Override, error) {
	var o settings.Override
	if c.IsSet("platform") {
		p, err := settings.ParsePlatform(c.String("platform"))
		if err != nil {
			return o, errors.NewInvalidRequest(err.Error())
		}
		o.Platform = &p
	}
	if c.IsSet("length") {
		l, err := settings.ParseLength(c.String("length"))
		if err != nil {
			return o, errors.NewInvalidRequest(err.Error())
		}
		o.Length = &l
	}
	if c.IsSet("style") {
		s, err := settings.ParseStyle(c.String("style"))
		if err != nil {
			return o, errors.NewInvalidRequest(err.Error())
		}
		o.Style = &s
	}
	if c.IsSet("tone") {
		t, err := settings.ParseTone(c.String("tone"))
		if err != nil {
			return o, errors.NewInvalidRequest(err.Error())
		}
		o.Tone = &t
	}
	if c.IsSet("emojis") {
		b := c.Bool("emojis")
		o.UseEmojis = &b
	}
	if c.IsSet("hashtags") {
		b := c.Bool("hashtags")
		o.UseHashtags = &b
	}
	return o, nil
}

// generateCmd creates the generate command.
func generateCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Generate 3 captions for an image and record them in history",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "image", Aliases: []string{"i"}, Required: true, Usage: "Path to the image file"},
		}, settingsFlags()...),
		Action: func(c *cli.Context) error {
			override, err := overrideFromFlags(c)
			if err != nil {
				return outputError(err)
			}
			if _, err := a.ctrl.UpdateSettings(override); err != nil {
				return outputError(err)
			}
			if _, err := a.ctrl.SetImageFromFile(c.String("image")); err != nil {
				return outputError(err)
			}

			output, err := a.ctrl.Generate(c.Context)
			if err != nil {
				return outputError(err)
			}
			if output.Skipped {
				return outputError(errors.NewNoImage())
			}

			return outputJSON(output)
		},
	}
}

// historyCmd creates the history command group.
func historyCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List, restore or clear recent generations",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List history entries, newest first",
				Action: func(c *cli.Context) error {
					return outputJSON(a.ctrl.ListHistory())
				},
			},
			{
				Name:      "restore",
				Usage:     "Print the captions of a history entry",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return outputError(errors.NewInvalidRequest("history id is required"))
					}
					output, err := a.ctrl.RestoreHistoryItem(c.Args().First())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "clear",
				Usage: "Delete all history entries",
				Action: func(c *cli.Context) error {
					if err := a.ctrl.ClearHistory(c.Context); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"cleared": true})
				},
			},
		},
	}
}

// favoritesCmd creates the favorites command group.
func favoritesCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "favorites",
		Usage: "Manage saved captions",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List favorites, newest first",
				Action: func(c *cli.Context) error {
					return outputJSON(a.ctrl.ListFavorites())
				},
			},
			{
				Name:  "save",
				Usage: "Save caption text to favorites (--text or stdin)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "Caption text"},
					&cli.StringFlag{Name: "platform", Usage: "Platform tag (defaults to the current platform)"},
					&cli.StringFlag{Name: "style", Usage: "Style tag (defaults to the current style)"},
				},
				Action: func(c *cli.Context) error {
					text := c.String("text")
					if text == "" && stdinHasData() {
						var err error
						if text, err = readStdin(maxStdinBytes); err != nil {
							return outputError(errors.NewInvalidRequest(err.Error()))
						}
					}

					override, err := overrideFromFlags(c)
					if err != nil {
						return outputError(err)
					}
					output, err := a.ctrl.SaveFavoriteText(c.Context, ops.SaveFavoriteTextInput{
						Text:     text,
						Platform: override.Platform,
						Style:    override.Style,
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove a favorite",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return outputError(errors.NewInvalidRequest("favorite id is required"))
					}
					id := c.Args().First()
					if err := a.ctrl.RemoveFavorite(c.Context, id); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"removed": true, "id": id})
				},
			},
			{
				Name:      "export",
				Usage:     "Write a favorite to a .txt file",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "path", Usage: "Destination (default ~/.captiongenius/exports/caption-<id>.txt)"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return outputError(errors.NewInvalidRequest("favorite id is required"))
					}
					output, err := a.ctrl.ExportFavorite(ops.ExportFavoriteInput{
						ID:   c.Args().First(),
						Path: c.String("path"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
		},
	}
}

// settingsOutput is what the settings command prints.
type settingsOutput struct {
	Settings settings.Settings `json:"settings"`
	Provider string            `json:"provider"`
	Model    string            `json:"model,omitempty"`
	Prompt   string            `json:"prompt"`
}

// settingsCmd creates the settings command.
func settingsCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show effective settings and the prompt they produce",
		Flags: settingsFlags(),
		Action: func(c *cli.Context) error {
			override, err := overrideFromFlags(c)
			if err != nil {
				return outputError(err)
			}
			st, err := a.ctrl.UpdateSettings(override)
			if err != nil {
				return outputError(err)
			}

			cfg := a.ctrl.Config()
			return outputJSON(settingsOutput{
				Settings: st,
				Provider: cfg.Provider,
				Model:    cfg.Model,
				Prompt:   generate.BuildRequest(st).Prompt,
			})
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var cErr *errors.CaptionError
	if stderrors.As(err, &cErr) {
		msg := cErr.Message
		if cErr.Code == errors.ErrInternal {
			msg = "internal error"
		}
		return cli.Exit(fmt.Sprintf("[%s] %s", cErr.Code, msg), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads at most limit bytes from stdin.
func readStdin(limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("stdin exceeds %d bytes", limit)
	}
	return strings.TrimSpace(string(data)), nil
}
