// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/rivora/internal/formatter"
	"github.com/urfave/cli/v3"
)

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "type",
			Aliases: []string{"t"},
			Usage:   "Only show one media type (All, Image, Video, Text)",
			Value:   "All",
		},
		&cli.BoolFlag{
			Name:    "favorites",
			Aliases: []string{"f"},
			Usage:   "Only show favorites",
		},
	}
}

func idFlag() cli.Flag {
	return &cli.Int64Flag{
		Name:     "id",
		Usage:    "Generation ID",
		Required: true,
	}
}

// setupCommand handles setup operations for the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the latest migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	credentials := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Account email",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Account password (backend accounts only)",
				Sources: cli.EnvVars("RIVORA_PASSWORD"),
			},
			&cli.BoolFlag{
				Name:  "local",
				Usage: "Use a local account stored in the SQLite database",
			},
		}
	}

	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Sign in and remember the session",
				Flags:  credentials(),
				Action: r.AuthLogin,
			},
			{
				Name:  "signup",
				Usage: "Create an account",
				Flags: append(credentials(), &cli.StringFlag{
					Name:  "name",
					Usage: "Display name (local accounts only)",
				}),
				Action: r.AuthSignup,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and forget the session",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the current session",
				Action: r.AuthStatus,
			},
		},
	}
}

// generateCommand submits a prompt
func generateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Aliases:   []string{"gen"},
		Usage:     "Generate an image or video from a prompt",
		ArgsUsage: "<prompt>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Usage:   "Image or Video",
				Value:   "Image",
			},
			&cli.StringFlag{
				Name:  "file",
				Usage: "Reference file to upload with the prompt (max 5MB)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the stored item as JSON",
			},
		},
		Action: r.Generate,
	}
}

// galleryCommand handles gallery operations
func galleryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "gallery",
		Aliases: []string{"g"},
		Usage:   "Browse and manage generations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List generations, newest first",
				Flags: append(filterFlags(), &cli.BoolFlag{
					Name:  "json",
					Usage: "Output raw JSON",
				}),
				Action: r.GalleryList,
			},
			{
				Name:   "favorite",
				Usage:  "Toggle the favorite flag of a generation",
				Flags:  []cli.Flag{idFlag()},
				Action: r.GalleryFavorite,
			},
			{
				Name:  "export",
				Usage: "Export generations to a file",
				Flags: append(filterFlags(),
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format (" + strings.Join(formatter.Formats, ", ") + ")",
						Value: formatter.FormatMarkdown,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: generations.{ext})",
					},
				),
				Action: r.GalleryExport,
			},
			{
				Name:  "save",
				Usage: "Download a generation's media",
				Flags: []cli.Flag{
					idFlag(),
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Directory to save into",
						Value: ".",
					},
				},
				Action: r.GallerySave,
			},
			{
				Name:   "open",
				Usage:  "Open a generation in the browser",
				Flags:  []cli.Flag{idFlag()},
				Action: r.GalleryOpen,
			},
		},
	}
}

// plansCommand lists subscription plans
func plansCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "plans",
		Usage: "Show subscription plans",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Plans,
	}
}

// serveCommand runs the local HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the gallery and submissions over a local HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default: server.host:server.port from config)",
			},
		},
		Action: r.Serve,
	}
}

// apiCommand handles direct calls to a running server
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to a running 'rivora serve'",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
			{
				Name:   "health",
				Usage:  "Check that the server is up",
				Action: r.APIHealth,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal UI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log",
				Usage: "Log file path",
				Value: "./tmp/rivora-tui.log",
			},
		},
		Action: r.TUI,
	}
}
