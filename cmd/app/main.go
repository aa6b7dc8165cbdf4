package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/devassist/companion/internal"
	pkgconfig "github.com/devassist/companion/pkg/config"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

const defaultConfigFile = "devassist.yaml"

func run(ctx context.Context, cmd *cli.Command) error {
	cfg := internal.NewDefaultConfig()

	// A config file is optional unless named explicitly.
	if cmd.IsSet("config") {
		if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	} else if _, err := pkgconfig.LoadIfExists(defaultConfigFile, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	// Flags and environment override file values.
	if v := cmd.String("project"); v != "" {
		cfg.Project.Name = v
	}
	if v := cmd.String("directory"); v != "" {
		cfg.Workspace.Path = v
	}
	if v := cmd.String("api-key"); v != "" {
		cfg.Remote.APIKey = v
	}
	if v := cmd.String("base-url"); v != "" {
		cfg.Remote.BaseURL = v
	}
	if cmd.IsSet("interval") {
		cfg.Sync.Interval = internal.Duration(cmd.Duration("interval"))
	}
	cfg.Sync.Once = cmd.Bool("once")

	if err := pkgconfig.Check(cfg); err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "devassist",
		Usage:   "Synchronizes a local source directory with a DevAssist project",
		Version: "1.0.0",
		Action:  run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "project",
				Aliases: []string{"p"},
				Usage:   "Project name on the DevAssist service",
				Sources: cli.EnvVars("DEVASSIST_PROJECT"),
			},
			&cli.StringFlag{
				Name:    "directory",
				Aliases: []string{"d"},
				Usage:   "Directory to synchronize",
				Sources: cli.EnvVars("DEVASSIST_DIRECTORY"),
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "API key for the DevAssist service",
				Sources: cli.EnvVars("DEVASSIST_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "DevAssist endpoint override",
				Sources: cli.EnvVars("DEVASSIST_BASE_URL"),
			},
			&cli.DurationFlag{
				Name:    "interval",
				Usage:   "Polling interval between sync passes",
				Sources: cli.EnvVars("DEVASSIST_SYNC_INTERVAL"),
			},
			&cli.BoolFlag{
				Name:  "once",
				Usage: "Run a single sync pass and exit",
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: defaultConfigFile,
				Sources:     cli.EnvVars("DEVASSIST_CONFIG_FILE"),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
