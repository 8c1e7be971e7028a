package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/blockpad/internal"
	pkgconfig "github.com/starford/blockpad/pkg/config"
)

const defaultConfigFile = "config/config.yaml"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadWithDefaults(cmd.String("config"), defaultConfigFile, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

func listTools(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	tools, err := internal.ToolTable(cfg)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(tools.Descriptors())
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file (.yaml or .toml)",
		DefaultText: defaultConfigFile,
		Value:       defaultConfigFile,
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
}

func main() {
	cmd := &cli.Command{
		Name:   "blockpad",
		Usage:  "Block-based document editor server with snapshot storage, search and live sessions",
		Action: run,
		Flags:  []cli.Flag{configFlag()},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP server (default)",
				Flags:  []cli.Flag{configFlag()},
				Action: run,
			},
			{
				Name:   "mcp",
				Usage:  "Serve stored documents over MCP on stdio",
				Flags:  []cli.Flag{configFlag()},
				Action: runMCP,
			},
			{
				Name:   "tools",
				Usage:  "Print the resolved editor tool table",
				Flags:  []cli.Flag{configFlag()},
				Action: listTools,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
