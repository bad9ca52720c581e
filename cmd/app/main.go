package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/notegraph/internal"
	"github.com/starford/notegraph/internal/reconcile"
	pkgconfig "github.com/starford/notegraph/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func export(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	opts := []internal.Option{internal.WithConfig(cfg)}
	if path := cmd.String("out"); path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		defer f.Close()
		out = f
	} else {
		// Keep stdout clean for the backup itself.
		opts = append(opts, internal.WithLogOutput(os.Stderr))
	}
	return internal.Export(ctx, out, opts...)
}

func importBackup(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts := reconcile.Options{
		Mode:             reconcile.Mode(cmd.String("mode")),
		HandleDuplicates: reconcile.Duplicates(cmd.String("duplicates")),
	}
	res, err := internal.Import(ctx, cmd.String("file"), opts,
		internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
	if printErr := printResult(res); printErr != nil {
		return printErr
	}
	return err
}

func printResult(res reconcile.Result) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:   "notegraph",
		Usage:  "Local-first notes with wiki links, backups, and AI transforms",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serve,
			},
			{
				Name:   "export",
				Usage:  "Write a full JSON backup",
				Action: export,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file, - for stdout", Value: "-"},
				},
			},
			{
				Name:   "import",
				Usage:  "Apply a JSON backup to the store",
				Action: importBackup,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Backup file", Required: true},
					&cli.StringFlag{Name: "mode", Usage: "merge or replace", Value: string(reconcile.ModeMerge)},
					&cli.StringFlag{Name: "duplicates", Usage: "skip, overwrite, or keepBoth", Value: string(reconcile.DuplicatesSkip)},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools over stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
