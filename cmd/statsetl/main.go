// Command statsetl loads match statistics workbooks from the command line.
//
// Usage:
//
//	statsetl load FILE [--dry-run] [--json]   # validate and load every match sheet
//	statsetl validate FILE [--json]           # validate only, no database needed
//	statsetl migrate up|down|version          # manage the schema
//	statsetl template [-o FILE]               # write an empty workbook
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/statsetl/internal/config"
	"github.com/JonMunkholm/statsetl/internal/etl"
	"github.com/JonMunkholm/statsetl/internal/load"
	"github.com/JonMunkholm/statsetl/internal/logging"
	"github.com/JonMunkholm/statsetl/internal/migrations"
	"github.com/JonMunkholm/statsetl/internal/sheet"
	"github.com/JonMunkholm/statsetl/internal/store/memory"
	"github.com/JonMunkholm/statsetl/internal/store/postgres"
	"github.com/JonMunkholm/statsetl/internal/validation"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:           "statsetl",
		Short:         "Match statistics workbook ETL",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(loadCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(templateCmd())

	if err := root.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// load / validate
// --------------------------------------------------------------------------

func loadCmd() *cobra.Command {
	var dryRun, asJSON bool
	cmd := &cobra.Command{
		Use:   "load FILE",
		Short: "Validate and load every match sheet in a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				loader := load.NewLoader(postgres.New(pool),
					load.WithUnitTimeout(cfg.Run.UnitTimeout),
					load.WithLogger(logger),
				)
				orch, err := newOrchestrator(cfg, loader)
				if err != nil {
					return err
				}

				ctx, cancel := context.WithTimeout(ctx, cfg.Run.Timeout)
				defer cancel()
				res := orch.Run(ctx, args[0], dryRun, nil)
				return report(cmd.OutOrStdout(), res, asJSON)
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate without writing to the database")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func validateCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a workbook without a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithoutDatabase()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			setLogger(cfg)

			// a dry run never reaches the loader
			orch, err := newOrchestrator(cfg, load.NewLoader(memory.New(), load.WithLogger(logger)))
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			res := orch.DryRun(ctx, args[0])
			return report(cmd.OutOrStdout(), res, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func newOrchestrator(cfg *config.Config, loader etl.UnitLoader) (*etl.Orchestrator, error) {
	thresholds, err := cfg.Thresholds()
	if err != nil {
		return nil, fmt.Errorf("load validation thresholds: %w", err)
	}
	return etl.NewOrchestrator(sheet.NewReader(logger), validation.NewPipeline(thresholds), loader, logger), nil
}

// --------------------------------------------------------------------------
// migrate
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate up|down|version",
		Short:     "Apply, roll back or inspect the schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			setLogger(cfg)

			switch args[0] {
			case "up":
				if err := migrations.Up(cfg.Database.URL); err != nil {
					return err
				}
			case "down":
				if err := migrations.Down(cfg.Database.URL); err != nil {
					return err
				}
			}
			version, dirty, err := migrations.Version(cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("read schema version: %w", err)
			}
			logger.Info("schema version", "version", version, "dirty", dirty)
			return nil
		},
	}
	return cmd
}

// --------------------------------------------------------------------------
// template
// --------------------------------------------------------------------------

func templateCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an empty workbook with the expected headers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" || output == "-" {
				return sheet.Write(cmd.OutOrStdout())
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := sheet.Write(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			logger.Info("template written", "path", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "match-stats-template.xlsx", "Output path, - for stdout")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

func setLogger(cfg *config.Config) {
	logger = logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
}

// withDatabase loads config, connects the pool and cancels on interrupt.
func withDatabase(fn func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	setLogger(cfg)

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(cfg.Database.URL); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return fn(ctx, cfg, pool)
}

// errRunFailed makes the process exit non-zero once the result is printed.
var errRunFailed = errors.New("run finished with errors")

// report prints res and returns errRunFailed when it holds errors.
func report(w io.Writer, res etl.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		printSummary(w, res)
	}
	if !res.Success {
		return errRunFailed
	}
	return nil
}

func printSummary(w io.Writer, res etl.Result) {
	mode := "load"
	if res.DryRun {
		mode = "dry run"
	}
	status := "ok"
	switch {
	case res.Cancelled:
		status = "cancelled"
	case !res.Success:
		status = "failed"
	}
	fmt.Fprintf(w, "%s %s in %s\n", mode, status, (time.Duration(res.DurationMs) * time.Millisecond).String())
	fmt.Fprintf(w, "  sheets read:     %d\n", res.SheetsRead)
	fmt.Fprintf(w, "  units valid:     %d\n", res.UnitsValid)
	fmt.Fprintf(w, "  units processed: %d\n", res.UnitsProcessed)
	fmt.Fprintf(w, "  rows created:    %d\n", res.RowsCreated)

	printIssues(w, "errors", res.Errors)
	printIssues(w, "warnings", res.Warnings)
}

func printIssues(w io.Writer, label string, issues []validation.Issue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(w, "%s (%d):\n", label, len(issues))
	for _, is := range issues {
		fmt.Fprintf(w, "  %s\n", is.Error())
		for _, d := range is.Details {
			fmt.Fprintf(w, "    %s\n", d.Error())
		}
	}
}
