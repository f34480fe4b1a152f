package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"solicitudes/internal/platform/config"
	"solicitudes/internal/platform/database"
	"solicitudes/internal/platform/logger"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd.Context(), opts, func(ctx context.Context, p *goose.Provider, log *slog.Logger) error {
					results, err := p.Up(ctx)
					for _, r := range results {
						log.InfoContext(ctx, "migration applied", "version", r.Source.Version, "duration", r.Duration)
					}
					return err
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd.Context(), opts, func(ctx context.Context, p *goose.Provider, log *slog.Logger) error {
					r, err := p.Down(ctx)
					if errors.Is(err, goose.ErrNoNextVersion) {
						log.InfoContext(ctx, "nothing to roll back")
						return nil
					}
					if err != nil {
						return err
					}
					log.InfoContext(ctx, "migration rolled back", "version", r.Source.Version)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the state of every migration",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd.Context(), opts, func(ctx context.Context, p *goose.Provider, _ *slog.Logger) error {
					statuses, err := p.Status(ctx)
					if err != nil {
						return err
					}
					return printStatus(cmd.OutOrStdout(), statuses)
				})
			},
		},
	)
	return cmd
}

func withMigrator(ctx context.Context, opts *rootOptions, fn func(context.Context, *goose.Provider, *slog.Logger) error) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL is required to run migrations")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	db, err := openMigrationDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	provider, err := database.NewMigrator(db)
	if err != nil {
		return err
	}
	return fn(ctx, provider, log)
}

func openMigrationDB(ctx context.Context, cfg config.Server) (*sqlx.DB, error) {
	driver := cfg.Database.Driver
	if cfg.Storage.Driver == config.StorageGorm {
		driver = database.DriverPgx
	}
	return database.Open(ctx, database.Config{Driver: driver, URL: cfg.Database.URL, MaxOpenConns: 1})
}

func printStatus(out io.Writer, statuses []*goose.MigrationStatus) error {
	if out == nil {
		out = os.Stdout
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tSOURCE")
	for _, s := range statuses {
		applied := "-"
		if !s.AppliedAt.IsZero() {
			applied = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
	}
	return tw.Flush()
}
