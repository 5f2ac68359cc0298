// fooodis-cli runs the scheduled post publisher from the command line.
//
// Usage:
//
//	fooodis-cli [--json] <command> [flags]
//
// Commands:
//
//	migrate   Create missing tables
//	due       List posts that are due now
//	sweep     Publish every due post once
//	publish   Publish one post immediately
//	requeue   Recover posts stuck in publishing
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	config "github.com/Houman6460/fooodis-blog-sub005/configs"
	"github.com/Houman6460/fooodis-blog-sub005/internal/cli"
	"github.com/Houman6460/fooodis-blog-sub005/internal/repository"
	"github.com/Houman6460/fooodis-blog-sub005/internal/service"
	"github.com/Houman6460/fooodis-blog-sub005/internal/telemetry"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}
	telemetry.SetupLogger()

	cfg := config.LoadConfig()

	var (
		jsonOutput bool
		db         *sql.DB
	)

	rootCmd := &cobra.Command{
		Use:           "fooodis-cli",
		Short:         "Scheduled post publisher tools",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&cfg.DBDriver, "driver", cfg.DBDriver, "Database driver (postgres, sqlite)")
	rootCmd.PersistentFlags().StringVar(&cfg.DatabaseURI, "database", cfg.DatabaseURI, "Database connection string")

	openDB := func(cmd *cobra.Command) (*sql.DB, error) {
		if db != nil {
			return db, nil
		}
		if cfg.DatabaseURI == "" {
			return nil, service.ErrStoreUnavailable
		}
		var err error
		db, err = repository.Open(cmd.Context(), cfg.DBDriver, cfg.DatabaseURI)
		return db, err
	}

	publisherFn := func(cmd *cobra.Command) (service.PublisherService, error) {
		conn, err := openDB(cmd)
		if err != nil {
			return nil, err
		}
		sb := repository.Builder(cfg.DBDriver)
		return service.NewPublisherService(conn,
			repository.NewScheduledPostRepository(conn, sb),
			repository.NewBlogPostRepository(conn, sb),
			repository.NewScheduledPostHistoryRepository(conn, sb),
			repository.NewCategoryRepository(conn, sb),
		), nil
	}
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := openDB(cmd)
			if err != nil {
				return err
			}
			if err := repository.Migrate(cmd.Context(), conn); err != nil {
				return err
			}
			outputFn().Success("schema is up to date")
			return nil
		},
	}

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(cli.NewScheduledPostCmds(publisherFn, outputFn)...)

	err := rootCmd.Execute()
	if db != nil {
		db.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
