package main

import (
	"fmt"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/apicrafter/metacrafter/internal/config"
	"github.com/apicrafter/metacrafter/store/sqlsource"
)

func newScanDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan-db <query>",
		Short: "Classify the fields of a SQL query's result set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := config.FromViper(v)
			return runScanDB(args[0], opts)
		},
	}
}

// runScanDB opens opts.DatabaseDSN through the lib/pq driver rather
// than gorm's default pgx dialector, to support deployments standing
// up a postgres-protocol database that pgx doesn't negotiate with.
func runScanDB(query string, opts config.Options) error {
	if opts.DatabaseDSN == "" {
		return fmt.Errorf("--database-dsn is required for scan-db")
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:        opts.DatabaseDSN,
		DriverName: "postgres",
	}), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}

	src, err := sqlsource.Open(db, query)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	defer src.Close()

	return classifyAndPrint(src, opts)
}
