package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/ctks/admin-console/internal/config"
	"github.com/ctks/admin-console/internal/db"
)

var migrationsDir string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the audit tables (dev: DROP & CREATE)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		mysqlDB, err := db.OpenMySQL(cfg.MySQL)
		if err != nil {
			return fmt.Errorf("open mysql: %w", err)
		}
		defer mysqlDB.Close()
		if err := runMigrations(mysqlDB, filepath.Join(migrationsDir, "mysql")); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ">> MySQL migration complete")

		if cfg.ClickHouse.DSN == "" {
			fmt.Fprintln(cmd.OutOrStdout(), ">> ClickHouse not configured, skipped")
			return nil
		}
		chDB, err := db.OpenClickHouse(cfg.ClickHouse)
		if err != nil {
			return fmt.Errorf("open clickhouse: %w", err)
		}
		defer chDB.Close()
		if err := runMigrations(chDB, filepath.Join(migrationsDir, "clickhouse")); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ">> ClickHouse migration complete")
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrationsDir, "dir", "migrations", "migrations directory")
}

// runMigrations executes every .sql file in dir in name order, one statement
// at a time (neither driver is opened with multi-statement support).
func runMigrations(dbx *sqlx.DB, dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no migrations in %s", dir)
	}
	for _, path := range files {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read migration file %s: %w", path, err)
		}
		for _, stmt := range strings.Split(string(raw), ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, err := dbx.Exec(stmt); err != nil {
				return fmt.Errorf("exec %s: %w", filepath.Base(path), err)
			}
		}
	}
	return nil
}
