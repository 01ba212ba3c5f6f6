package main

import (
	"github.com/Chihaouimed/PV/internal/pv/migrations"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the reporting view migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		zapLogger, err := initLogger(cfg.Log)
		if err != nil {
			return err
		}
		defer zapLogger.Sync()

		db, err := initDatabase(cfg.Database, false)
		if err != nil {
			return err
		}
		return migrations.Up(db, zapLogger)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := initDatabase(cfg.Database, false)
		if err != nil {
			return err
		}
		return migrations.Status(db)
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}
