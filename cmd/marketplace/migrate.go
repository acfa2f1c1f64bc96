package main

import (
	"context"
	"strconv"

	"nft-marketplace/internal/infrastructure/mysql"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the MySQL schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		cfg.MySQL.AutoMigrate = false
		db, err := openMySQL(context.Background(), cfg.MySQL, log)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := mysql.RunMigrations(db); err != nil {
			log.Error("Migration failed", "error", err)
			return err
		}
		log.Info("Migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back migrations, one step unless told otherwise",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return errors.Errorf("steps must be a positive integer, got %q", args[0])
			}
			steps = n
		}

		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		cfg.MySQL.AutoMigrate = false
		db, err := openMySQL(context.Background(), cfg.MySQL, log)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := mysql.MigrateDown(db, steps); err != nil {
			log.Error("Rollback failed", "steps", steps, "error", err)
			return err
		}
		log.Info("Migrations rolled back", "steps", steps)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}
