package main

import (
	"os"

	"nft-marketplace/internal/config"
	"nft-marketplace/pkg/logger"

	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "marketplace",
	Short: "NFT marketplace backend",
	Long: `Serves the marketplace HTTP and websocket API, mirrors the auction contract
from chain and manages the MySQL schema.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (defaults to ./config.yaml when present)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(migrateCmd)
}

// bootstrap loads configuration and builds the process logger.
func bootstrap() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.New().Error("Failed to load config", "path", configPath, "error", err)
		return nil, nil, err
	}
	log := logger.NewWithConfig(cfg.Log.Level, cfg.Log.Development)
	return cfg, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
