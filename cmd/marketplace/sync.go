package main

import (
	"context"
	"os/signal"
	"syscall"

	"nft-marketplace/internal/domain"
	"nft-marketplace/internal/infrastructure/chain"
	"nft-marketplace/internal/infrastructure/mysql"
	"nft-marketplace/internal/infrastructure/redis"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror auction contract events into MySQL until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		if cfg.Chain.ContractAddress == "" {
			return errors.New("chain.contract_address is required for sync")
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		db, err := openMySQL(ctx, cfg.MySQL, log)
		if err != nil {
			return err
		}
		defer db.Close()

		var eventPub domain.EventPublisher
		if rdb, err := openRedis(ctx, cfg.Redis, log); err != nil {
			log.Warn("Redis unavailable, viewers of cancelled auctions will not be notified", "error", err)
		} else {
			defer rdb.Close()
			eventPub = redis.NewRedisEventPublisher(rdb)
		}

		client, err := chain.Dial(ctx, cfg.Chain.RPCURL)
		if err != nil {
			return err
		}
		defer client.Close()

		indexer, err := chain.NewLogIndexer(client, mysql.NewMySQLAuctionRepository(db),
			mysql.NewMySQLSyncStateRepository(db), eventPub, cfg.Chain, log)
		if err != nil {
			return err
		}

		err = indexer.Run(ctx, func(block uint64) {
			log.Debug("Checkpoint advanced", "block", block)
		})
		if errors.Is(err, context.Canceled) {
			log.Info("Sync stopped by signal")
			return nil
		}
		return err
	},
}
