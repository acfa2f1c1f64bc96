package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nft-marketplace/internal/api"
	"nft-marketplace/internal/api/handlers"
	"nft-marketplace/internal/config"
	"nft-marketplace/internal/domain"
	"nft-marketplace/internal/infrastructure/chain"
	"nft-marketplace/internal/infrastructure/ipfs"
	"nft-marketplace/internal/infrastructure/leader"
	"nft-marketplace/internal/infrastructure/mysql"
	"nft-marketplace/internal/infrastructure/oracle"
	"nft-marketplace/internal/infrastructure/redis"
	ws "nft-marketplace/internal/infrastructure/websocket"
	"nft-marketplace/internal/services"
	"nft-marketplace/pkg/logger"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout        = 30 * time.Second
	leaderRetryInterval    = 5 * time.Second
	// pause before resubscribing to auction events after the subscription drops
	subscribeRetryInterval = 2 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the marketplace API, websocket feed and background workers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		log.Info("Starting NFT marketplace", "version", version, "config", cfg.GetConfigString())
		return serve(cfg, log)
	},
}

func serve(cfg *config.Config, log logger.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := openMySQL(ctx, cfg.MySQL, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close MySQL connection", "error", err)
		}
	}()

	rdb, err := openRedis(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer rdb.Close()

	// Repositories
	auctionRepo := mysql.NewMySQLAuctionRepository(db)
	bidRepo := mysql.NewMySQLBidRepository(db)
	listingRepo := mysql.NewMySQLListingRepository(db)
	userRepo := mysql.NewMySQLUserRepository(db)
	syncStateRepo := mysql.NewMySQLSyncStateRepository(db)

	// Redis based components
	eventPublisher := redis.NewRedisEventPublisher(rdb)
	eventSubscriber := redis.NewRedisEventSubscriber(rdb, log)
	priceCache := redis.NewRedisPriceCache(rdb)
	leaderElection := leader.NewRedisLeaderElection(rdb, cfg.Leader.TTL)

	// Services
	rule := services.NewExtensionRule(cfg.Auction.SnipeWindow)
	bidService := services.NewBidService(auctionRepo, eventPublisher, rule, log)
	auctionManager := services.NewAuctionManager(auctionRepo, bidRepo, eventPublisher, log)
	listingService := services.NewListingService(listingRepo, log)
	userService := services.NewUserService(userRepo, log)
	priceService := services.NewPriceService(
		oracle.NewCoinGeckoClient(cfg.Oracle.BaseURL, cfg.Oracle.Timeout),
		priceCache, cfg.Oracle.TokenID, cfg.Oracle.CacheTTL, log)
	pinner := ipfs.NewShellPinner(cfg.IPFS.APIURL, cfg.IPFS.GatewayURL)

	connManager := ws.NewConnectionManager(log)
	eventListener := services.NewEventListener(ws.NewWebSocketNotifier(connManager), log)

	var syncController handlers.SyncController
	var syncService *services.SyncService
	if cfg.Chain.ContractAddress != "" {
		syncService, err = newSyncService(ctx, cfg.Chain, auctionRepo, syncStateRepo, eventPublisher, log)
		if err != nil {
			return err
		}
		syncController = syncService
	} else {
		log.Warn("chain.contract_address is empty, chain sync disabled")
	}

	router := api.NewRouter(api.Handlers{
		Auctions:  handlers.NewAuctionHandler(auctionManager, bidService, log),
		Listings:  handlers.NewListingHandler(listingService, log),
		Users:     handlers.NewUserHandler(userService, log),
		Market:    handlers.NewMarketHandler(priceService, pinner, log),
		Sync:      handlers.NewSyncHandler(ctx, syncController, log),
		WebSocket: handlers.NewWebSocketHandler(auctionManager, connManager, log),
	}, api.Options{
		Service:      "nft-marketplace",
		Version:      version,
		AllowOrigins: cfg.Server.AllowOrigins,
	}, log)

	// Background workers
	go func() {
		_ = eventListener.Run(ctx, eventSubscriber, subscribeRetryInterval)
	}()

	var sweeper *services.StatusSweeper
	if cfg.Auction.SweepEnabled {
		sweeper = services.NewStatusSweeper(cfg.Auction.SweepSpec, auctionManager, leaderElection, cfg.Instance.ID, log)
		if err := sweeper.Start(ctx); err != nil {
			return errors.Wrap(err, "start status sweeper")
		}
		go runLeaderLoop(ctx, leaderElection, cfg.Instance.ID, log)
	}

	if syncService != nil && cfg.Chain.AutoStart {
		if err := syncService.Start(ctx); err != nil {
			return errors.Wrap(err, "start chain sync")
		}
	}

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Starting HTTP server", "address", serverAddr)

	serverErr := make(chan error, 1)
	go func() {
		if err := router.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		log.Info("Shutting down", "signal", sig.String())
	case runErr = <-serverErr:
		log.Error("Server failed", "error", runErr)
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := router.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	cancel()

	if sweeper != nil {
		if err := sweeper.Stop(shutdownCtx); err != nil {
			log.Error("Failed to stop status sweeper", "error", err)
		}
		if err := leaderElection.ReleaseLeadership(shutdownCtx, cfg.Instance.ID); err != nil {
			log.Error("Failed to release leadership", "error", err)
		}
	}
	if syncService != nil {
		if err := syncService.Stop(shutdownCtx); err != nil && !errors.Is(err, domain.ErrSyncNotRunning) {
			log.Error("Failed to stop chain sync", "error", err)
		}
	}

	log.Info("NFT marketplace stopped")
	return runErr
}

// runLeaderLoop campaigns for the sweeper lease and keeps renewing it while held.
func runLeaderLoop(ctx context.Context, election *leader.RedisLeaderElection, instanceID string, log logger.Logger) {
	for {
		became, err := election.BecomeLeader(ctx, instanceID)
		switch {
		case err != nil && ctx.Err() == nil:
			log.Error("Failed to attempt leadership", "error", err)
		case became:
			log.Info("Became marketplace leader", "instance_id", instanceID)
			election.MaintainLeadership(ctx, instanceID)
			if ctx.Err() == nil {
				log.Warn("Lost marketplace leadership", "instance_id", instanceID)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(leaderRetryInterval):
		}
	}
}

func newSyncService(ctx context.Context, cfg config.ChainConfig, auctionRepo *mysql.MySQLAuctionRepository,
	syncStateRepo *mysql.MySQLSyncStateRepository, eventPub domain.EventPublisher, log logger.Logger) (*services.SyncService, error) {
	client, err := chain.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return nil, err
	}
	indexer, err := chain.NewLogIndexer(client, auctionRepo, syncStateRepo, eventPub, cfg, log)
	if err != nil {
		client.Close()
		return nil, err
	}
	return services.NewSyncService(indexer, log), nil
}
