package chain

import (
	"context"
	"math"
	"math/big"
	"strings"
	"time"

	"nft-marketplace/internal/config"
	"nft-marketplace/internal/domain"
	"nft-marketplace/pkg/logger"
	"nft-marketplace/pkg/utils"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
)

// Client is the subset of ethclient.Client the indexer polls.
type Client interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", rpcURL)
	}
	return client, nil
}

// LogIndexer mirrors auction contract events into the auctions table and checkpoints
// progress in indexed_status. On-chain cancels are published so open viewers are closed.
type LogIndexer struct {
	client      Client
	auctionRepo domain.AuctionRepository
	stateRepo   domain.SyncStateRepository
	eventPub    domain.EventPublisher
	cfg         config.ChainConfig
	contract    common.Address
	parsedABI   abi.ABI
	log         logger.Logger
}

// NewLogIndexer builds an indexer for cfg.ContractAddress. eventPub may be nil.
func NewLogIndexer(client Client, auctionRepo domain.AuctionRepository, stateRepo domain.SyncStateRepository,
	eventPub domain.EventPublisher, cfg config.ChainConfig, log logger.Logger) (*LogIndexer, error) {
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, errors.Errorf("invalid auction contract address %q", cfg.ContractAddress)
	}
	parsedABI, err := ParseAuctionABI()
	if err != nil {
		return nil, errors.Wrap(err, "parse auction abi")
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}

	return &LogIndexer{
		client:      client,
		auctionRepo: auctionRepo,
		stateRepo:   stateRepo,
		eventPub:    eventPub,
		cfg:         cfg,
		contract:    common.HexToAddress(cfg.ContractAddress),
		parsedABI:   parsedABI,
		log:         log,
	}, nil
}

// Run polls until ctx is cancelled. Failed batches are retried after the poll interval
// without advancing the checkpoint.
func (i *LogIndexer) Run(ctx context.Context, progress func(block uint64)) error {
	i.log.Info("Chain indexer started", "chain_id", i.cfg.ChainID, "contract", i.contract.Hex())

	for {
		indexed, caughtUp, err := i.SyncOnce(ctx)
		wait := time.Duration(0)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			i.log.Error("Chain sync batch failed", "error", err)
			wait = i.cfg.PollInterval
		case caughtUp:
			wait = i.cfg.PollInterval
		default:
			if progress != nil {
				progress(indexed)
			}
		}

		select {
		case <-ctx.Done():
			i.log.Info("Chain indexer stopped")
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// SyncOnce indexes at most one batch of confirmed blocks. It returns the last indexed block
// and whether the indexer had nothing new to read.
func (i *LogIndexer) SyncOnce(ctx context.Context) (uint64, bool, error) {
	last, found, err := i.stateRepo.GetLastIndexedBlock(ctx, i.cfg.ChainID)
	if err != nil {
		return 0, false, err
	}

	start := i.cfg.StartBlock
	if found {
		start = last + 1
	}

	head, err := i.client.BlockNumber(ctx)
	if err != nil {
		return last, false, errors.Wrap(err, "get block number")
	}
	if head < i.cfg.Confirmations {
		return last, true, nil
	}
	safeHead := head - i.cfg.Confirmations
	if start > safeHead {
		return last, true, nil
	}

	end := start + i.cfg.BatchSize - 1
	if end > safeHead {
		end = safeHead
	}

	logs, err := i.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(start),
		ToBlock:   new(big.Int).SetUint64(end),
		Addresses: []common.Address{i.contract},
	})
	if err != nil {
		return last, false, errors.Wrapf(err, "filter logs %d-%d", start, end)
	}

	for _, entry := range logs {
		if err := i.handleLog(ctx, entry); err != nil {
			return last, false, errors.Wrapf(err, "block %d tx %s", entry.BlockNumber, entry.TxHash.Hex())
		}
	}

	if err := i.stateRepo.SetLastIndexedBlock(ctx, i.cfg.ChainID, end); err != nil {
		return last, false, err
	}

	i.log.Debug("Indexed blocks", "from", start, "to", end, "logs", len(logs))
	return end, false, nil
}

func (i *LogIndexer) handleLog(ctx context.Context, entry types.Log) error {
	if len(entry.Topics) == 0 || entry.Removed {
		return nil
	}

	switch entry.Topics[0] {
	case i.parsedABI.Events[EventAuctionCreated].ID:
		return i.handleAuctionCreated(ctx, entry)
	case i.parsedABI.Events[EventAuctionCancelled].ID:
		return i.handleAuctionCancelled(ctx, entry)
	}
	return nil
}

func (i *LogIndexer) handleAuctionCreated(ctx context.Context, entry types.Log) error {
	if len(entry.Topics) < 3 {
		return errors.New("AuctionCreated: missing indexed topics")
	}

	var data auctionCreatedData
	if err := i.parsedABI.UnpackIntoInterface(&data, EventAuctionCreated, entry.Data); err != nil {
		return errors.Wrap(err, "unpack AuctionCreated")
	}

	auctionID, err := topicToInt64(entry.Topics[1])
	if err != nil {
		return err
	}
	if data.EndTime > math.MaxInt64 {
		return errors.Errorf("end time %d of auction %d overflows int64", data.EndTime, auctionID)
	}

	tokenIDs := make([]string, 0, len(data.TokenIds))
	for _, id := range data.TokenIds {
		tokenIDs = append(tokenIDs, id.String())
	}

	auction := &domain.Auction{
		AuctionID:          auctionID,
		AuctionType:        auctionTypeOf(data.Bundle),
		Status:             domain.AuctionActive,
		EndTime:            int64(data.EndTime),
		SellerAddress:      strings.ToLower(common.BytesToAddress(entry.Topics[2].Bytes()).Hex()),
		NFTContractAddress: strings.ToLower(data.NftContract.Hex()),
		TokenIDs:           tokenIDs,
	}
	if err := i.auctionRepo.UpsertAuction(ctx, auction); err != nil {
		return err
	}

	i.log.Info("Auction mirrored", "auction_id", auctionID, "auction_type", auction.AuctionType,
		"end_time", auction.EndTime)
	return nil
}

// handleAuctionCancelled cancels the mirrored row. Rows that are unknown or already past
// active are skipped.
func (i *LogIndexer) handleAuctionCancelled(ctx context.Context, entry types.Log) error {
	if len(entry.Topics) < 2 {
		return errors.New("AuctionCancelled: missing indexed topics")
	}

	var data auctionCancelledData
	if err := i.parsedABI.UnpackIntoInterface(&data, EventAuctionCancelled, entry.Data); err != nil {
		return errors.Wrap(err, "unpack AuctionCancelled")
	}

	auctionID, err := topicToInt64(entry.Topics[1])
	if err != nil {
		return err
	}
	auctionType := auctionTypeOf(data.Bundle)

	err = i.auctionRepo.TransitionStatus(ctx, auctionID, auctionType, domain.AuctionActive, domain.AuctionCancelled)
	if domain.IsNotFound(err) || errors.Is(err, domain.ErrInvalidTransition) {
		i.log.Warn("Skipping on-chain cancel", "auction_id", auctionID, "auction_type", auctionType, "reason", err)
		return nil
	}
	if err != nil {
		return err
	}

	i.log.Info("Auction cancelled on chain", "auction_id", auctionID, "auction_type", auctionType)
	i.publishCancelled(ctx, auctionID, auctionType)
	return nil
}

// publishCancelled runs after the row is cancelled; failures are logged, never returned.
func (i *LogIndexer) publishCancelled(ctx context.Context, auctionID int64, auctionType domain.AuctionType) {
	if i.eventPub == nil {
		return
	}
	event := &domain.AuctionEvent{
		EventID:     utils.GenerateID("evt"),
		Type:        domain.EventAuctionCancelled,
		AuctionID:   auctionID,
		AuctionType: auctionType,
		Timestamp:   time.Now().UTC(),
	}
	if err := i.eventPub.PublishAuctionEvent(ctx, event); err != nil {
		i.log.Error("Failed to publish auction event", "type", event.Type, "auction_id", auctionID, "error", err)
	}
}

func auctionTypeOf(bundle bool) domain.AuctionType {
	if bundle {
		return domain.AuctionBundle
	}
	return domain.AuctionSingle
}

func topicToInt64(topic common.Hash) (int64, error) {
	id := new(big.Int).SetBytes(topic.Bytes())
	if !id.IsInt64() {
		return 0, errors.Errorf("auction id %s overflows int64", id)
	}
	return id.Int64(), nil
}
