package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"nft-marketplace/internal/domain"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

const auctionColumns = `auction_id, auction_type, status, end_time, total_bid, seller_address,
        nft_contract_address, token_ids, reclaim_nft, created_at, updated_at`

type MySQLAuctionRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewMySQLAuctionRepository(db *sql.DB) *MySQLAuctionRepository {
	return &MySQLAuctionRepository{db: db, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAuction(row rowScanner) (*domain.Auction, error) {
	var auction domain.Auction
	var auctionType, status, tokenIDs string
	var reclaim sql.NullInt64

	err := row.Scan(&auction.AuctionID, &auctionType, &status, &auction.EndTime, &auction.TotalBid,
		&auction.SellerAddress, &auction.NFTContractAddress, &tokenIDs, &reclaim,
		&auction.CreatedAt, &auction.UpdatedAt)
	if err != nil {
		return nil, err
	}

	auction.AuctionType = domain.AuctionType(auctionType)
	auction.Status = domain.AuctionStatus(status)
	if reclaim.Valid {
		v := reclaim.Int64
		auction.ReclaimNFT = &v
	}
	if tokenIDs != "" {
		if err := json.Unmarshal([]byte(tokenIDs), &auction.TokenIDs); err != nil {
			return nil, errors.Wrapf(err, "decode token_ids of auction %d", auction.AuctionID)
		}
	}
	return &auction, nil
}

func (r *MySQLAuctionRepository) GetAuction(ctx context.Context, auctionID int64, auctionType domain.AuctionType) (*domain.Auction, error) {
	query := `
        SELECT ` + auctionColumns + `
        FROM auctions WHERE auction_id = ? AND auction_type = ?
    `

	auction, err := scanAuction(r.db.QueryRowContext(ctx, query, auctionID, string(auctionType)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(domain.ErrAuctionNotFound, "auction %d (%s)", auctionID, auctionType)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get auction")
	}
	return auction, nil
}

func (r *MySQLAuctionRepository) ListAuctions(ctx context.Context, filter domain.AuctionFilter) ([]*domain.Auction, error) {
	var conds []string
	var args []interface{}

	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.AuctionType != "" {
		conds = append(conds, "auction_type = ?")
		args = append(args, string(filter.AuctionType))
	}
	if filter.SellerAddress != "" {
		conds = append(conds, "seller_address = ?")
		args = append(args, filter.SellerAddress)
	}

	query := `SELECT ` + auctionColumns + ` FROM auctions`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY end_time ASC, auction_id ASC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list auctions")
	}
	defer rows.Close()

	auctions := make([]*domain.Auction, 0)
	for rows.Next() {
		auction, err := scanAuction(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan auction")
		}
		auctions = append(auctions, auction)
	}

	return auctions, rows.Err()
}

// UpsertAuction inserts a mirrored auction or refreshes its descriptive columns.
// status, end_time and total_bid of an existing row are left alone so the sync never
// rewinds state that the bid and lifecycle paths already advanced.
func (r *MySQLAuctionRepository) UpsertAuction(ctx context.Context, auction *domain.Auction) error {
	tokenIDs, err := json.Marshal(auction.TokenIDs)
	if err != nil {
		return errors.Wrap(err, "encode token_ids")
	}

	var reclaim sql.NullInt64
	if auction.ReclaimNFT != nil {
		reclaim = sql.NullInt64{Int64: *auction.ReclaimNFT, Valid: true}
	}

	query := `
        INSERT INTO auctions (auction_id, auction_type, status, end_time, total_bid, seller_address,
            nft_contract_address, token_ids, reclaim_nft, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE seller_address = VALUES(seller_address),
            nft_contract_address = VALUES(nft_contract_address), token_ids = VALUES(token_ids),
            reclaim_nft = VALUES(reclaim_nft), updated_at = VALUES(updated_at)
    `
	now := r.now()
	_, err = r.db.ExecContext(ctx, query,
		auction.AuctionID, string(auction.AuctionType), string(auction.Status), auction.EndTime,
		auction.TotalBid, auction.SellerAddress, auction.NFTContractAddress, string(tokenIDs),
		reclaim, now, now)
	return errors.Wrap(err, "upsert auction")
}

// ApplyBid runs fn against the row locked with SELECT ... FOR UPDATE, so two bids on the
// same auction observe each other's end_time and total_bid. The bid_events row commits
// with the counter, so history never depends on the event stream.
func (r *MySQLAuctionRepository) ApplyBid(ctx context.Context, auctionID int64, auctionType domain.AuctionType, fn domain.BidMutator) (*domain.Auction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin bid transaction")
	}
	defer func() {
		// no-op after a successful commit
		_ = tx.Rollback()
	}()

	query := `
        SELECT ` + auctionColumns + `
        FROM auctions WHERE auction_id = ? AND auction_type = ? FOR UPDATE
    `
	auction, err := scanAuction(tx.QueryRowContext(ctx, query, auctionID, string(auctionType)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(domain.ErrAuctionNotFound, "auction %d (%s)", auctionID, auctionType)
	}
	if err != nil {
		return nil, errors.Wrap(err, "lock auction")
	}

	originalEnd := auction.EndTime
	record, err := fn(auction)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, errors.Errorf("bid on auction %d produced no bid record", auctionID)
	}
	if auction.EndTime < originalEnd {
		return nil, errors.Errorf("end_time of auction %d would move backward", auctionID)
	}

	update := `
        UPDATE auctions SET total_bid = ?, end_time = ?, updated_at = ?
        WHERE auction_id = ? AND auction_type = ?
    `
	if _, err := tx.ExecContext(ctx, update, auction.TotalBid, auction.EndTime, auction.UpdatedAt,
		auctionID, string(auctionType)); err != nil {
		return nil, errors.Wrap(err, "update auction bid")
	}
	if err := insertBidEvent(ctx, tx, record); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit bid transaction")
	}
	return auction, nil
}

func (r *MySQLAuctionRepository) MarkExpiredEnded(ctx context.Context, now int64) (int64, error) {
	query := `UPDATE auctions SET status = ?, updated_at = ? WHERE status = ? AND end_time <= ?`
	res, err := r.db.ExecContext(ctx, query, string(domain.AuctionEnded), r.now(),
		string(domain.AuctionActive), now)
	if err != nil {
		return 0, errors.Wrap(err, "mark expired auctions ended")
	}
	return res.RowsAffected()
}

func (r *MySQLAuctionRepository) MarkAuctionEndedIfExpired(ctx context.Context, auctionID int64, auctionType domain.AuctionType, now int64) error {
	query := `
        UPDATE auctions SET status = ?, updated_at = ?
        WHERE auction_id = ? AND auction_type = ? AND status = ? AND end_time <= ?
    `
	_, err := r.db.ExecContext(ctx, query, string(domain.AuctionEnded), r.now(),
		auctionID, string(auctionType), string(domain.AuctionActive), now)
	return errors.Wrap(err, "mark auction ended")
}

// TransitionStatus is a conditional update on the expected status. When no row matches,
// the row is re-read to tell a missing auction from a state conflict.
func (r *MySQLAuctionRepository) TransitionStatus(ctx context.Context, auctionID int64, auctionType domain.AuctionType, from, to domain.AuctionStatus) error {
	if !domain.CanTransition(from, to) {
		return errors.Wrapf(domain.ErrInvalidTransition, "%s -> %s", from, to)
	}

	query := `
        UPDATE auctions SET status = ?, updated_at = ?
        WHERE auction_id = ? AND auction_type = ? AND status = ?
    `
	res, err := r.db.ExecContext(ctx, query, string(to), r.now(), auctionID, string(auctionType), string(from))
	if err != nil {
		return errors.Wrap(err, "transition auction status")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "transition auction status")
	}
	if affected == 1 {
		return nil
	}

	current, err := r.GetAuction(ctx, auctionID, auctionType)
	if err != nil {
		return err
	}
	return errors.Wrapf(domain.ErrInvalidTransition, "auction %d is %s, expected %s", auctionID, current.Status, from)
}
