package mysql

import (
	"context"
	"database/sql"

	"nft-marketplace/internal/domain"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type MySQLBidRepository struct {
	db *sql.DB
}

func NewMySQLBidRepository(db *sql.DB) *MySQLBidRepository {
	return &MySQLBidRepository{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertBidEvent(ctx context.Context, db execer, record *domain.BidRecord) error {
	query := `
        INSERT INTO bid_events (event_id, auction_id, auction_type, bidder_address, bid_amount,
            end_time, extended, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := db.ExecContext(ctx, query,
		record.EventID, record.AuctionID, string(record.AuctionType), record.BidderAddress,
		record.BidAmount.String(), record.EndTime, record.Extended, record.CreatedAt)
	return errors.Wrap(err, "insert bid event")
}

func (r *MySQLBidRepository) GetBidHistory(ctx context.Context, auctionID int64, auctionType domain.AuctionType, limit int) ([]*domain.BidRecord, error) {
	query := `
        SELECT event_id, auction_id, auction_type, bidder_address, bid_amount, end_time, extended, created_at
        FROM bid_events
        WHERE auction_id = ? AND auction_type = ?
        ORDER BY created_at DESC, id DESC
        LIMIT ?
    `

	rows, err := r.db.QueryContext(ctx, query, auctionID, string(auctionType), limit)
	if err != nil {
		return nil, errors.Wrap(err, "query bid history")
	}
	defer rows.Close()

	records := make([]*domain.BidRecord, 0)
	for rows.Next() {
		var record domain.BidRecord
		var auctionType, amount string

		err := rows.Scan(&record.EventID, &record.AuctionID, &auctionType, &record.BidderAddress,
			&amount, &record.EndTime, &record.Extended, &record.CreatedAt)
		if err != nil {
			return nil, errors.Wrap(err, "scan bid event")
		}

		record.AuctionType = domain.AuctionType(auctionType)
		if record.BidAmount, err = decimal.NewFromString(amount); err != nil {
			return nil, errors.Wrapf(err, "parse bid amount of event %s", record.EventID)
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}
