package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

// MySQLSyncStateRepository stores the chain sync checkpoint, one row per chain.
type MySQLSyncStateRepository struct {
	db *sql.DB
}

func NewMySQLSyncStateRepository(db *sql.DB) *MySQLSyncStateRepository {
	return &MySQLSyncStateRepository{db: db}
}

func (r *MySQLSyncStateRepository) GetLastIndexedBlock(ctx context.Context, chainID int64) (uint64, bool, error) {
	query := `SELECT last_indexed_block FROM indexed_status WHERE chain_id = ?`

	var block uint64
	err := r.db.QueryRowContext(ctx, query, chainID).Scan(&block)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, "get last indexed block")
	}
	return block, true, nil
}

func (r *MySQLSyncStateRepository) SetLastIndexedBlock(ctx context.Context, chainID int64, block uint64) error {
	query := `
        INSERT INTO indexed_status (chain_id, last_indexed_block, updated_at)
        VALUES (?, ?, ?)
        ON DUPLICATE KEY UPDATE last_indexed_block = VALUES(last_indexed_block), updated_at = VALUES(updated_at)
    `
	_, err := r.db.ExecContext(ctx, query, chainID, block, time.Now())
	return errors.Wrap(err, "set last indexed block")
}
