package mysql

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"nft-marketplace/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var auctionRowColumns = []string{
	"auction_id", "auction_type", "status", "end_time", "total_bid", "seller_address",
	"nft_contract_address", "token_ids", "reclaim_nft", "created_at", "updated_at",
}

var fixedNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func newAuctionRepo(t *testing.T) (*MySQLAuctionRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewMySQLAuctionRepository(db)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock
}

func auctionRow(status string, endTime, totalBid int64) *sqlmock.Rows {
	return sqlmock.NewRows(auctionRowColumns).AddRow(
		int64(7), "single", status, endTime, totalBid,
		"0x32be343b94f860124dc4fee278fdcbd38c102d88",
		"0x00000000000000000000000000000000000000aa",
		`["1","2"]`, nil, fixedNow, fixedNow)
}

func TestGetAuction(t *testing.T) {
	repo, mock := newAuctionRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM auctions WHERE auction_id = ? AND auction_type = ?")).
		WithArgs(int64(7), "single").
		WillReturnRows(auctionRow("active", 1000000, 3))

	auction, err := repo.GetAuction(context.Background(), 7, domain.AuctionSingle)
	require.NoError(t, err)
	assert.Equal(t, int64(7), auction.AuctionID)
	assert.Equal(t, domain.AuctionActive, auction.Status)
	assert.Equal(t, []string{"1", "2"}, auction.TokenIDs)
	assert.Nil(t, auction.ReclaimNFT)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAuctionNotFound(t *testing.T) {
	repo, mock := newAuctionRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM auctions WHERE auction_id = ?")).
		WithArgs(int64(9), "bundle").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetAuction(context.Background(), 9, domain.AuctionBundle)
	assert.True(t, errors.Is(err, domain.ErrAuctionNotFound))
}

func TestListAuctionsWithFilter(t *testing.T) {
	repo, mock := newAuctionRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM auctions WHERE status = ? AND seller_address = ? ORDER BY end_time ASC, auction_id ASC LIMIT ? OFFSET ?")).
		WithArgs("active", "0xabc", 20, 40).
		WillReturnRows(auctionRow("active", 1000000, 0))

	auctions, err := repo.ListAuctions(context.Background(), domain.AuctionFilter{
		Status: domain.AuctionActive, SellerAddress: "0xabc", Limit: 20, Offset: 40,
	})
	require.NoError(t, err)
	assert.Len(t, auctions, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func bidRecord(a *domain.Auction) *domain.BidRecord {
	return &domain.BidRecord{
		EventID: "bid_1", AuctionID: a.AuctionID, AuctionType: a.AuctionType, BidderAddress: "0xbidder",
		BidAmount: decimal.RequireFromString("1.5"), EndTime: a.EndTime, Extended: true, CreatedAt: fixedNow,
	}
}

func TestApplyBidCommitsCounterAndHistory(t *testing.T) {
	repo, mock := newAuctionRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM auctions WHERE auction_id = ? AND auction_type = ? FOR UPDATE")).
		WithArgs(int64(7), "single").
		WillReturnRows(auctionRow("active", 1000000, 3))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE auctions SET total_bid = ?, end_time = ?, updated_at = ?")).
		WithArgs(int64(4), int64(1000100), fixedNow, int64(7), "single").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bid_events")).
		WithArgs("bid_1", int64(7), "single", "0xbidder", "1.5", int64(1000100), true, fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	auction, err := repo.ApplyBid(context.Background(), 7, domain.AuctionSingle, func(a *domain.Auction) (*domain.BidRecord, error) {
		a.TotalBid++
		a.EndTime = 1000100
		a.UpdatedAt = fixedNow
		return bidRecord(a), nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), auction.TotalBid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyBidHistoryFailureRollsBackCounter(t *testing.T) {
	repo, mock := newAuctionRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WillReturnRows(auctionRow("active", 1000000, 3))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE auctions SET total_bid")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bid_events")).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.ApplyBid(context.Background(), 7, domain.AuctionSingle, func(a *domain.Auction) (*domain.BidRecord, error) {
		a.TotalBid++
		return bidRecord(a), nil
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyBidRequiresBidRecord(t *testing.T) {
	repo, mock := newAuctionRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WillReturnRows(auctionRow("active", 1000000, 3))
	mock.ExpectRollback()

	_, err := repo.ApplyBid(context.Background(), 7, domain.AuctionSingle, func(a *domain.Auction) (*domain.BidRecord, error) {
		a.TotalBid++
		return nil, nil
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyBidRollsBackOnMutatorError(t *testing.T) {
	repo, mock := newAuctionRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(auctionRow("ended", 1000000, 3))
	mock.ExpectRollback()

	_, err := repo.ApplyBid(context.Background(), 7, domain.AuctionSingle, func(a *domain.Auction) (*domain.BidRecord, error) {
		return nil, domain.ErrAuctionNotActive
	})
	assert.True(t, errors.Is(err, domain.ErrAuctionNotActive))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyBidNotFoundRollsBack(t *testing.T) {
	repo, mock := newAuctionRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.ApplyBid(context.Background(), 7, domain.AuctionSingle, func(a *domain.Auction) (*domain.BidRecord, error) {
		t.Fatal("mutator must not run for a missing auction")
		return nil, nil
	})
	assert.True(t, errors.Is(err, domain.ErrAuctionNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyBidRejectsBackwardEndTime(t *testing.T) {
	repo, mock := newAuctionRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WillReturnRows(auctionRow("active", 1000000, 0))
	mock.ExpectRollback()

	_, err := repo.ApplyBid(context.Background(), 7, domain.AuctionSingle, func(a *domain.Auction) (*domain.BidRecord, error) {
		a.EndTime = 999
		return bidRecord(a), nil
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyBidUpdateFailureRollsBack(t *testing.T) {
	repo, mock := newAuctionRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WillReturnRows(auctionRow("active", 1000000, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE auctions SET total_bid")).WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	_, err := repo.ApplyBid(context.Background(), 7, domain.AuctionSingle, func(a *domain.Auction) (*domain.BidRecord, error) {
		a.TotalBid++
		return bidRecord(a), nil
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkExpiredEnded(t *testing.T) {
	repo, mock := newAuctionRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE auctions SET status = ?, updated_at = ? WHERE status = ? AND end_time <= ?")).
		WithArgs("ended", fixedNow, "active", int64(5000)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.MarkExpiredEnded(context.Background(), 5000)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestTransitionStatus(t *testing.T) {
	repo, mock := newAuctionRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("WHERE auction_id = ? AND auction_type = ? AND status = ?")).
		WithArgs("finalized", fixedNow, int64(7), "single", "ended").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.TransitionStatus(context.Background(), 7, domain.AuctionSingle, domain.AuctionEnded, domain.AuctionFinalized)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStatusConflict(t *testing.T) {
	repo, mock := newAuctionRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("WHERE auction_id = ? AND auction_type = ? AND status = ?")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM auctions WHERE auction_id = ?")).
		WillReturnRows(auctionRow("finalized", 1000000, 2))

	err := repo.TransitionStatus(context.Background(), 7, domain.AuctionSingle, domain.AuctionEnded, domain.AuctionFinalized)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
}

func TestTransitionStatusMissing(t *testing.T) {
	repo, mock := newAuctionRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("WHERE auction_id = ? AND auction_type = ? AND status = ?")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM auctions WHERE auction_id = ?")).
		WillReturnError(sql.ErrNoRows)

	err := repo.TransitionStatus(context.Background(), 7, domain.AuctionSingle, domain.AuctionActive, domain.AuctionCancelled)
	assert.True(t, errors.Is(err, domain.ErrAuctionNotFound))
}

func TestTransitionStatusRejectsIllegalEdge(t *testing.T) {
	repo, mock := newAuctionRepo(t)

	err := repo.TransitionStatus(context.Background(), 7, domain.AuctionSingle, domain.AuctionFinalized, domain.AuctionActive)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertAuction(t *testing.T) {
	repo, mock := newAuctionRepo(t)
	reclaim := int64(2000000)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO auctions")).
		WithArgs(int64(7), "bundle", "active", int64(1000000), int64(0), "0xseller", "0xnft",
			`["1","2"]`, sql.NullInt64{Int64: reclaim, Valid: true}, fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertAuction(context.Background(), &domain.Auction{
		AuctionID: 7, AuctionType: domain.AuctionBundle, Status: domain.AuctionActive,
		EndTime: 1000000, SellerAddress: "0xseller", NFTContractAddress: "0xnft",
		TokenIDs: []string{"1", "2"}, ReclaimNFT: &reclaim,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
