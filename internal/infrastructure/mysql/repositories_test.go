package mysql

import (
	"context"
	"database/sql"
	"io/fs"
	"regexp"
	"testing"

	"nft-marketplace/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestGetBidHistory(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMySQLBidRepository(db)

	rows := sqlmock.NewRows([]string{"event_id", "auction_id", "auction_type", "bidder_address", "bid_amount", "end_time", "extended", "created_at"}).
		AddRow("evt_2", int64(7), "single", "0xb", "2.000000000000000000", int64(1000200), false, fixedNow).
		AddRow("evt_1", int64(7), "single", "0xa", "1.500000000000000000", int64(1000100), true, fixedNow)
	mock.ExpectQuery(regexp.QuoteMeta("FROM bid_events WHERE auction_id = ? AND auction_type = ?")).
		WithArgs(int64(7), "single", 50).
		WillReturnRows(rows)

	records, err := repo.GetBidHistory(context.Background(), 7, domain.AuctionSingle, 50)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].BidAmount.Equal(decimal.NewFromInt(2)))
	assert.True(t, records[1].Extended)
}

func TestCreateAndGetListing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMySQLListingRepository(db)

	listing := &domain.Listing{
		ID: "lst_1", SellerAddress: "0xseller", NFTContractAddress: "0xnft", TokenID: "42",
		Price: decimal.RequireFromString("12.5"), Currency: "ROSE", Status: domain.ListingActive,
		CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO listings")).
		WithArgs("lst_1", "0xseller", "0xnft", "42", "12.5", "ROSE", "active", fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.CreateListing(context.Background(), listing))

	rows := sqlmock.NewRows([]string{"id", "seller_address", "nft_contract_address", "token_id", "price", "currency", "status", "created_at", "updated_at"}).
		AddRow("lst_1", "0xseller", "0xnft", "42", "12.500000000000000000", "ROSE", "active", fixedNow, fixedNow)
	mock.ExpectQuery(regexp.QuoteMeta("FROM listings WHERE id = ?")).WithArgs("lst_1").WillReturnRows(rows)

	got, err := repo.GetListing(context.Background(), "lst_1")
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(listing.Price))
	assert.Equal(t, domain.ListingActive, got.Status)
}

func TestGetListingNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMySQLListingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM listings WHERE id = ?")).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetListing(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrListingNotFound))
}

func TestUpdateListingRequiresExpectedStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMySQLListingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE listings SET price = ?, status = ?, updated_at = ? WHERE id = ? AND status = ?")).
		WithArgs("10", "cancelled", fixedNow, "lst_1", "active").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateListing(context.Background(), &domain.Listing{
		ID: "lst_1", Price: decimal.NewFromInt(10), Status: domain.ListingCancelled, UpdatedAt: fixedNow,
	}, domain.ListingActive)
	assert.True(t, errors.Is(err, domain.ErrListingNotActive))
}

func TestUserRepository(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMySQLUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("0xabc", "alice", "hi", "ipfs://avatar", fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.UpsertUser(context.Background(), &domain.User{
		Address: "0xabc", Username: "alice", Bio: "hi", AvatarURL: "ipfs://avatar",
		CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}))

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE address = ?")).
		WithArgs("0xdef").
		WillReturnError(sql.ErrNoRows)
	_, err := repo.GetUser(context.Background(), "0xdef")
	assert.True(t, errors.Is(err, domain.ErrUserNotFound))
}

func TestSyncStateRepository(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMySQLSyncStateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT last_indexed_block FROM indexed_status WHERE chain_id = ?")).
		WithArgs(int64(23295)).
		WillReturnError(sql.ErrNoRows)
	_, found, err := repo.GetLastIndexedBlock(context.Background(), 23295)
	require.NoError(t, err)
	assert.False(t, found)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT last_indexed_block FROM indexed_status")).
		WillReturnRows(sqlmock.NewRows([]string{"last_indexed_block"}).AddRow(int64(1200)))
	block, found, err := repo.GetLastIndexedBlock(context.Background(), 23295)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint64(1200), block)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO indexed_status")).
		WithArgs(int64(23295), uint64(1300), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.SetLastIndexedBlock(context.Background(), 23295, 1300))
}

func TestMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(migrationFiles, "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrationFiles, "migrations/*.down.sql")
	require.NoError(t, err)

	assert.Len(t, ups, 5)
	assert.Len(t, downs, len(ups))
}
