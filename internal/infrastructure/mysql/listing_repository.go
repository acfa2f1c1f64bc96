package mysql

import (
	"context"
	"database/sql"
	"strings"

	"nft-marketplace/internal/domain"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const listingColumns = `id, seller_address, nft_contract_address, token_id, price, currency, status, created_at, updated_at`

type MySQLListingRepository struct {
	db *sql.DB
}

func NewMySQLListingRepository(db *sql.DB) *MySQLListingRepository {
	return &MySQLListingRepository{db: db}
}

func scanListing(row rowScanner) (*domain.Listing, error) {
	var listing domain.Listing
	var price, status string

	err := row.Scan(&listing.ID, &listing.SellerAddress, &listing.NFTContractAddress, &listing.TokenID,
		&price, &listing.Currency, &status, &listing.CreatedAt, &listing.UpdatedAt)
	if err != nil {
		return nil, err
	}

	listing.Status = domain.ListingStatus(status)
	if listing.Price, err = decimal.NewFromString(price); err != nil {
		return nil, errors.Wrapf(err, "parse price of listing %s", listing.ID)
	}
	return &listing, nil
}

func (r *MySQLListingRepository) CreateListing(ctx context.Context, listing *domain.Listing) error {
	query := `
        INSERT INTO listings (` + listingColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		listing.ID, listing.SellerAddress, listing.NFTContractAddress, listing.TokenID,
		listing.Price.String(), listing.Currency, string(listing.Status), listing.CreatedAt, listing.UpdatedAt)
	return errors.Wrap(err, "create listing")
}

func (r *MySQLListingRepository) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = ?`

	listing, err := scanListing(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(domain.ErrListingNotFound, "listing %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get listing")
	}
	return listing, nil
}

func (r *MySQLListingRepository) ListListings(ctx context.Context, filter domain.ListingFilter) ([]*domain.Listing, error) {
	var conds []string
	var args []interface{}

	if filter.SellerAddress != "" {
		conds = append(conds, "seller_address = ?")
		args = append(args, filter.SellerAddress)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := `SELECT ` + listingColumns + ` FROM listings`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list listings")
	}
	defer rows.Close()

	listings := make([]*domain.Listing, 0)
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan listing")
		}
		listings = append(listings, listing)
	}
	return listings, rows.Err()
}

// UpdateListing writes price and status only while the row still has the expected status.
func (r *MySQLListingRepository) UpdateListing(ctx context.Context, listing *domain.Listing, expected domain.ListingStatus) error {
	query := `
        UPDATE listings SET price = ?, status = ?, updated_at = ?
        WHERE id = ? AND status = ?
    `
	res, err := r.db.ExecContext(ctx, query, listing.Price.String(), string(listing.Status),
		listing.UpdatedAt, listing.ID, string(expected))
	if err != nil {
		return errors.Wrap(err, "update listing")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "update listing")
	}
	if affected == 0 {
		return errors.Wrapf(domain.ErrListingNotActive, "listing %s", listing.ID)
	}
	return nil
}
