package mysql

import (
	"context"
	"database/sql"

	"nft-marketplace/internal/domain"

	"github.com/pkg/errors"
)

type MySQLUserRepository struct {
	db *sql.DB
}

func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

func (r *MySQLUserRepository) GetUser(ctx context.Context, address string) (*domain.User, error) {
	query := `
        SELECT address, username, bio, avatar_url, created_at, updated_at
        FROM users WHERE address = ?
    `

	var user domain.User
	err := r.db.QueryRowContext(ctx, query, address).Scan(
		&user.Address, &user.Username, &user.Bio, &user.AvatarURL, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(domain.ErrUserNotFound, "user %s", address)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get user")
	}
	return &user, nil
}

func (r *MySQLUserRepository) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
        INSERT INTO users (address, username, bio, avatar_url, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE username = VALUES(username), bio = VALUES(bio),
            avatar_url = VALUES(avatar_url), updated_at = VALUES(updated_at)
    `
	_, err := r.db.ExecContext(ctx, query,
		user.Address, user.Username, user.Bio, user.AvatarURL, user.CreatedAt, user.UpdatedAt)
	return errors.Wrap(err, "upsert user")
}
