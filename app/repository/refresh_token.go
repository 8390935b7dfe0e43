package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/taskmaster-solutions/ms-go-tasks/app/entity"
)

type RefreshTokenRepository struct {
	db dbtx
}

func NewRefreshTokenRepository(db *sql.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) WithTx(tx *sql.Tx) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: tx}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token *entity.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (jti, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		token.JTI,
		token.UserID,
		token.ExpiresAt,
		token.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	token.ID = uint64(id)
	return nil
}

// ConsumeByJTI deletes the row for the given token. A zero row count means
// the token was already used or revoked.
func (r *RefreshTokenRepository) ConsumeByJTI(ctx context.Context, jti string, userID uint64) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE jti = ? AND user_id = ?`
	result, err := r.db.ExecContext(ctx, query, jti, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *RefreshTokenRepository) DeleteByUserID(ctx context.Context, userID uint64) error {
	query := `DELETE FROM refresh_tokens WHERE user_id = ?`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context) error {
	query := `DELETE FROM refresh_tokens WHERE expires_at < ?`
	_, err := r.db.ExecContext(ctx, query, time.Now())
	return err
}
