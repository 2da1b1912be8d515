package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type usedRefreshTokensRepo struct {
	db *sql.DB
}

func (r *usedRefreshTokensRepo) HasBeenUsed(ctx context.Context, tokenID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1
		FROM used_refresh_tokens
		WHERE token_id = ?`, tokenID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkUsed is a bare insert: the primary key on token_id carries the whole
// single-use guarantee. No pre-read, no upsert.
func (r *usedRefreshTokensRepo) MarkUsed(
	ctx context.Context,
	tokenID string,
	issuedAt time.Time,
	usedAt time.Time,
) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO used_refresh_tokens (token_id, issued_at, used_at)
		VALUES (?, ?, ?)`,
		tokenID, issuedAt.UTC(), usedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *usedRefreshTokensRepo) DeleteIssuedBefore(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM used_refresh_tokens
		WHERE issued_at < ?`, cutoff.UTC(),
	)
	return err
}
