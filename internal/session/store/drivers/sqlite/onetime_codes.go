package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/covergate/sessiond/internal/session/domain"
)

type oneTimeCodesRepo struct {
	db *sql.DB
}

func (r *oneTimeCodesRepo) CreateOneTimeCode(ctx context.Context, c domain.OneTimeCode) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO one_time_codes (id, principal_id, secret, expires_at)
		VALUES (?, ?, ?, ?)`,
		c.ID, c.PrincipalID, c.Secret, c.ExpiresAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *oneTimeCodesRepo) GetActiveByPrincipalID(
	ctx context.Context,
	principalID string,
	now time.Time,
) (domain.OneTimeCode, error) {
	var c domain.OneTimeCode
	var consumedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT id, principal_id, secret, expires_at, consumed_at, created_at
		FROM one_time_codes
		WHERE principal_id = ? AND consumed_at IS NULL AND expires_at > ?
		ORDER BY created_at DESC
		LIMIT 1`, principalID, now.UTC(),
	).Scan(&c.ID, &c.PrincipalID, &c.Secret, &c.ExpiresAt, &consumedAt, &c.CreatedAt)
	if err != nil {
		return domain.OneTimeCode{}, mapNotFound(err)
	}
	if consumedAt.Valid {
		t := consumedAt.Time
		c.ConsumedAt = &t
	}
	return c, nil
}

// ConsumeOneTimeCode only flips unconsumed rows, so a code row can be
// redeemed at most once.
func (r *oneTimeCodesRepo) ConsumeOneTimeCode(ctx context.Context, id string, consumedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE one_time_codes
		SET consumed_at = ?
		WHERE id = ? AND consumed_at IS NULL`,
		consumedAt.UTC(), id,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}

func (r *oneTimeCodesRepo) DeleteExpired(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM one_time_codes
		WHERE expires_at <= ?`, now.UTC(),
	)
	return err
}
