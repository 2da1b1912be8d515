package sqlite

import (
	"context"
	"database/sql"

	"github.com/covergate/sessiond/internal/session/domain"
)

type principalsRepo struct {
	db *sql.DB
}

func (r *principalsRepo) GetPrincipalByID(ctx context.Context, id string) (domain.Principal, error) {
	return r.scanPrincipal(r.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, credential_revision, suspended, created_at, updated_at
		FROM principals
		WHERE id = ?`, id))
}

func (r *principalsRepo) GetPrincipalByEmail(ctx context.Context, email string) (domain.Principal, error) {
	return r.scanPrincipal(r.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, credential_revision, suspended, created_at, updated_at
		FROM principals
		WHERE email = ?`, email))
}

func (r *principalsRepo) CreatePrincipal(ctx context.Context, p domain.Principal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO principals (id, email, name, password_hash, credential_revision, suspended)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Email, p.Name, p.PasswordHash, p.CredentialRevision, p.Suspended,
	)
	return mapConstraint(err)
}

func (r *principalsRepo) UpdatePassword(ctx context.Context, principalID, newHash, newRevision string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE principals
		SET password_hash = ?, credential_revision = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		newHash, newRevision, principalID,
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

func (r *principalsRepo) SetSuspended(ctx context.Context, principalID string, suspended bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE principals
		SET suspended = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		suspended, principalID,
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

func (r *principalsRepo) scanPrincipal(row *sql.Row) (domain.Principal, error) {
	var p domain.Principal
	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.Name,
		&p.PasswordHash,
		&p.CredentialRevision,
		&p.Suspended,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return domain.Principal{}, mapNotFound(err)
	}
	return p, nil
}
