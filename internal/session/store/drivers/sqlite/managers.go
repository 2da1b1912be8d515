package sqlite

import (
	"context"
	"database/sql"

	"github.com/covergate/sessiond/internal/session/domain"
)

type internalManagersRepo struct {
	db *sql.DB
}

func (r *internalManagersRepo) GetByPrincipalID(
	ctx context.Context,
	principalID string,
) (domain.InternalManager, error) {
	var m domain.InternalManager
	err := r.db.QueryRowContext(ctx, `
		SELECT id, principal_id, name, created_at
		FROM internal_managers
		WHERE principal_id = ?`, principalID,
	).Scan(&m.ID, &m.PrincipalID, &m.Name, &m.CreatedAt)
	if err != nil {
		return domain.InternalManager{}, mapNotFound(err)
	}
	return m, nil
}

func (r *internalManagersRepo) CreateInternalManager(ctx context.Context, m domain.InternalManager) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO internal_managers (id, principal_id, name)
		VALUES (?, ?, ?)`,
		m.ID, m.PrincipalID, m.Name,
	)
	return mapConstraint(err)
}

type externalManagersRepo struct {
	db *sql.DB
}

func (r *externalManagersRepo) GetByPrincipalID(
	ctx context.Context,
	principalID string,
) (domain.ExternalManager, error) {
	var m domain.ExternalManager
	err := r.db.QueryRowContext(ctx, `
		SELECT id, principal_id, organization_id, name, created_at
		FROM external_managers
		WHERE principal_id = ?`, principalID,
	).Scan(&m.ID, &m.PrincipalID, &m.OrganizationID, &m.Name, &m.CreatedAt)
	if err != nil {
		return domain.ExternalManager{}, mapNotFound(err)
	}
	return m, nil
}

func (r *externalManagersRepo) CreateExternalManager(ctx context.Context, m domain.ExternalManager) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO external_managers (id, principal_id, organization_id, name)
		VALUES (?, ?, ?, ?)`,
		m.ID, m.PrincipalID, m.OrganizationID, m.Name,
	)
	return mapConstraint(err)
}
