package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/covergate/sessiond/internal/session/store"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Store is the sqlite-backed implementation of store.Store.
type Store struct {
	db  *sql.DB
	dsn string
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Enforce FKs
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dsn: dsn}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Principals() store.Principals             { return &principalsRepo{db: s.db} }
func (s *Store) InternalManagers() store.InternalManagers { return &internalManagersRepo{db: s.db} }
func (s *Store) ExternalManagers() store.ExternalManagers { return &externalManagersRepo{db: s.db} }
func (s *Store) UsedRefreshTokens() store.UsedRefreshTokens {
	return &usedRefreshTokensRepo{db: s.db}
}
func (s *Store) OneTimeCodes() store.OneTimeCodes { return &oneTimeCodesRepo{db: s.db} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// mapConstraint translates a sqlite uniqueness violation into the storage
// error the services understand. The engine error type stops here so the
// storage choice stays swappable.
func mapConstraint(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return store.ErrAlreadyExists
		}
	}
	return err
}
