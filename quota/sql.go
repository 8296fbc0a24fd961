package quota

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modelhub-sdk/utils"
)

// SQLStore persists counts in a single table keyed by the derived quota key
type SQLStore struct {
	db     *sql.DB
	dbType utils.DBType
	owned  bool
}

// OpenSQLStore connects to the database and creates the table if needed
func OpenSQLStore(ctx context.Context, dbType utils.DBType, dsn string) (*SQLStore, error) {
	db, err := utils.OpenDatabase(ctx, dbType, dsn)
	if err != nil {
		return nil, err
	}

	store, err := NewSQLStore(ctx, db, dbType)
	if err != nil {
		db.Close()
		return nil, err
	}
	store.owned = true
	return store, nil
}

// NewSQLStore wraps an existing connection. The caller keeps ownership of db.
func NewSQLStore(ctx context.Context, db *sql.DB, dbType utils.DBType) (*SQLStore, error) {
	store := &SQLStore{db: db, dbType: dbType}
	if err := store.migrate(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	keyType := "TEXT"
	if s.dbType == utils.DBTypeMySQL {
		keyType = "VARCHAR(512)"
	}

	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS sandbox_quota (
		quota_key %s PRIMARY KEY,
		invocations INTEGER NOT NULL DEFAULT 0
	)`, keyType)

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create quota schema: %w", err)
	}
	return nil
}

// Get returns the stored count
func (s *SQLStore) Get(ctx context.Context, modelID, endpointPath string) (int, error) {
	query := "SELECT invocations FROM sandbox_quota WHERE quota_key = " + utils.Placeholder(s.dbType, 1)

	var count int
	err := s.db.QueryRowContext(ctx, query, Key(modelID, endpointPath)).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read quota: %w", err)
	}
	return count, nil
}

// Increment adds one to the stored count with a single upsert
func (s *SQLStore) Increment(ctx context.Context, modelID, endpointPath string) error {
	var query string
	switch s.dbType {
	case utils.DBTypeMySQL:
		query = `INSERT INTO sandbox_quota (quota_key, invocations) VALUES (?, 1)
			ON DUPLICATE KEY UPDATE invocations = invocations + 1`
	default:
		query = fmt.Sprintf(`INSERT INTO sandbox_quota (quota_key, invocations) VALUES (%s, 1)
			ON CONFLICT (quota_key) DO UPDATE SET invocations = sandbox_quota.invocations + 1`,
			utils.Placeholder(s.dbType, 1))
	}

	if _, err := s.db.ExecContext(ctx, query, Key(modelID, endpointPath)); err != nil {
		return fmt.Errorf("failed to increment quota: %w", err)
	}
	return nil
}

// Close releases the connection when the store opened it
func (s *SQLStore) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}
