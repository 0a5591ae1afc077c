// Package sqlite persists flow definitions in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ivrflow/ivrflow/internal/core/flow"
	"github.com/ivrflow/ivrflow/pkg/serialization"
)

// FlowStore implements the flow repository on a SQLite database. The
// definition body is stored as a serialized blob; identity and version
// are kept in columns for querying.
type FlowStore struct {
	db         *sql.DB
	serializer *serialization.Serializer
	tableName  string
}

// NewFlowStore creates a SQLite-backed flow store.
func NewFlowStore(db *sql.DB, serializer *serialization.Serializer) *FlowStore {
	if serializer == nil {
		serializer = serialization.DefaultSerializer()
	}
	return &FlowStore{
		db:         db,
		serializer: serializer,
		tableName:  "flows",
	}
}

// WithTableName overrides the default table name. Only alphanumeric and
// underscore are permitted to prevent SQL injection via identifiers.
func (s *FlowStore) WithTableName(name string) *FlowStore {
	if isSafeIdent(name) {
		s.tableName = name
	}
	return s
}

func isSafeIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			continue
		}
		return false
	}
	return true
}

// Init creates the backing table if it does not exist.
func (s *FlowStore) Init(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			version    TEXT NOT NULL,
			body       BLOB NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("creating %s table: %w", s.tableName, err)
	}
	return nil
}

// Save upserts a definition.
func (s *FlowStore) Save(ctx context.Context, def *flow.FlowDefinition) error {
	if def == nil {
		return flow.ErrNilDefinition
	}
	if err := def.Validate(); err != nil {
		return fmt.Errorf("invalid flow: %w", err)
	}
	body, err := s.serializer.Serialize(def)
	if err != nil {
		return fmt.Errorf("serializing flow %s: %w", def.ID, err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, version, body, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			version = excluded.version,
			body = excluded.body,
			updated_at = excluded.updated_at`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query, def.ID, def.Name, def.Version, body, time.Now().UTC()); err != nil {
		return fmt.Errorf("saving flow %s: %w", def.ID, err)
	}
	return nil
}

// Get loads a definition by ID.
func (s *FlowStore) Get(ctx context.Context, id string) (*flow.FlowDefinition, error) {
	query := fmt.Sprintf(`SELECT body FROM %s WHERE id = ?`, s.tableName)
	var body []byte
	err := s.db.QueryRowContext(ctx, query, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, flow.ErrFlowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading flow %s: %w", id, err)
	}
	var def flow.FlowDefinition
	if err := s.serializer.Deserialize(body, &def); err != nil {
		return nil, fmt.Errorf("deserializing flow %s: %w", id, err)
	}
	return &def, nil
}

// List loads all stored definitions.
func (s *FlowStore) List(ctx context.Context) ([]*flow.FlowDefinition, error) {
	query := fmt.Sprintf(`SELECT body FROM %s ORDER BY updated_at DESC`, s.tableName)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing flows: %w", err)
	}
	defer rows.Close()

	var out []*flow.FlowDefinition
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scanning flow row: %w", err)
		}
		var def flow.FlowDefinition
		if err := s.serializer.Deserialize(body, &def); err != nil {
			return nil, fmt.Errorf("deserializing flow: %w", err)
		}
		out = append(out, &def)
	}
	return out, rows.Err()
}

// Delete removes a definition by ID.
func (s *FlowStore) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, s.tableName)
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting flow %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return flow.ErrFlowNotFound
	}
	return nil
}
