// Package postgres persists flow definitions in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivrflow/ivrflow/internal/core/flow"
	"github.com/ivrflow/ivrflow/pkg/serialization"
)

// FlowStore implements the flow repository on a PostgreSQL pool.
type FlowStore struct {
	pool       *pgxpool.Pool
	serializer *serialization.Serializer
	tableName  string
}

// NewFlowStore creates a PostgreSQL-backed flow store.
func NewFlowStore(pool *pgxpool.Pool, serializer *serialization.Serializer) *FlowStore {
	if serializer == nil {
		serializer = serialization.DefaultSerializer()
	}
	return &FlowStore{
		pool:       pool,
		serializer: serializer,
		tableName:  "flows",
	}
}

// Init creates the backing table if it does not exist.
func (s *FlowStore) Init(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			version    TEXT NOT NULL,
			body       BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`, s.tableName)
	if _, err := s.pool.Exec(ctx, query); err != nil {
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
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			version = EXCLUDED.version,
			body = EXCLUDED.body,
			updated_at = EXCLUDED.updated_at`, s.tableName)
	if _, err := s.pool.Exec(ctx, query, def.ID, def.Name, def.Version, body, time.Now().UTC()); err != nil {
		return fmt.Errorf("saving flow %s: %w", def.ID, err)
	}
	return nil
}

// Get loads a definition by ID.
func (s *FlowStore) Get(ctx context.Context, id string) (*flow.FlowDefinition, error) {
	query := fmt.Sprintf(`SELECT body FROM %s WHERE id = $1`, s.tableName)
	var body []byte
	err := s.pool.QueryRow(ctx, query, id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
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
	rows, err := s.pool.Query(ctx, query)
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
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.tableName)
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting flow %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return flow.ErrFlowNotFound
	}
	return nil
}
