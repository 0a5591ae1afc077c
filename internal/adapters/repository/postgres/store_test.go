package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivrflow/ivrflow/internal/core/flow"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("IVRFLOW_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("Integration test requires PostgreSQL database (set IVRFLOW_TEST_POSTGRES_DSN)")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func sampleDef(id string) *flow.FlowDefinition {
	return &flow.FlowDefinition{
		ID:      id,
		Name:    "Sample " + id,
		Version: "v1",
		Nodes: []*flow.Node{
			{ID: "start", Type: flow.NodeTypeStart, Name: "Start"},
			{ID: "bye", Type: flow.NodeTypeHangup, Name: "Goodbye"},
		},
		Connections: []*flow.Connection{
			{ID: "c1", FromNodeID: "start", FromPortID: flow.PortOut, ToNodeID: "bye", ToPortID: flow.PortIn},
		},
	}
}

func TestFlowStore_Integration(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	store := NewFlowStore(pool, nil)
	require.NoError(t, store.Init(ctx))
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, "DROP TABLE IF EXISTS flows")
	})

	def := sampleDef("pg-f1")
	require.NoError(t, store.Save(ctx, def))

	got, err := store.Get(ctx, "pg-f1")
	require.NoError(t, err)
	assert.Equal(t, def, got)

	def.Name = "Renamed"
	require.NoError(t, store.Save(ctx, def))
	got, err = store.Get(ctx, "pg-f1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, all)

	require.NoError(t, store.Delete(ctx, "pg-f1"))
	_, err = store.Get(ctx, "pg-f1")
	assert.ErrorIs(t, err, flow.ErrFlowNotFound)
}

func TestFlowStore_SaveValidation(t *testing.T) {
	// Validation happens before any database I/O, so a nil pool is fine.
	store := NewFlowStore(nil, nil)
	ctx := context.Background()

	assert.ErrorIs(t, store.Save(ctx, nil), flow.ErrNilDefinition)

	err := store.Save(ctx, &flow.FlowDefinition{ID: "bad", Name: "Bad"})
	assert.ErrorIs(t, err, flow.ErrNoStartNode)
}
