package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruuvari-collector/internal/event/application/forward"
	event "ruuvari-collector/internal/event/domain"
)

func TestEventRepository_Postgres(t *testing.T) {
	dsn := os.Getenv("RUUVARI_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("RUUVARI_TEST_PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	table := fmt.Sprintf("ruuvi_events_it_%d", time.Now().UnixNano())
	repo, err := NewEventRepository(db, WithTable(table))
	require.NoError(t, err)
	require.NoError(t, repo.EnsureSchema(ctx))
	require.NoError(t, repo.EnsureSchema(ctx))
	defer func() { _, _ = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table) }()

	base := time.Date(2018, 4, 15, 21, 16, 17, 0, time.UTC)
	batch := forward.NewBatch("ruuvistation", time.Now(), []event.Event{
		event.New("D1:D8:2A:09:D6:C1", 1017, 68, 22, -74, base),
		event.New("D7:58:D2:87:08:F8", 1017, 38, 24, -56, base.Add(time.Second)),
		event.New("D1:D8:2A:09:D6:C1", 1016, 67, 22.5, -70, base.Add(time.Minute)),
	})
	require.NoError(t, repo.Forward(ctx, batch))

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+" WHERE batch_id = $1", batch.ID.String()).Scan(&count))
	assert.Equal(t, 3, count)

	got, err := NewEventQuery(repo).Range(ctx, "D1:D8:2A:09:D6:C1", base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, base, got[0].Timestamp)
	assert.Equal(t, -70, got[1].RSSI)
	assert.Equal(t, time.UTC, got[1].Timestamp.Location())

	bad := forward.NewBatch("ruuvistation", time.Now(), []event.Event{
		event.New("D7:58:D2:87:08:F8", 1, 1, 1, -1, base),
		{},
	})
	assert.Error(t, repo.Forward(ctx, bad))
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+" WHERE batch_id = $1", bad.ID.String()).Scan(&count))
	assert.Zero(t, count)
}
