package audit

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/RudraKhare/movi-agent/pkg/database"
)

func TestLoggerRecordPersistsEntry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers-backed test in short mode")
	}

	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("movi"),
		postgres.WithUsername("movi"),
		postgres.WithPassword("movi"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(pgContainer) })

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	db, err := database.NewPool(ctx, database.Config{
		Host: host, Port: portNum, User: "movi", Password: "movi", Database: "movi",
		SSLMode: "disable", MaxOpenConns: 5, MaxIdleConns: 2,
		ConnMaxLifetime: time.Hour, ConnMaxIdleTime: 15 * time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := NewLogger(db)
	entityID := int64(42)
	logger.Record(ctx, Entry{
		Action:     "cancel_trip",
		EntityType: "trip",
		EntityID:   &entityID,
		UserID:     1,
		Before:     map[string]any{"live_status": "IN_PROGRESS"},
		After:      map[string]any{"live_status": "CANCELLED"},
	})

	require.Eventually(t, func() bool {
		var count int
		err := db.QueryRowContext(ctx,
			`SELECT count(*) FROM audit_log WHERE action = $1 AND entity_id = $2`,
			"cancel_trip", entityID).Scan(&count)
		return err == nil && count == 1
	}, 5*time.Second, 50*time.Millisecond, "expected audit row to appear")
}
