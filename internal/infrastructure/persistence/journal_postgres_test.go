package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/akiliki/arruti-app-sub000/internal/application/orderstore"
	"github.com/akiliki/arruti-app-sub000/internal/infrastructure/config"
	"github.com/akiliki/arruti-app-sub000/internal/infrastructure/migration"
)

// newPostgresJournal starts a throwaway PostgreSQL container with the versioned journal schema
func newPostgresJournal(t *testing.T) *Database {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping PostgreSQL integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("journal_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := NewDatabase(config.JournalConfig{
		Driver:          DriverPostgres,
		DSN:             dsn,
		MaxOpenConns:    4,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, zap.NewNop(), "warn")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(zap.NewNop()))
	return db
}

func TestJournal_Postgres(t *testing.T) {
	db := newPostgresJournal(t)
	ctx := context.Background()
	repo := NewGormJournalRepository(db.DB)

	require.NoError(t, repo.RecordMutation(ctx, record(1, orderstore.KindAdd, orderstore.OutcomeConfirmed, "o1")))
	require.NoError(t, repo.RecordMutation(ctx, record(2, orderstore.KindUpdateStatus, orderstore.OutcomeRolledBack, "o1", "o2")))
	require.NoError(t, repo.RecordMutation(ctx, record(3, orderstore.KindUpdate, orderstore.OutcomeConfirmed, "o3")))

	recs, total, err := repo.List(ctx, JournalFilter{OrderID: "o1", SortBy: "seq", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"o1", "o2"}, recs[1].OrderIDs)
	assert.Equal(t, orderstore.OutcomeRolledBack, recs[1].Outcome)

	removed, err := repo.Prune(ctx, journalStart.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestJournal_PostgresMigrations(t *testing.T) {
	db := newPostgresJournal(t)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	m, err := migration.New(sqlDB, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	require.NoError(t, m.Up(), "re-running is a no-op")
	require.NoError(t, m.Steps(-1))
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}
