package persistence

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/akiliki/arruti-app-sub000/internal/infrastructure/config"
)

// newMockDatabase creates a Database instance with a mocked postgres connection
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewDatabaseFromGorm(gormDB, DriverPostgres), mock, mockDB
}

func TestNewDatabase(t *testing.T) {
	t.Run("opens sqlite journal", func(t *testing.T) {
		db, err := NewDatabase(config.JournalConfig{
			Driver:          DriverSQLite,
			DSN:             filepath.Join(t.TempDir(), "journal.db"),
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: time.Hour,
		}, zap.NewNop(), "warn")
		require.NoError(t, err)
		defer db.Close()

		stats, err := db.Stats()
		require.NoError(t, err)
		assert.Equal(t, 1, stats.MaxOpenConnections)
		assert.NoError(t, db.Ping())
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		_, err := NewDatabase(config.JournalConfig{Driver: "mysql", DSN: "x"}, nil, "warn")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported journal driver")
	})
}

func TestDatabase_Ping(t *testing.T) {
	t.Run("successful ping", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectPing()
		assert.NoError(t, db.Ping())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed ping", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectPing().WillReturnError(sql.ErrConnDone)
		assert.ErrorIs(t, db.Ping(), sql.ErrConnDone)
	})
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockDatabase(t)

	mock.ExpectClose()
	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Stats(t *testing.T) {
	db, _, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	stats, err := db.Stats()
	assert.NoError(t, err)
	assert.IsType(t, ConnectionStats{}, stats)
}

func TestDatabase_MigrateSQLite(t *testing.T) {
	db, err := NewDatabase(config.JournalConfig{
		Driver: DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "journal.db"),
	}, zap.NewNop(), "warn")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate(zap.NewNop()))
	require.NoError(t, db.Migrate(zap.NewNop()), "migrating twice is a no-op")
	assert.True(t, db.DB.Migrator().HasTable("mutation_journal"))
}
