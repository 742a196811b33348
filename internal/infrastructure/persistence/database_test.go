package persistence

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/adplan/backend/internal/infrastructure/config"
	"github.com/adplan/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestNewDatabase_SQLite(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         filepath.Join(t.TempDir(), "snapshot.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	}

	db, err := NewDatabase(cfg, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "sqlite", db.Driver)
	require.NoError(t, db.Ping(context.Background()))
	require.NoError(t, db.AutoMigrate(config.DefaultTables()))

	n, err := db.Gateway().Count(context.Background(), "contracts")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	_, err := NewDatabase(&config.DatabaseConfig{Driver: "oracle"}, nil)
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestAutoMigrate_RejectsBadTableName(t *testing.T) {
	db := setupTestDB(t)
	tables := config.DefaultTables()
	tables.Media = "media; DROP TABLE clients"

	assert.Error(t, AutoMigrate(db, tables))
}

// newMockGateway creates a GormGateway on a mocked postgres connection
func newMockGateway(t *testing.T) (*GormGateway, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return NewGormGateway(gormDB), mock, mockDB
}

func TestGormGateway_Postgres_InsertUsesConflictTarget(t *testing.T) {
	gw, mock, mockDB := newMockGateway(t)
	defer mockDB.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`INSERT INTO "contracts" .* ON CONFLICT \("client_id","media_id"\) DO NOTHING RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	model := models.ContractModel{ClientID: 5, MediaID: 7, Name: "x", ValidFrom: now, ValidTo: now, Status: "pending_review", CreatedAt: now}
	n, err := gw.Insert(context.Background(), "contracts", &model, "client_id", "media_id")

	require.NoError(t, err)
	assert.Zero(t, n, "a conflicting row is skipped")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormGateway_Postgres_SelectRendersFilters(t *testing.T) {
	gw, mock, mockDB := newMockGateway(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "supports" WHERE "media_id" IS NULL AND "id" > \$1 ORDER BY "id" LIMIT \$2`).
		WithArgs(10, 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "media_id", "provider_id"}).
			AddRow(11, "Radio AM Norte", nil, nil))

	var rows []models.SupportModel
	err := gw.Select(context.Background(), "supports", &rows,
		Query{Filters: []Filter{IsNull("media_id"), Gt("id", 10)}, OrderBy: "id", Limit: 5})

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Radio AM Norte", rows[0].Name)
	assert.Nil(t, rows[0].MediaID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
