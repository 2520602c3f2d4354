package database

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-chat-api/pkg/models"
)

// These tests need a disposable Postgres; set TEST_DATABASE_URI to run them.
func testDB(t *testing.T) *MerchantRepository {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URI")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URI not set")
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	db, err := NewDB(dsn, Options{MaxOpenConns: 2, AutoMigrate: true}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { CloseDB(db, logger) })

	_, err = db.Exec(`INSERT INTO merchants (merchant_id, merchant_name) VALUES ('test-m1', 'Test Kitchen')
		ON CONFLICT (merchant_id) DO NOTHING`)
	require.NoError(t, err)
	return NewMerchantRepository(db)
}

func TestMerchantRepositoryGetByID(t *testing.T) {
	repo := testDB(t)

	m, err := repo.GetByID(context.Background(), "test-m1")
	require.NoError(t, err)
	assert.Equal(t, "Test Kitchen", m.MerchantName)
	assert.False(t, m.PasswordHash.Valid)

	_, err = repo.GetByID(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestApplyMigrationsNilDB(t *testing.T) {
	assert.Error(t, ApplyMigrations(nil, logrus.New()))
}
