package database

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"hotelsite/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestRoom(t *testing.T, db *DB, inventory int) *models.Room {
	t.Helper()
	room := &models.Room{
		Name:      "Deluxe Double",
		Price:     1000,
		Type:      models.RoomTypeRoom,
		Capacity:  2,
		Amenities: []string{"WiFi"},
		Inventory: inventory,
		IsActive:  true,
	}
	require.NoError(t, db.CreateRoom(context.Background(), room))
	return room
}

func day(offset int) time.Time {
	return models.NormalizeDate(time.Now()).AddDate(0, 0, offset)
}

func TestNewDB_DirectoryCreation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	logger := zerolog.Nop()

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dbPath)
	assert.Equal(t, dbPath, db.Path())
}

func TestNewDB_SchemaIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.createTables())
	assert.NoError(t, db.PingContext(context.Background()))
}

func TestDB_ErrorPaths(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	db.Close()

	ctx := context.Background()

	_, err = db.GetRoom(ctx, 1)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	err = db.Reserve(ctx, 1, day(1), day(2), 1)
	assert.Error(t, err)

	_, err = db.GetBookingsByDateRange(ctx, day(0), day(1))
	assert.Error(t, err)

	err = db.CreateUser(ctx, &models.User{Name: "x", Email: "x@example.com"})
	assert.Error(t, err)
}
