package service

import (
	"context"
	"testing"
	"time"

	"hotelsite/internal/database"
	"hotelsite/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(eventType string, payload interface{}) error {
	args := m.Called(eventType, payload)
	return args.Error(0)
}

type mockSyncWorker struct {
	mock.Mock
}

func (m *mockSyncWorker) EnqueueTask(ctx context.Context, taskType string, bookingID int64, booking *models.Booking, status string) error {
	args := m.Called(ctx, taskType, bookingID, booking, status)
	return args.Error(0)
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedRoom(t *testing.T, db *database.DB, room models.Room) *models.Room {
	t.Helper()
	if room.Type == "" {
		room.Type = models.RoomTypeRoom
	}
	if room.Capacity == 0 {
		room.Capacity = 2
	}
	room.IsActive = true
	require.NoError(t, db.CreateRoom(context.Background(), &room))
	return &room
}

func day(s string) time.Time {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}
