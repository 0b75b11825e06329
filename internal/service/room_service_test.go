package service

import (
	"context"
	"testing"
	"time"

	"hotelsite/internal/database"
	"hotelsite/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomServiceCatalog(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	logger := zerolog.Nop()
	svc := NewRoomService(db, &logger)

	seed := []models.Room{
		{ID: 2, Name: "Garden Suite", Type: models.RoomTypeSuite, Price: 3000, Capacity: 4, Inventory: 1, SortOrder: 2, Amenities: []string{"Jacuzzi"}, IsActive: true},
		{ID: 1, Name: "Standard", Type: models.RoomTypeRoom, Price: 1000, DiscountedPrice: 900, Capacity: 2, Inventory: 3, SortOrder: 1, IsActive: true},
	}
	require.NoError(t, svc.SeedRooms(ctx, seed, false))

	rooms, err := svc.ListRooms(ctx, models.RoomFilter{})
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "Standard", rooms[0].Name)
	assert.Equal(t, "Garden Suite", rooms[1].Name)

	rooms, err = svc.ListRooms(ctx, models.RoomFilter{Type: models.RoomTypeSuite})
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, int64(2), rooms[0].ID)

	rooms, err = svc.ListRooms(ctx, models.RoomFilter{MaxPrice: 950})
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, int64(1), rooms[0].ID)

	rooms, err = svc.ListRooms(ctx, models.RoomFilter{Amenity: "jacuzzi"})
	require.NoError(t, err)
	assert.Len(t, rooms, 1)

	_, err = svc.ListRooms(ctx, models.RoomFilter{Type: "Villa"})
	assert.ErrorIs(t, err, ErrValidation)

	room, err := svc.GetRoom(ctx, 1)
	require.NoError(t, err)
	// callers get a copy
	room.Name = "changed"
	again, err := svc.GetRoom(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Standard", again.Name)

	_, err = svc.GetRoom(ctx, 42)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRoomServiceWrites(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	logger := zerolog.Nop()
	svc := NewRoomService(db, &logger)

	room := &models.Room{Name: "Loft", Type: models.RoomTypeRoom, Price: 1500, Capacity: 2, Inventory: 1, IsActive: true}
	require.NoError(t, svc.CreateRoom(ctx, room))
	assert.NotZero(t, room.ID)

	rooms, err := svc.ListRooms(ctx, models.RoomFilter{})
	require.NoError(t, err)
	assert.Len(t, rooms, 1)

	room.IsActive = false
	require.NoError(t, svc.UpdateRoom(ctx, room))
	rooms, err = svc.ListRooms(ctx, models.RoomFilter{})
	require.NoError(t, err)
	assert.Empty(t, rooms)

	all, err := svc.GetAllRooms(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	assert.ErrorIs(t, svc.CreateRoom(ctx, &models.Room{Type: models.RoomTypeRoom, Capacity: 1}), ErrValidation)
	assert.ErrorIs(t, svc.CreateRoom(ctx, &models.Room{Name: "x", Type: models.RoomTypeRoom}), ErrValidation)
	assert.ErrorIs(t, svc.CreateRoom(ctx, &models.Room{Name: "x", Type: models.RoomTypeRoom, Capacity: 1, Price: -1}), ErrValidation)
	assert.ErrorIs(t, svc.SeedRooms(ctx, []models.Room{{ID: 0, Name: "bad", Type: models.RoomTypeRoom, Capacity: 1}}, true), ErrValidation)
}

func TestRoomServiceCacheExpiry(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	logger := zerolog.Nop()
	svc := NewRoomService(db, &logger)

	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	seedRoom(t, db, models.Room{Name: "First", Price: 100, Inventory: 1})
	rooms, err := svc.ListRooms(ctx, models.RoomFilter{})
	require.NoError(t, err)
	assert.Len(t, rooms, 1)

	// written behind the service's back
	seedRoom(t, db, models.Room{Name: "Second", Price: 100, Inventory: 1})
	rooms, err = svc.ListRooms(ctx, models.RoomFilter{})
	require.NoError(t, err)
	assert.Len(t, rooms, 1)

	now = now.Add(models.RoomsCacheTTL + time.Second)
	rooms, err = svc.ListRooms(ctx, models.RoomFilter{})
	require.NoError(t, err)
	assert.Len(t, rooms, 2)
}

func TestRoomServiceSeedKeepsAdminEdits(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	logger := zerolog.Nop()
	svc := NewRoomService(db, &logger)

	seed := []models.Room{
		{ID: 1, Name: "Standard", Type: models.RoomTypeRoom, Price: 1000, Capacity: 2, Inventory: 3, IsActive: true},
	}
	require.NoError(t, svc.SeedRooms(ctx, seed, false))

	price := int64(1250)
	inactive := false
	_, err := svc.PatchRoom(ctx, 1, &models.RoomPatch{Price: &price, IsActive: &inactive})
	require.NoError(t, err)

	// a restart seeds again without overwrite
	seed = append(seed, models.Room{ID: 2, Name: "Loft", Type: models.RoomTypeSuite, Price: 2000, Capacity: 2, Inventory: 1, IsActive: true})
	require.NoError(t, svc.SeedRooms(ctx, seed, false))

	room, err := db.GetRoom(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), room.Price)
	assert.False(t, room.IsActive)

	added, err := db.GetRoom(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Loft", added.Name)

	require.NoError(t, svc.SeedRooms(ctx, seed, true))
	room, err = db.GetRoom(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), room.Price)
	assert.True(t, room.IsActive)
}

func TestRoomServicePatchRoom(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	logger := zerolog.Nop()
	svc := NewRoomService(db, &logger)

	seeded := seedRoom(t, db, models.Room{Name: "Loft", Description: "Top floor", Price: 1500, Inventory: 2, Amenities: []string{"WiFi"}})

	price := int64(1600)
	room, err := svc.PatchRoom(ctx, seeded.ID, &models.RoomPatch{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, int64(1600), room.Price)

	stored, err := db.GetRoom(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1600), stored.Price)
	assert.Equal(t, "Loft", stored.Name)
	assert.Equal(t, "Top floor", stored.Description)
	assert.Equal(t, 2, stored.Inventory)
	assert.Equal(t, []string{"WiFi"}, stored.Amenities)
	assert.True(t, stored.IsActive)

	cached, err := svc.GetRoom(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1600), cached.Price)

	// inactive rooms can be patched back into the catalog
	inactive, active := false, true
	_, err = svc.PatchRoom(ctx, seeded.ID, &models.RoomPatch{IsActive: &inactive})
	require.NoError(t, err)
	_, err = svc.GetRoom(ctx, seeded.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
	_, err = svc.PatchRoom(ctx, seeded.ID, &models.RoomPatch{IsActive: &active})
	require.NoError(t, err)
	_, err = svc.GetRoom(ctx, seeded.ID)
	require.NoError(t, err)

	_, err = svc.PatchRoom(ctx, seeded.ID, &models.RoomPatch{})
	assert.ErrorIs(t, err, ErrValidation)

	empty := ""
	_, err = svc.PatchRoom(ctx, seeded.ID, &models.RoomPatch{Name: &empty})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.PatchRoom(ctx, 999, &models.RoomPatch{Price: &price})
	assert.ErrorIs(t, err, database.ErrNotFound)
}
