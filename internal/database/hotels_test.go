package database

import (
	"context"
	"testing"

	"hotelsite/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHotelCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	hotel := &models.Hotel{Name: "Hill Top Inn"}
	require.NoError(t, db.CreateHotel(ctx, hotel))
	assert.NotZero(t, hotel.ID)

	got, err := db.GetHotel(ctx, hotel.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hill Top Inn", got.Name)
	assert.Empty(t, got.ContactNumbers)

	got.Address = "1 Ridge Road"
	got.ContactNumbers = []string{"+1 555 0100", "+1 555 0101"}
	got.FoodAndDining = map[string]any{"breakfast": "included"}
	got.HostDetails = map[string]any{"name": "Sam", "languages": []any{"en", "fr"}}
	got.Email = "desk@hilltop.example"
	require.NoError(t, db.UpdateHotel(ctx, got))

	reloaded, err := db.GetHotel(ctx, hotel.ID)
	require.NoError(t, err)
	assert.Equal(t, "1 Ridge Road", reloaded.Address)
	assert.Equal(t, []string{"+1 555 0100", "+1 555 0101"}, reloaded.ContactNumbers)
	assert.Equal(t, "included", reloaded.FoodAndDining["breakfast"])
	assert.Equal(t, []any{"en", "fr"}, reloaded.HostDetails["languages"])

	hotels, err := db.ListHotels(ctx)
	require.NoError(t, err)
	assert.Len(t, hotels, 1)

	require.NoError(t, db.DeleteHotel(ctx, hotel.ID))
	_, err = db.GetHotel(ctx, hotel.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.DeleteHotel(ctx, hotel.ID), ErrNotFound)
	assert.ErrorIs(t, db.UpdateHotel(ctx, &models.Hotel{ID: hotel.ID, Name: "x"}), ErrNotFound)
}
