package pricing

import (
	"testing"

	"hotelsite/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStayPercent(t *testing.T) {
	for nights := -1; nights <= 1; nights++ {
		assert.Equal(t, 100, StayPercent(nights), "nights=%d", nights)
	}
	for nights := 2; nights <= 4; nights++ {
		assert.Equal(t, 95, StayPercent(nights), "nights=%d", nights)
	}
	for _, nights := range []int{5, 6, 14, 30} {
		assert.Equal(t, 90, StayPercent(nights), "nights=%d", nights)
	}
	assert.InDelta(t, 0.9, StayMultiplier(5), 1e-9)
}

func TestRequiredRooms(t *testing.T) {
	assert.Equal(t, 2, RequiredRooms(3, 2))
	assert.Equal(t, 3, RequiredRooms(5, 2))
	assert.Equal(t, 1, RequiredRooms(2, 2))
	assert.Equal(t, 1, RequiredRooms(1, 4))
	assert.Equal(t, 0, RequiredRooms(0, 2))
	assert.Equal(t, 0, RequiredRooms(3, 0))
}

func TestPerNight(t *testing.T) {
	assert.Equal(t, int64(1000), PerNight(1000, 0))
	assert.Equal(t, int64(700), PerNight(1000, 700))
}

func TestCalculate(t *testing.T) {
	t.Run("FiveNightsWithTaxes", func(t *testing.T) {
		q, err := Calculate(Request{
			BasePrice: 1000,
			Rooms:     1,
			Nights:    5,
			Taxes:     models.TaxRates{VAT: 5, ServiceTax: 3},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(4500), q.BaseAmount)
		assert.Equal(t, int64(360), q.TaxAmount)
		assert.Equal(t, int64(4860), q.Total)
		assert.Equal(t, int64(1000), q.PerNightEffective)
		assert.Equal(t, 10, q.DiscountPercent)
		require.Len(t, q.Taxes, 3)
		assert.Equal(t, int64(225), q.Taxes[0].Amount)
		assert.Equal(t, int64(135), q.Taxes[1].Amount)
		assert.Equal(t, int64(0), q.Taxes[2].Amount)
	})

	t.Run("TwoRoomsThreeNightsNoTax", func(t *testing.T) {
		q, err := Calculate(Request{BasePrice: 250, Rooms: 2, Nights: 3})
		require.NoError(t, err)
		assert.Equal(t, int64(1425), q.BaseAmount)
		assert.Equal(t, int64(0), q.TaxAmount)
		assert.Equal(t, int64(1425), q.Total)
	})

	t.Run("DiscountedPriceWins", func(t *testing.T) {
		q, err := Calculate(Request{BasePrice: 1000, DiscountedPrice: 800, Rooms: 1, Nights: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(800), q.PerNightEffective)
		assert.Equal(t, int64(800), q.Total)
	})

	t.Run("ZeroNights", func(t *testing.T) {
		q, err := Calculate(Request{BasePrice: 1000, Rooms: 3, Nights: 0, Taxes: models.TaxRates{VAT: 18}})
		require.NoError(t, err)
		assert.Equal(t, int64(0), q.Total)
	})

	t.Run("CapacityRaisesRooms", func(t *testing.T) {
		q, err := Calculate(Request{BasePrice: 100, Rooms: 1, Nights: 1, Guests: 5, Capacity: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, q.RequiredRooms)
		assert.Equal(t, 3, q.Rooms)
		assert.Equal(t, int64(300), q.Total)
	})

	t.Run("RequestedRoomsKeptWhenLarger", func(t *testing.T) {
		q, err := Calculate(Request{BasePrice: 100, Rooms: 4, Nights: 1, Guests: 3, Capacity: 2})
		require.NoError(t, err)
		assert.Equal(t, 4, q.Rooms)
	})

	t.Run("NightlyRates", func(t *testing.T) {
		q, err := Calculate(Request{
			BasePrice:    1000,
			NightlyRates: []int64{1000, 1200, 800},
			Rooms:        1,
			Nights:       3,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3000), q.Subtotal)
		assert.Equal(t, int64(2850), q.BaseAmount)
		assert.Equal(t, int64(1000), q.PerNightEffective)
	})

	t.Run("RoundingHalfUp", func(t *testing.T) {
		// 3 nights * 99 * 0.95 = 282.15; 2 nights * 33 * 0.95 = 62.7
		q, err := Calculate(Request{BasePrice: 99, Rooms: 1, Nights: 3})
		require.NoError(t, err)
		assert.Equal(t, int64(282), q.BaseAmount)

		q, err = Calculate(Request{BasePrice: 33, Rooms: 1, Nights: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(63), q.BaseAmount)

		// 10 * 0.95 = 9.5
		q, err = Calculate(Request{BasePrice: 5, Rooms: 1, Nights: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(10), q.BaseAmount)
	})
}

func TestCalculate_TotalIsBasePlusTax(t *testing.T) {
	taxes := []models.TaxRates{{}, {VAT: 5}, {VAT: 12.5, ServiceTax: 2.5, Other: 1}, {VAT: 18, ServiceTax: 10}}
	for price := int64(0); price <= 2000; price += 137 {
		for nights := 0; nights <= 8; nights++ {
			for rooms := 1; rooms <= 3; rooms++ {
				for _, tx := range taxes {
					q, err := Calculate(Request{BasePrice: price, Rooms: rooms, Nights: nights, Taxes: tx})
					require.NoError(t, err)
					assert.Equal(t, q.BaseAmount+q.TaxAmount, q.Total)
					if nights == 0 {
						assert.Zero(t, q.Total)
					}
				}
			}
		}
	}
}

func TestCalculate_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"NegativeBase", Request{BasePrice: -1, Rooms: 1, Nights: 1}},
		{"NegativeDiscount", Request{BasePrice: 1, DiscountedPrice: -5, Rooms: 1, Nights: 1}},
		{"NoRooms", Request{BasePrice: 1, Rooms: 0, Nights: 1}},
		{"NegativeNights", Request{BasePrice: 1, Rooms: 1, Nights: -2}},
		{"NegativeGuests", Request{BasePrice: 1, Rooms: 1, Nights: 1, Guests: -1}},
		{"NegativeTax", Request{BasePrice: 1, Rooms: 1, Nights: 1, Taxes: models.TaxRates{Other: -1}}},
		{"RatesMismatch", Request{BasePrice: 1, Rooms: 1, Nights: 2, NightlyRates: []int64{1}}},
		{"NegativeRate", Request{BasePrice: 1, Rooms: 1, Nights: 1, NightlyRates: []int64{-1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Calculate(tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCapacityTotal(t *testing.T) {
	assert.Equal(t, int64(3000), CapacityTotal(500, 2, 5, 2))
	assert.Equal(t, int64(0), CapacityTotal(500, 0, 5, 2))
}
