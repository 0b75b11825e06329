package service

import (
	"context"
	"testing"
	"time"

	"hotelsite/internal/config"
	"hotelsite/internal/database"
	"hotelsite/internal/events"
	"hotelsite/internal/models"
	"hotelsite/internal/pricing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type bookingFixture struct {
	db      *database.DB
	svc     *BookingService
	bus     *mockEventBus
	worker  *mockSyncWorker
	room    *models.Room
	guest   *models.Session
	another *models.Session
	admin   *models.Session
}

func newBookingFixture(t *testing.T, room models.Room) *bookingFixture {
	t.Helper()
	db := newTestDB(t)
	logger := zerolog.Nop()
	bus := new(mockEventBus)
	worker := new(mockSyncWorker)

	cfg := config.BookingConfig{
		Taxes:          models.TaxRates{VAT: 5, ServiceTax: 3},
		MaxBookingDays: 365,
		MaxNights:      30,
	}
	svc := NewBookingService(db, bus, worker, cfg, &logger)
	svc.now = func() time.Time { return time.Date(2030, 6, 1, 10, 0, 0, 0, time.UTC) }

	return &bookingFixture{
		db:      db,
		svc:     svc,
		bus:     bus,
		worker:  worker,
		room:    seedRoom(t, db, room),
		guest:   &models.Session{UserID: 10, Name: "Ann", Email: "ann@example.com", Role: models.RoleCustomer},
		another: &models.Session{UserID: 11, Email: "bob@example.com", Role: models.RoleCustomer},
		admin:   &models.Session{UserID: 1, Email: "admin@example.com", Role: models.RoleAdmin},
	}
}

func TestValidateStayDates(t *testing.T) {
	f := newBookingFixture(t, models.Room{Name: "Standard", Price: 1000, Inventory: 1})

	tests := []struct {
		name     string
		checkIn  string
		checkOut string
		wantErr  bool
	}{
		{"valid", "2030-06-10", "2030-06-12", false},
		{"today", "2030-06-01", "2030-06-02", false},
		{"same day", "2030-06-10", "2030-06-10", true},
		{"inverted", "2030-06-12", "2030-06-10", true},
		{"past", "2030-05-31", "2030-06-02", true},
		{"too far ahead", "2031-06-10", "2031-06-12", true},
		{"too long", "2030-06-10", "2030-07-11", true},
		{"max nights", "2030-06-10", "2030-07-10", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.ValidateStayDates(day(tt.checkIn), day(tt.checkOut))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.ErrorIs(t, f.svc.ValidateStayDates(time.Time{}, day("2030-06-12")), ErrValidation)
}

func TestQuote(t *testing.T) {
	ctx := context.Background()

	t.Run("stay discount and taxes", func(t *testing.T) {
		f := newBookingFixture(t, models.Room{Name: "Standard", Price: 1000, Inventory: 1})

		q, err := f.svc.Quote(ctx, models.StayRequest{
			RoomID: f.room.ID, CheckIn: day("2030-06-10"), CheckOut: day("2030-06-15"), Guests: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, 5, q.Nights)
		assert.Equal(t, 1, q.Rooms)
		assert.Equal(t, int64(4500), q.BaseAmount)
		assert.Equal(t, int64(360), q.TaxAmount)
		assert.Equal(t, int64(4860), q.Total)
	})

	t.Run("discounted catalog rate", func(t *testing.T) {
		f := newBookingFixture(t, models.Room{Name: "Deluxe", Price: 1000, DiscountedPrice: 800, Inventory: 1})

		q, err := f.svc.Quote(ctx, models.StayRequest{
			RoomID: f.room.ID, CheckIn: day("2030-06-10"), CheckOut: day("2030-06-11"), Guests: 2,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(800), q.PerNightEffective)
		assert.Equal(t, int64(800), q.BaseAmount)
	})

	t.Run("special price overrides one night", func(t *testing.T) {
		f := newBookingFixture(t, models.Room{Name: "Standard", Price: 1000, Inventory: 2})
		special := int64(500)
		require.NoError(t, f.svc.SetAvailability(ctx, f.room.ID, day("2030-06-10"), day("2030-06-10"), 2, &special))

		q, err := f.svc.Quote(ctx, models.StayRequest{
			RoomID: f.room.ID, CheckIn: day("2030-06-10"), CheckOut: day("2030-06-12"), Guests: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1500), q.Subtotal)
		assert.Equal(t, int64(1425), q.BaseAmount)
	})

	t.Run("capacity drives room count", func(t *testing.T) {
		f := newBookingFixture(t, models.Room{Name: "Twin", Price: 100, Capacity: 2, Inventory: 3})

		q, err := f.svc.Quote(ctx, models.StayRequest{
			RoomID: f.room.ID, CheckIn: day("2030-06-10"), CheckOut: day("2030-06-11"), Guests: 5,
		})
		require.NoError(t, err)
		assert.Equal(t, 3, q.RequiredRooms)
		assert.Equal(t, 3, q.Rooms)
		assert.Equal(t, int64(300), q.BaseAmount)
	})

	t.Run("not enough units", func(t *testing.T) {
		f := newBookingFixture(t, models.Room{Name: "Twin", Price: 100, Capacity: 2, Inventory: 1})

		_, err := f.svc.Quote(ctx, models.StayRequest{
			RoomID: f.room.ID, CheckIn: day("2030-06-10"), CheckOut: day("2030-06-11"), Guests: 3,
		})
		assert.ErrorIs(t, err, database.ErrInsufficientAvailability)
	})

	t.Run("invalid requests", func(t *testing.T) {
		f := newBookingFixture(t, models.Room{Name: "Standard", Price: 1000, Inventory: 1})
		base := models.StayRequest{RoomID: f.room.ID, CheckIn: day("2030-06-10"), CheckOut: day("2030-06-11"), Guests: 1}

		req := base
		req.Guests = 0
		_, err := f.svc.Quote(ctx, req)
		assert.ErrorIs(t, err, ErrValidation)

		req = base
		req.Rooms = -1
		_, err = f.svc.Quote(ctx, req)
		assert.ErrorIs(t, err, ErrValidation)

		req = base
		req.RoomID = 999
		_, err = f.svc.Quote(ctx, req)
		assert.ErrorIs(t, err, database.ErrNotFound)
	})
}

func TestCreateBooking(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t, models.Room{Name: "Standard", Price: 1000, Inventory: 1})

	f.bus.On("PublishJSON", events.EventBookingCreated, mock.AnythingOfType("events.BookingEventPayload")).Return(nil).Once()
	f.worker.On("EnqueueTask", mock.Anything, models.SyncTaskUpsert, mock.AnythingOfType("int64"), mock.Anything, "").Return(nil).Once()

	req := models.StayRequest{RoomID: f.room.ID, CheckIn: day("2030-06-10"), CheckOut: day("2030-06-12"), Guests: 2}
	booking, err := f.svc.CreateBooking(ctx, f.guest, req)
	require.NoError(t, err)
	assert.NotZero(t, booking.ID)
	assert.Equal(t, f.guest.UserID, booking.UserID)
	assert.Equal(t, "Standard", booking.RoomName)
	assert.Equal(t, models.StatusConfirmed, booking.Status)
	assert.Equal(t, int64(1900), booking.BaseAmount)
	assert.Equal(t, int64(152), booking.TaxAmount)
	assert.Equal(t, int64(2052), booking.TotalPrice)

	days, err := f.svc.GetAvailability(ctx, f.room.ID, day("2030-06-10"), day("2030-06-13"))
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, 0, days[0].AvailableSlots)
	assert.Equal(t, 0, days[1].AvailableSlots)
	assert.False(t, days[1].Fallback)
	assert.Equal(t, 1, days[2].AvailableSlots)
	assert.True(t, days[2].Fallback)

	// the last unit is gone for the overlapping night
	_, err = f.svc.CreateBooking(ctx, f.another, models.StayRequest{
		RoomID: f.room.ID, CheckIn: day("2030-06-11"), CheckOut: day("2030-06-13"), Guests: 1,
	})
	assert.ErrorIs(t, err, database.ErrInsufficientAvailability)

	_, err = f.svc.CreateBooking(ctx, nil, req)
	assert.ErrorIs(t, err, ErrUnauthorized)

	f.bus.AssertExpectations(t)
	f.worker.AssertExpectations(t)
}

func TestCreateBookingFailedReservationIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t, models.Room{Name: "Standard", Price: 1000, Inventory: 5})
	require.NoError(t, f.svc.SetAvailability(ctx, f.room.ID, day("2030-06-10"), day("2030-06-10"), 1, nil))

	_, err := f.svc.CreateBooking(ctx, f.guest, models.StayRequest{
		RoomID: f.room.ID, CheckIn: day("2030-06-09"), CheckOut: day("2030-06-12"), Guests: 1, Rooms: 2,
	})
	assert.ErrorIs(t, err, database.ErrInsufficientAvailability)

	rows, err := f.db.ListAvailability(ctx, f.room.ID, day("2030-06-09"), day("2030-06-12"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].AvailableSlots)

	bookings, err := f.db.GetUserBookings(ctx, f.guest.UserID)
	require.NoError(t, err)
	assert.Empty(t, bookings)

	f.bus.AssertNotCalled(t, "PublishJSON", mock.Anything, mock.Anything)
	f.worker.AssertNotCalled(t, "EnqueueTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelBooking(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t, models.Room{Name: "Standard", Price: 1000, Inventory: 1})

	f.bus.On("PublishJSON", events.EventBookingCreated, mock.Anything).Return(nil)
	f.worker.On("EnqueueTask", mock.Anything, models.SyncTaskUpsert, mock.Anything, mock.Anything, "").Return(nil)
	f.bus.On("PublishJSON", events.EventBookingCancelled, mock.MatchedBy(func(p events.BookingEventPayload) bool {
		return p.Reason == "plans changed" && p.Status == models.StatusCancelled
	})).Return(nil).Once()
	f.worker.On("EnqueueTask", mock.Anything, models.SyncTaskStatusUpdate, mock.Anything, mock.Anything, models.StatusCancelled).Return(nil).Once()

	booking, err := f.svc.CreateBooking(ctx, f.guest, models.StayRequest{
		RoomID: f.room.ID, CheckIn: day("2030-06-10"), CheckOut: day("2030-06-12"), Guests: 1,
	})
	require.NoError(t, err)

	_, err = f.svc.CancelBooking(ctx, f.another, booking.ID, "")
	assert.ErrorIs(t, err, ErrForbidden)

	cancelled, err := f.svc.CancelBooking(ctx, f.guest, booking.ID, "plans changed")
	require.NoError(t, err)
	assert.Equal(t, booking.ID, cancelled.ID)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, "plans changed", cancelled.Reason)

	_, err = f.svc.GetBooking(ctx, f.guest, booking.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)

	days, err := f.svc.GetAvailability(ctx, f.room.ID, day("2030-06-10"), day("2030-06-12"))
	require.NoError(t, err)
	for _, d := range days {
		assert.Equal(t, 1, d.AvailableSlots)
	}

	// cancellations are filed by the day they happened
	now := time.Now()
	archived, err := f.svc.GetCancelledBookingsByDateRange(ctx, now.AddDate(0, 0, -1), now.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, archived, 1)

	f.bus.AssertExpectations(t)
	f.worker.AssertExpectations(t)
}

func TestGetBookingAccess(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t, models.Room{Name: "Standard", Price: 1000, Inventory: 2})
	f.svc.eventBus = nil
	f.svc.sheetsWorker = nil

	booking, err := f.svc.CreateBooking(ctx, f.guest, models.StayRequest{
		RoomID: f.room.ID, CheckIn: day("2030-06-10"), CheckOut: day("2030-06-11"), Guests: 1,
	})
	require.NoError(t, err)

	got, err := f.svc.GetBooking(ctx, f.guest, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.TotalPrice, got.TotalPrice)

	_, err = f.svc.GetBooking(ctx, f.admin, booking.ID)
	assert.NoError(t, err)

	_, err = f.svc.GetBooking(ctx, f.another, booking.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.GetBooking(ctx, nil, booking.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	list, err := f.svc.GetUserBookings(ctx, f.guest.UserID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = f.svc.GetBookingsByDateRange(ctx, day("2030-06-01"), day("2030-06-30"))
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.svc.GetBookingsByDateRange(ctx, day("2030-06-30"), day("2030-06-01"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSetAvailability(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t, models.Room{Name: "Standard", Price: 1000, Inventory: 1})

	negative := int64(-1)
	assert.ErrorIs(t, f.svc.SetAvailability(ctx, f.room.ID, day("2030-06-10"), day("2030-06-11"), -1, nil), ErrValidation)
	assert.ErrorIs(t, f.svc.SetAvailability(ctx, f.room.ID, day("2030-06-10"), day("2030-06-11"), 1, &negative), ErrValidation)
	assert.ErrorIs(t, f.svc.SetAvailability(ctx, f.room.ID, day("2030-06-11"), day("2030-06-10"), 1, nil), ErrValidation)
	assert.ErrorIs(t, f.svc.SetAvailability(ctx, 999, day("2030-06-10"), day("2030-06-11"), 1, nil), database.ErrNotFound)

	price := int64(700)
	require.NoError(t, f.svc.SetAvailability(ctx, f.room.ID, day("2030-06-10"), day("2030-06-11"), 4, &price))
	// upsert merges instead of duplicating
	require.NoError(t, f.svc.SetAvailability(ctx, f.room.ID, day("2030-06-11"), day("2030-06-11"), 3, nil))

	days, err := f.svc.GetAvailability(ctx, f.room.ID, day("2030-06-10"), day("2030-06-12"))
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, 4, days[0].AvailableSlots)
	assert.Equal(t, int64(700), days[0].NightlyRate)
	assert.Equal(t, 3, days[1].AvailableSlots)
	assert.Nil(t, days[1].SpecialPrice)
	assert.Equal(t, int64(1000), days[1].NightlyRate)

	_, err = f.svc.GetAvailability(ctx, f.room.ID, day("2030-06-12"), day("2030-06-12"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestQuoteMatchesPricingEngine(t *testing.T) {
	f := newBookingFixture(t, models.Room{Name: "Standard", Price: 250, Inventory: 2})
	f.svc.taxes = models.TaxRates{}

	q, err := f.svc.Quote(context.Background(), models.StayRequest{
		RoomID: f.room.ID, CheckIn: day("2030-06-10"), CheckOut: day("2030-06-13"), Guests: 1, Rooms: 2,
	})
	require.NoError(t, err)

	want, err := pricing.Calculate(pricing.Request{BasePrice: 250, Rooms: 2, Nights: 3, Guests: 1, Capacity: 2})
	require.NoError(t, err)
	assert.Equal(t, want.Total, q.Total)
	assert.Equal(t, int64(1425), q.Total)
}

func TestSetAvailabilityRejectsBeforeWriting(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t, models.Room{Name: "Standard", Price: 1000, Inventory: 1})

	err := f.svc.SetAvailability(ctx, f.room.ID, day("2030-06-10"), day("2031-07-14"), 2, nil)
	assert.ErrorIs(t, err, ErrValidation)

	// the whole horizon is still writable
	require.NoError(t, f.svc.SetAvailability(ctx, f.room.ID, day("2030-06-10"), day("2031-06-09"), 2, nil))
	rows, err := f.db.ListAvailability(ctx, f.room.ID, day("2030-06-01"), day("2031-08-01"))
	require.NoError(t, err)
	assert.Len(t, rows, 365)

	inactive := seedRoom(t, f.db, models.Room{Name: "Closed", Price: 900, Inventory: 1})
	inactive.IsActive = false
	require.NoError(t, f.db.UpdateRoom(ctx, inactive))

	err = f.svc.SetAvailability(ctx, inactive.ID, day("2030-06-10"), day("2030-06-11"), 2, nil)
	assert.ErrorIs(t, err, database.ErrNotFound)
	rows, err = f.db.ListAvailability(ctx, inactive.ID, day("2030-06-01"), day("2030-07-01"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

// rateShiftRepo moves a nightly rate right before each reservation.
type rateShiftRepo struct {
	*database.DB
	calls int
	shift func(call int)
}

func (r *rateShiftRepo) CreateBookingWithReservation(ctx context.Context, booking *models.Booking) error {
	r.calls++
	if r.shift != nil {
		r.shift(r.calls)
	}
	return r.DB.CreateBookingWithReservation(ctx, booking)
}

func newRateShiftService(t *testing.T, repo *rateShiftRepo) *BookingService {
	t.Helper()
	logger := zerolog.Nop()
	svc := NewBookingService(repo, nil, nil, config.BookingConfig{
		Taxes:          models.TaxRates{VAT: 5, ServiceTax: 3},
		MaxBookingDays: 365,
		MaxNights:      30,
	}, &logger)
	svc.now = func() time.Time { return time.Date(2030, 6, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestCreateBookingRepricesWhenRateChanges(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	room := seedRoom(t, db, models.Room{Name: "Standard", Price: 1000, Inventory: 1})

	special := int64(800)
	repo := &rateShiftRepo{DB: db, shift: func(call int) {
		if call == 1 {
			require.NoError(t, db.UpsertAvailabilityRange(ctx, room.ID, day("2030-06-11"), day("2030-06-11"), 1, &special))
		}
	}}
	svc := newRateShiftService(t, repo)

	session := &models.Session{UserID: 10, Name: "Ann", Email: "ann@example.com", Role: models.RoleCustomer}
	booking, err := svc.CreateBooking(ctx, session, models.StayRequest{
		RoomID: room.ID, CheckIn: day("2030-06-10"), CheckOut: day("2030-06-12"), Guests: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
	// (1000 + 800) x 0.95 = 1710, taxes 8% = 137
	assert.Equal(t, int64(1710), booking.BaseAmount)
	assert.Equal(t, int64(137), booking.TaxAmount)
	assert.Equal(t, int64(1847), booking.TotalPrice)
}

func TestCreateBookingGivesUpWhenRateKeepsChanging(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	room := seedRoom(t, db, models.Room{Name: "Standard", Price: 1000, Inventory: 1})

	repo := &rateShiftRepo{DB: db, shift: func(call int) {
		price := int64(800 + call)
		require.NoError(t, db.UpsertAvailabilityRange(ctx, room.ID, day("2030-06-10"), day("2030-06-10"), 1, &price))
	}}
	svc := newRateShiftService(t, repo)

	session := &models.Session{UserID: 10, Role: models.RoleCustomer}
	_, err := svc.CreateBooking(ctx, session, models.StayRequest{
		RoomID: room.ID, CheckIn: day("2030-06-10"), CheckOut: day("2030-06-11"), Guests: 1,
	})
	assert.ErrorIs(t, err, database.ErrPriceChanged)
	assert.Equal(t, maxPricingAttempts, repo.calls)

	bookings, err := db.GetUserBookings(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, bookings)
}
