package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotelsite/internal/config"
	"hotelsite/internal/database"
	"hotelsite/internal/domain"
	"hotelsite/internal/events"
	"hotelsite/internal/metrics"
	"hotelsite/internal/models"
	"hotelsite/internal/pricing"

	"github.com/rs/zerolog"
)

// maxPricingAttempts bounds how often a booking is repriced when the ledger
// rates move under it.
const maxPricingAttempts = 2

type BookingService struct {
	repo           domain.Repository
	eventBus       domain.EventPublisher
	sheetsWorker   domain.SyncWorker
	taxes          models.TaxRates
	maxBookingDays int
	maxNights      int
	now            func() time.Time
	logger         *zerolog.Logger
}

// NewBookingService wires the booking flow. eventBus and sheetsWorker may be nil.
func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, sheetsWorker domain.SyncWorker, cfg config.BookingConfig, logger *zerolog.Logger) *BookingService {
	if cfg.MaxBookingDays <= 0 {
		cfg.MaxBookingDays = models.DefaultMaxBookingDays
	}
	if cfg.MaxNights <= 0 {
		cfg.MaxNights = models.DefaultMaxNights
	}
	return &BookingService{
		repo:           repo,
		eventBus:       eventBus,
		sheetsWorker:   sheetsWorker,
		taxes:          cfg.Taxes,
		maxBookingDays: cfg.MaxBookingDays,
		maxNights:      cfg.MaxNights,
		now:            time.Now,
		logger:         logger,
	}
}

func (s *BookingService) today() time.Time {
	return models.NormalizeDate(s.now())
}

// ValidateStayDates checks that [checkIn, checkOut) is a non-empty range that
// starts no earlier than today, within the booking horizon and no longer than
// the nights limit.
func (s *BookingService) ValidateStayDates(checkIn, checkOut time.Time) error {
	if checkIn.IsZero() || checkOut.IsZero() {
		return validationError("check_in and check_out are required")
	}
	in, out := models.NormalizeDate(checkIn), models.NormalizeDate(checkOut)
	if !out.After(in) {
		return validationError("check_out must be after check_in")
	}

	today := s.today()
	if in.Before(today) {
		return validationError("check_in is in the past")
	}
	if in.After(today.AddDate(0, 0, s.maxBookingDays)) {
		return validationError("check_in is more than %d days ahead", s.maxBookingDays)
	}
	if nights := models.Nights(in, out); nights > s.maxNights {
		return validationError("stay of %d nights exceeds the limit of %d", nights, s.maxNights)
	}
	return nil
}

func (s *BookingService) validateStay(req *models.StayRequest) error {
	if req.RoomID <= 0 {
		return validationError("room_id is required")
	}
	if req.Guests < 1 {
		return validationError("at least one guest is required")
	}
	if req.Rooms < 0 {
		return validationError("rooms must not be negative")
	}
	if req.Rooms == 0 {
		req.Rooms = 1
	}
	if err := s.ValidateStayDates(req.CheckIn, req.CheckOut); err != nil {
		return err
	}
	req.CheckIn = models.NormalizeDate(req.CheckIn)
	req.CheckOut = models.NormalizeDate(req.CheckOut)
	return nil
}

// nights resolves every night of [from, to) against the ledger. Nights with no
// ledger row fall back to the room inventory and catalog rate; a special price
// replaces the catalog rate for its night.
func (s *BookingService) nights(ctx context.Context, room *models.Room, from, to time.Time) ([]*models.DayAvailability, error) {
	rows, err := s.repo.ListAvailability(ctx, room.ID, from, to)
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]*models.RoomAvailability, len(rows))
	for _, row := range rows {
		byDate[row.Date.Format(models.DateLayout)] = row
	}

	dates := models.StayDates(from, to)
	days := make([]*models.DayAvailability, 0, len(dates))
	for _, d := range dates {
		day := &models.DayAvailability{
			Date:           d,
			AvailableSlots: room.Inventory,
			NightlyRate:    room.NightlyRate(),
			Fallback:       true,
		}
		if row, ok := byDate[d.Format(models.DateLayout)]; ok {
			day.AvailableSlots = row.AvailableSlots
			day.SpecialPrice = row.SpecialPrice
			day.Fallback = false
			if row.SpecialPrice != nil {
				day.NightlyRate = *row.SpecialPrice
			}
		}
		days = append(days, day)
	}
	return days, nil
}

func (s *BookingService) activeRoom(ctx context.Context, roomID int64) (*models.Room, error) {
	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsActive {
		return nil, fmt.Errorf("room %d: %w", roomID, database.ErrNotFound)
	}
	return room, nil
}

// pricedStay is a priced request together with the nightly rates behind it.
type pricedStay struct {
	room  *models.Room
	quote *pricing.Quote
	rates []int64
}

// price validates the request and prices it against the ledger. It also
// reports ErrInsufficientAvailability when a night cannot hold the rooms
// charged; the authoritative check is the reservation itself.
func (s *BookingService) price(ctx context.Context, req *models.StayRequest) (*pricedStay, error) {
	if err := s.validateStay(req); err != nil {
		return nil, err
	}

	room, err := s.activeRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}

	days, err := s.nights(ctx, room, req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}
	rates := make([]int64, len(days))
	for i, d := range days {
		rates[i] = d.NightlyRate
	}

	quote, err := pricing.Calculate(pricing.Request{
		BasePrice:       room.Price,
		DiscountedPrice: room.DiscountedPrice,
		NightlyRates:    rates,
		Rooms:           req.Rooms,
		Nights:          len(days),
		Guests:          req.Guests,
		Capacity:        room.Capacity,
		Taxes:           s.taxes,
	})
	if err != nil {
		return nil, err
	}

	for _, d := range days {
		if d.AvailableSlots < quote.Rooms {
			return nil, fmt.Errorf("room %d on %s: %w", room.ID, d.Date.Format(models.DateLayout), database.ErrInsufficientAvailability)
		}
	}
	return &pricedStay{room: room, quote: &quote, rates: rates}, nil
}

// Quote prices a stay without reserving anything.
func (s *BookingService) Quote(ctx context.Context, req models.StayRequest) (*pricing.Quote, error) {
	stay, err := s.price(ctx, &req)
	if err != nil {
		return nil, err
	}
	return stay.quote, nil
}

// CreateBooking prices the stay and stores the booking together with the
// slot reservation. The ledger stays untouched when any night is short.
func (s *BookingService) CreateBooking(ctx context.Context, session *models.Session, req models.StayRequest) (*models.Booking, error) {
	if session == nil {
		return nil, ErrUnauthorized
	}

	var booking *models.Booking
	for attempt := 1; ; attempt++ {
		stay, err := s.price(ctx, &req)
		if err != nil {
			s.countFailure(err)
			return nil, err
		}

		booking = &models.Booking{
			UserID:       session.UserID,
			UserName:     session.Name,
			UserEmail:    session.Email,
			RoomID:       stay.room.ID,
			RoomName:     stay.room.Name,
			CheckIn:      req.CheckIn,
			CheckOut:     req.CheckOut,
			Guests:       req.Guests,
			Rooms:        stay.quote.Rooms,
			BaseAmount:   stay.quote.BaseAmount,
			TaxAmount:    stay.quote.TaxAmount,
			TotalPrice:   stay.quote.Total,
			Taxes:        s.taxes,
			Status:       models.StatusConfirmed,
			NightlyRates: stay.rates,
		}
		err = s.repo.CreateBookingWithReservation(ctx, booking)
		if err == nil {
			break
		}
		// the ledger changed between pricing and reserving: price again
		if errors.Is(err, database.ErrPriceChanged) && attempt < maxPricingAttempts {
			s.logger.Warn().Int64("room_id", req.RoomID).Int("attempt", attempt).Msg("nightly rate changed, repricing")
			continue
		}
		s.countFailure(err)
		return nil, err
	}

	metrics.IncBooking(metrics.BookingCreated)
	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("room_id", booking.RoomID).
		Int64("user_id", booking.UserID).
		Int("rooms", booking.Rooms).
		Int64("total", booking.TotalPrice).
		Msg("booking created")

	s.publishEvent(events.EventBookingCreated, booking, "")
	s.enqueueSync(ctx, booking, models.SyncTaskUpsert)

	return booking, nil
}

func (s *BookingService) countFailure(err error) {
	switch {
	case errors.Is(err, database.ErrInsufficientAvailability):
		metrics.IncBooking(metrics.BookingUnavailable)
	case errors.Is(err, ErrValidation), errors.Is(err, pricing.ErrInvalidInput),
		errors.Is(err, database.ErrInvalidRange), errors.Is(err, database.ErrNotFound):
		metrics.IncBooking(metrics.BookingInvalid)
	default:
		metrics.IncBooking(metrics.BookingFailed)
	}
}

// CancelBooking archives the booking and releases its slots. Customers may
// cancel their own bookings only.
func (s *BookingService) CancelBooking(ctx context.Context, session *models.Session, bookingID int64, reason string) (*models.CancelledBooking, error) {
	if _, err := s.GetBooking(ctx, session, bookingID); err != nil {
		return nil, err
	}

	cancelled, err := s.repo.CancelBooking(ctx, bookingID, reason)
	if err != nil {
		return nil, err
	}

	metrics.IncCancellation()
	s.logger.Info().Int64("booking_id", bookingID).Int64("user_id", session.UserID).Str("reason", reason).Msg("booking cancelled")

	s.publishEvent(events.EventBookingCancelled, &cancelled.Booking, reason)
	s.enqueueSync(ctx, &cancelled.Booking, models.SyncTaskStatusUpdate)

	return cancelled, nil
}

// GetBooking returns the booking when session owns it or is an admin.
func (s *BookingService) GetBooking(ctx context.Context, session *models.Session, bookingID int64) (*models.Booking, error) {
	if session == nil {
		return nil, ErrUnauthorized
	}
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != session.UserID && !session.IsAdmin() {
		return nil, ErrForbidden
	}
	return booking, nil
}

func (s *BookingService) GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	return s.repo.GetUserBookings(ctx, userID)
}

func (s *BookingService) GetBookingsByDateRange(ctx context.Context, from, to time.Time) ([]*models.Booking, error) {
	if to.Before(from) {
		return nil, validationError("to must not be before from")
	}
	return s.repo.GetBookingsByDateRange(ctx, from, to)
}

func (s *BookingService) GetCancelledBookingsByDateRange(ctx context.Context, from, to time.Time) ([]*models.CancelledBooking, error) {
	if to.Before(from) {
		return nil, validationError("to must not be before from")
	}
	return s.repo.GetCancelledBookingsByDateRange(ctx, from, to)
}

// GetAvailability lists the resolved nights of [from, to) for a room.
func (s *BookingService) GetAvailability(ctx context.Context, roomID int64, from, to time.Time) ([]*models.DayAvailability, error) {
	from, to = models.NormalizeDate(from), models.NormalizeDate(to)
	if !to.After(from) {
		return nil, validationError("to must be after from")
	}
	if n := models.Nights(from, to); n > s.maxBookingDays {
		return nil, validationError("range of %d days exceeds the limit of %d", n, s.maxBookingDays)
	}

	room, err := s.activeRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return s.nights(ctx, room, from, to)
}

// SetAvailability opens slots and sets an optional special price for every
// date of [from, to], both ends included. The range and room rules match
// GetAvailability so a successful write can always be read back.
func (s *BookingService) SetAvailability(ctx context.Context, roomID int64, from, to time.Time, slots int, specialPrice *int64) error {
	if slots < 0 {
		return validationError("slots must not be negative")
	}
	if specialPrice != nil && *specialPrice < 0 {
		return validationError("special_price must not be negative")
	}
	from, to = models.NormalizeDate(from), models.NormalizeDate(to)
	if to.Before(from) {
		return validationError("to must not be before from")
	}
	if days := models.Nights(from, to) + 1; days > s.maxBookingDays {
		return validationError("range of %d days exceeds the limit of %d", days, s.maxBookingDays)
	}
	if _, err := s.activeRoom(ctx, roomID); err != nil {
		return err
	}

	if err := s.repo.UpsertAvailabilityRange(ctx, roomID, from, to, slots, specialPrice); err != nil {
		return err
	}
	s.logger.Info().
		Int64("room_id", roomID).
		Str("from", from.Format(models.DateLayout)).
		Str("to", to.Format(models.DateLayout)).
		Int("slots", slots).
		Msg("availability updated")
	return nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, reason string) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:  booking.ID,
		UserID:     booking.UserID,
		UserEmail:  booking.UserEmail,
		RoomID:     booking.RoomID,
		RoomName:   booking.RoomName,
		CheckIn:    booking.CheckIn.Format(models.DateLayout),
		CheckOut:   booking.CheckOut.Format(models.DateLayout),
		Rooms:      booking.Rooms,
		TotalPrice: booking.TotalPrice,
		Status:     booking.Status,
		Reason:     reason,
		OccurredAt: s.now(),
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, booking *models.Booking, taskType string) {
	if s.sheetsWorker == nil {
		return
	}

	var status string
	if taskType == models.SyncTaskStatusUpdate {
		status = booking.Status
	}

	if err := s.sheetsWorker.EnqueueTask(ctx, taskType, booking.ID, booking, status); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}
