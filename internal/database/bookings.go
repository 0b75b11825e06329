package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hotelsite/internal/models"
)

const bookingColumns = `id, user_id, user_name, user_email, room_id, room_name, check_in, check_out,
	guests, rooms, base_amount, tax_amount, total_price, vat, service_tax, other_tax, status,
	created_at, updated_at`

// CreateBookingWithReservation reserves the booked slots and stores the
// booking in one transaction. ErrInsufficientAvailability and ErrPriceChanged
// leave both the ledger and the bookings table untouched.
func (db *DB) CreateBookingWithReservation(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := reserveTx(ctx, tx, booking.RoomID, booking.CheckIn, booking.CheckOut, booking.Rooms); err != nil {
		return err
	}
	if booking.NightlyRates != nil {
		if err := checkRatesTx(ctx, tx, booking.RoomID, booking.CheckIn, booking.CheckOut, booking.NightlyRates); err != nil {
			return err
		}
	}

	query := `INSERT INTO bookings (
				user_id, user_name, user_email, room_id, room_name, check_in, check_out,
				guests, rooms, base_amount, tax_amount, total_price, vat, service_tax, other_tax,
				status, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	if booking.Status == "" {
		booking.Status = models.StatusConfirmed
	}
	result, err := tx.ExecContext(ctx, query,
		booking.UserID,
		booking.UserName,
		booking.UserEmail,
		booking.RoomID,
		booking.RoomName,
		formatDate(booking.CheckIn),
		formatDate(booking.CheckOut),
		booking.Guests,
		booking.Rooms,
		booking.BaseAmount,
		booking.TaxAmount,
		booking.TotalPrice,
		booking.Taxes.VAT,
		booking.Taxes.ServiceTax,
		booking.Taxes.Other,
		booking.Status,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	booking.ID = id
	booking.CheckIn = models.NormalizeDate(booking.CheckIn)
	booking.CheckOut = models.NormalizeDate(booking.CheckOut)
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

// CancelBooking moves a booking into cancelled_bookings and returns its slots
// to the ledger.
func (db *DB) CancelBooking(ctx context.Context, id int64, reason string) (*models.CancelledBooking, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	booking, err := scanBooking(tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("booking %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load booking in tx: %w", err)
	}

	now := time.Now()
	insert := `INSERT INTO cancelled_bookings (` + bookingColumns + `, cancelled_at, reason)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insert,
		booking.ID,
		booking.UserID,
		booking.UserName,
		booking.UserEmail,
		booking.RoomID,
		booking.RoomName,
		formatDate(booking.CheckIn),
		formatDate(booking.CheckOut),
		booking.Guests,
		booking.Rooms,
		booking.BaseAmount,
		booking.TaxAmount,
		booking.TotalPrice,
		booking.Taxes.VAT,
		booking.Taxes.ServiceTax,
		booking.Taxes.Other,
		models.StatusCancelled,
		booking.CreatedAt,
		now,
		now,
		reason,
	); err != nil {
		return nil, fmt.Errorf("failed to archive booking: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("failed to delete booking: %w", err)
	}

	if err := releaseTx(ctx, tx, booking.RoomID, booking.CheckIn, booking.CheckOut, booking.Rooms); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	booking.Status = models.StatusCancelled
	booking.UpdatedAt = now
	return &models.CancelledBooking{Booking: *booking, CancelledAt: now, Reason: reason}, nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	booking, err := scanBooking(db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("booking %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (db *DB) GetCancelledBooking(ctx context.Context, id int64) (*models.CancelledBooking, error) {
	query := `SELECT ` + bookingColumns + `, cancelled_at, reason FROM cancelled_bookings WHERE id = ?`
	c, err := scanCancelledBooking(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("cancelled booking %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get cancelled booking: %w", err)
	}
	return c, nil
}

func (db *DB) GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? ORDER BY check_in DESC, id DESC`
	return db.queryBookings(ctx, query, userID)
}

func (db *DB) GetUserCancelledBookings(ctx context.Context, userID int64) ([]*models.CancelledBooking, error) {
	query := `SELECT ` + bookingColumns + `, cancelled_at, reason
              FROM cancelled_bookings WHERE user_id = ? ORDER BY cancelled_at DESC`
	return db.queryCancelledBookings(ctx, query, userID)
}

// GetBookingsByDateRange returns bookings whose stay overlaps [from, to].
func (db *DB) GetBookingsByDateRange(ctx context.Context, from, to time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE check_in <= ? AND check_out > ? ORDER BY check_in, id`
	return db.queryBookings(ctx, query, formatDate(to), formatDate(from))
}

// GetCancelledBookingsByDateRange returns cancellations made within [from, to].
func (db *DB) GetCancelledBookingsByDateRange(ctx context.Context, from, to time.Time) ([]*models.CancelledBooking, error) {
	query := `SELECT ` + bookingColumns + `, cancelled_at, reason FROM cancelled_bookings
              WHERE date(cancelled_at) >= ? AND date(cancelled_at) <= ? ORDER BY cancelled_at`
	return db.queryCancelledBookings(ctx, query, formatDate(from), formatDate(to))
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

func (db *DB) queryCancelledBookings(ctx context.Context, query string, args ...any) ([]*models.CancelledBooking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cancelled bookings: %w", err)
	}
	defer rows.Close()

	var result []*models.CancelledBooking
	for rows.Next() {
		c, err := scanCancelledBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cancelled booking: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cancelled bookings: %w", err)
	}
	return result, nil
}

func bookingDest(b *models.Booking, checkIn, checkOut *string) []any {
	return []any{
		&b.ID, &b.UserID, &b.UserName, &b.UserEmail, &b.RoomID, &b.RoomName, checkIn, checkOut,
		&b.Guests, &b.Rooms, &b.BaseAmount, &b.TaxAmount, &b.TotalPrice,
		&b.Taxes.VAT, &b.Taxes.ServiceTax, &b.Taxes.Other, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	}
}

type stayDates struct {
	checkIn  string
	checkOut string
}

func (b *stayDates) apply(booking *models.Booking) error {
	var err error
	if booking.CheckIn, err = parseDate(b.checkIn); err != nil {
		return err
	}
	if booking.CheckOut, err = parseDate(b.checkOut); err != nil {
		return err
	}
	return nil
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b     models.Booking
		dates stayDates
	)
	if err := row.Scan(bookingDest(&b, &dates.checkIn, &dates.checkOut)...); err != nil {
		return nil, err
	}
	if err := dates.apply(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

func scanCancelledBooking(row rowScanner) (*models.CancelledBooking, error) {
	var (
		c     models.CancelledBooking
		dates stayDates
	)
	dest := append(bookingDest(&c.Booking, &dates.checkIn, &dates.checkOut), &c.CancelledAt, &c.Reason)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if err := dates.apply(&c.Booking); err != nil {
		return nil, err
	}
	return &c, nil
}
