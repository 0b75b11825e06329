package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hotelsite/internal/models"
)

// GetAvailability returns the ledger row for (roomID, date). ErrNotFound means
// the caller should fall back to catalog defaults.
func (db *DB) GetAvailability(ctx context.Context, roomID int64, date time.Time) (*models.RoomAvailability, error) {
	query := `SELECT room_id, date, available_slots, special_price, updated_at
              FROM room_availability WHERE room_id = ? AND date = ?`
	a, err := scanAvailability(db.QueryRowContext(ctx, query, roomID, formatDate(date)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("availability for room %d on %s: %w", roomID, formatDate(date), ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get availability: %w", err)
	}
	return a, nil
}

// ListAvailability returns the ledger rows of a room for dates in [from, to).
func (db *DB) ListAvailability(ctx context.Context, roomID int64, from, to time.Time) ([]*models.RoomAvailability, error) {
	query := `SELECT room_id, date, available_slots, special_price, updated_at
              FROM room_availability WHERE room_id = ? AND date >= ? AND date < ? ORDER BY date`
	rows, err := db.QueryContext(ctx, query, roomID, formatDate(from), formatDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	defer rows.Close()

	var result []*models.RoomAvailability
	for rows.Next() {
		a, err := scanAvailability(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan availability: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate availability: %w", err)
	}
	return result, nil
}

// UpsertAvailability writes one ledger row. A second write for the same
// (room, date) replaces slots and special price instead of adding a row.
func (db *DB) UpsertAvailability(ctx context.Context, a *models.RoomAvailability) error {
	return db.UpsertAvailabilityRange(ctx, a.RoomID, a.Date, a.Date, a.AvailableSlots, a.SpecialPrice)
}

// UpsertAvailabilityRange sets slots and special price for every date in
// [from, to], both ends inclusive, in one transaction.
func (db *DB) UpsertAvailabilityRange(ctx context.Context, roomID int64, from, to time.Time, slots int, specialPrice *int64) error {
	from, to = models.NormalizeDate(from), models.NormalizeDate(to)
	if to.Before(from) {
		return fmt.Errorf("%w: %s is before %s", ErrInvalidRange, formatDate(to), formatDate(from))
	}
	if slots < 0 {
		return fmt.Errorf("%w: negative slots", ErrInvalidRange)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms WHERE id = ?`, roomID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check room: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("room %d: %w", roomID, ErrNotFound)
	}

	var price sql.NullInt64
	if specialPrice != nil {
		price = sql.NullInt64{Int64: *specialPrice, Valid: true}
	}

	query := `INSERT INTO room_availability (room_id, date, available_slots, special_price, updated_at)
              VALUES (?, ?, ?, ?, ?)
              ON CONFLICT(room_id, date) DO UPDATE SET
                available_slots = excluded.available_slots,
                special_price = excluded.special_price,
                updated_at = excluded.updated_at`
	now := time.Now()
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if _, err := tx.ExecContext(ctx, query, roomID, formatDate(d), slots, price, now); err != nil {
			if isCheckViolation(err) {
				return fmt.Errorf("%w: %v", ErrInvalidRange, err)
			}
			return fmt.Errorf("failed to upsert availability: %w", err)
		}
	}

	return tx.Commit()
}

// Reserve takes count slots for every night in [checkIn, checkOut). Either all
// nights are decremented or none are.
func (db *DB) Reserve(ctx context.Context, roomID int64, checkIn, checkOut time.Time, count int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := reserveTx(ctx, tx, roomID, checkIn, checkOut, count); err != nil {
		return err
	}
	return tx.Commit()
}

// Release gives back slots taken by Reserve.
func (db *DB) Release(ctx context.Context, roomID int64, checkIn, checkOut time.Time, count int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := releaseTx(ctx, tx, roomID, checkIn, checkOut, count); err != nil {
		return err
	}
	return tx.Commit()
}

// reserveTx materializes missing ledger rows from the room inventory and then
// decrements each night only when enough slots are left. The first night that
// cannot be covered aborts the reservation; the caller's rollback undoes the
// nights already decremented.
func reserveTx(ctx context.Context, tx *sql.Tx, roomID int64, checkIn, checkOut time.Time, count int) error {
	dates := models.StayDates(checkIn, checkOut)
	if len(dates) == 0 {
		return fmt.Errorf("%w: check-out must be after check-in", ErrInvalidRange)
	}
	if count < 1 {
		return fmt.Errorf("%w: at least one slot must be reserved", ErrInvalidRange)
	}

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms WHERE id = ?`, roomID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check room: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("room %d: %w", roomID, ErrNotFound)
	}

	materialize := `INSERT INTO room_availability (room_id, date, available_slots, special_price, updated_at)
                    SELECT id, ?, inventory, NULL, ? FROM rooms WHERE id = ?
                    ON CONFLICT(room_id, date) DO NOTHING`
	decrement := `UPDATE room_availability
                  SET available_slots = available_slots - ?, updated_at = ?
                  WHERE room_id = ? AND date = ? AND available_slots >= ?`

	now := time.Now()
	for _, d := range dates {
		date := formatDate(d)
		if _, err := tx.ExecContext(ctx, materialize, date, now, roomID); err != nil {
			return fmt.Errorf("failed to materialize availability: %w", err)
		}
		result, err := tx.ExecContext(ctx, decrement, count, now, roomID, date, count)
		if err != nil {
			return fmt.Errorf("failed to reserve availability: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return fmt.Errorf("room %d on %s: %w", roomID, date, ErrInsufficientAvailability)
		}
	}
	return nil
}

// checkRatesTx compares the nightly rates of [checkIn, checkOut) as seen by
// tx with want. Ledger rows must already exist, which reserveTx guarantees.
func checkRatesTx(ctx context.Context, tx *sql.Tx, roomID int64, checkIn, checkOut time.Time, want []int64) error {
	dates := models.StayDates(checkIn, checkOut)
	if len(dates) != len(want) {
		return fmt.Errorf("room %d: %d rates for %d nights: %w", roomID, len(want), len(dates), ErrPriceChanged)
	}

	var room models.Room
	err := tx.QueryRowContext(ctx, `SELECT price, discounted_price FROM rooms WHERE id = ?`, roomID).
		Scan(&room.Price, &room.DiscountedPrice)
	if err != nil {
		return fmt.Errorf("failed to read room rate: %w", err)
	}

	query := `SELECT special_price FROM room_availability WHERE room_id = ? AND date = ?`
	for i, d := range dates {
		var special sql.NullInt64
		if err := tx.QueryRowContext(ctx, query, roomID, formatDate(d)).Scan(&special); err != nil {
			return fmt.Errorf("failed to read nightly rate: %w", err)
		}
		rate := room.NightlyRate()
		if special.Valid {
			rate = special.Int64
		}
		if rate != want[i] {
			return fmt.Errorf("room %d on %s: %w", roomID, formatDate(d), ErrPriceChanged)
		}
	}
	return nil
}

// releaseTx adds count slots back to every night in [checkIn, checkOut).
// Nights without a ledger row already fall back to the full inventory and are
// left alone.
func releaseTx(ctx context.Context, tx *sql.Tx, roomID int64, checkIn, checkOut time.Time, count int) error {
	query := `UPDATE room_availability
              SET available_slots = available_slots + ?, updated_at = ?
              WHERE room_id = ? AND date = ?`
	now := time.Now()
	for _, d := range models.StayDates(checkIn, checkOut) {
		if _, err := tx.ExecContext(ctx, query, count, now, roomID, formatDate(d)); err != nil {
			return fmt.Errorf("failed to release availability: %w", err)
		}
	}
	return nil
}

func scanAvailability(row rowScanner) (*models.RoomAvailability, error) {
	var (
		a       models.RoomAvailability
		dateStr string
		price   sql.NullInt64
	)
	if err := row.Scan(&a.RoomID, &dateStr, &a.AvailableSlots, &price, &a.UpdatedAt); err != nil {
		return nil, err
	}
	date, err := parseDate(dateStr)
	if err != nil {
		return nil, err
	}
	a.Date = date
	if price.Valid {
		p := price.Int64
		a.SpecialPrice = &p
	}
	return &a, nil
}
