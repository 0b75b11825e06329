package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hotelsite/internal/models"
)

const hotelColumns = `id, name, address, contact_numbers, check_in_time, check_out_time, logo,
	food_and_dining, host_details, caretaker_details, email, created_at, updated_at`

type hotelDocs struct {
	contacts, food, host, caretaker string
}

func encodeHotelDocs(h *models.Hotel) (hotelDocs, error) {
	var (
		docs hotelDocs
		err  error
	)
	if docs.contacts, err = encodeJSON(nonNil(h.ContactNumbers)); err != nil {
		return docs, err
	}
	if docs.food, err = encodeJSON(nonNilDoc(h.FoodAndDining)); err != nil {
		return docs, err
	}
	if docs.host, err = encodeJSON(nonNilDoc(h.HostDetails)); err != nil {
		return docs, err
	}
	if docs.caretaker, err = encodeJSON(nonNilDoc(h.CaretakerDetails)); err != nil {
		return docs, err
	}
	return docs, nil
}

func (db *DB) CreateHotel(ctx context.Context, hotel *models.Hotel) error {
	docs, err := encodeHotelDocs(hotel)
	if err != nil {
		return err
	}

	query := `INSERT INTO hotels (
				name, address, contact_numbers, check_in_time, check_out_time, logo,
				food_and_dining, host_details, caretaker_details, email, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		hotel.Name,
		hotel.Address,
		docs.contacts,
		hotel.CheckInTime,
		hotel.CheckOutTime,
		hotel.Logo,
		docs.food,
		docs.host,
		docs.caretaker,
		hotel.Email,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create hotel: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	hotel.ID = id
	hotel.CreatedAt = now
	hotel.UpdatedAt = now
	return nil
}

// UpdateHotel writes every profile field of hotel.
func (db *DB) UpdateHotel(ctx context.Context, hotel *models.Hotel) error {
	docs, err := encodeHotelDocs(hotel)
	if err != nil {
		return err
	}

	query := `UPDATE hotels SET name = ?, address = ?, contact_numbers = ?, check_in_time = ?,
	                 check_out_time = ?, logo = ?, food_and_dining = ?, host_details = ?,
	                 caretaker_details = ?, email = ?, updated_at = ?
	          WHERE id = ?`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		hotel.Name,
		hotel.Address,
		docs.contacts,
		hotel.CheckInTime,
		hotel.CheckOutTime,
		hotel.Logo,
		docs.food,
		docs.host,
		docs.caretaker,
		hotel.Email,
		now,
		hotel.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update hotel: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("hotel %d: %w", hotel.ID, ErrNotFound)
	}
	hotel.UpdatedAt = now
	return nil
}

func (db *DB) GetHotel(ctx context.Context, id int64) (*models.Hotel, error) {
	hotel, err := scanHotel(db.QueryRowContext(ctx, `SELECT `+hotelColumns+` FROM hotels WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("hotel %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get hotel: %w", err)
	}
	return hotel, nil
}

func (db *DB) ListHotels(ctx context.Context) ([]*models.Hotel, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+hotelColumns+` FROM hotels ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list hotels: %w", err)
	}
	defer rows.Close()

	var hotels []*models.Hotel
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hotel: %w", err)
		}
		hotels = append(hotels, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate hotels: %w", err)
	}
	return hotels, nil
}

func (db *DB) DeleteHotel(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM hotels WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete hotel: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("hotel %d: %w", id, ErrNotFound)
	}
	return nil
}

func scanHotel(row rowScanner) (*models.Hotel, error) {
	var (
		h    models.Hotel
		docs hotelDocs
	)
	err := row.Scan(
		&h.ID, &h.Name, &h.Address, &docs.contacts, &h.CheckInTime, &h.CheckOutTime, &h.Logo,
		&docs.food, &docs.host, &docs.caretaker, &h.Email, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	for _, col := range []struct {
		raw string
		dst any
	}{
		{docs.contacts, &h.ContactNumbers},
		{docs.food, &h.FoodAndDining},
		{docs.host, &h.HostDetails},
		{docs.caretaker, &h.CaretakerDetails},
	} {
		if err := decodeJSON(col.raw, col.dst); err != nil {
			return nil, err
		}
	}
	return &h, nil
}

func nonNilDoc(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
