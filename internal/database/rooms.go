package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hotelsite/internal/models"
)

const roomColumns = `id, name, description, images, price, discounted_price, rating, type,
	capacity, amenities, inventory, sort_order, is_active, created_at, updated_at`

// CreateRoom inserts a room. A non-zero ID is kept as is, which lets the
// catalog seed use stable ids.
func (db *DB) CreateRoom(ctx context.Context, room *models.Room) error {
	images, err := encodeJSON(nonNil(room.Images))
	if err != nil {
		return err
	}
	amenities, err := encodeJSON(nonNil(room.Amenities))
	if err != nil {
		return err
	}

	var id any
	if room.ID != 0 {
		id = room.ID
	}

	query := `INSERT INTO rooms (` + roomColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		id,
		room.Name,
		room.Description,
		images,
		room.Price,
		room.DiscountedPrice,
		room.Rating,
		string(room.Type),
		room.Capacity,
		amenities,
		room.Inventory,
		room.SortOrder,
		room.IsActive,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("room %d: %w", room.ID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create room: %w", err)
	}

	newID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	room.ID = newID
	room.CreatedAt = now
	room.UpdatedAt = now
	return nil
}

// UpdateRoom overwrites the mutable catalog fields of a room.
func (db *DB) UpdateRoom(ctx context.Context, room *models.Room) error {
	images, err := encodeJSON(nonNil(room.Images))
	if err != nil {
		return err
	}
	amenities, err := encodeJSON(nonNil(room.Amenities))
	if err != nil {
		return err
	}

	query := `UPDATE rooms SET name = ?, description = ?, images = ?, price = ?, discounted_price = ?,
	                 rating = ?, type = ?, capacity = ?, amenities = ?, inventory = ?, sort_order = ?,
	                 is_active = ?, updated_at = ?
	          WHERE id = ?`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		room.Name,
		room.Description,
		images,
		room.Price,
		room.DiscountedPrice,
		room.Rating,
		string(room.Type),
		room.Capacity,
		amenities,
		room.Inventory,
		room.SortOrder,
		room.IsActive,
		now,
		room.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("room %d: %w", room.ID, ErrNotFound)
	}
	room.UpdatedAt = now
	return nil
}

// UpsertRoom creates the room or refreshes it when the id already exists.
func (db *DB) UpsertRoom(ctx context.Context, room *models.Room) error {
	if room.ID == 0 {
		return db.CreateRoom(ctx, room)
	}
	if _, err := db.GetRoom(ctx, room.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return db.CreateRoom(ctx, room)
		}
		return err
	}
	return db.UpdateRoom(ctx, room)
}

func (db *DB) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`
	room, err := scanRoom(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return room, nil
}

func (db *DB) GetActiveRooms(ctx context.Context) ([]*models.Room, error) {
	return db.queryRooms(ctx, `SELECT `+roomColumns+` FROM rooms WHERE is_active = 1 ORDER BY sort_order, id`)
}

func (db *DB) GetAllRooms(ctx context.Context) ([]*models.Room, error) {
	return db.queryRooms(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY sort_order, id`)
}

func (db *DB) queryRooms(ctx context.Context, query string, args ...any) ([]*models.Room, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rooms: %w", err)
	}
	return rooms, nil
}

func scanRoom(row rowScanner) (*models.Room, error) {
	var (
		room      models.Room
		roomType  string
		images    string
		amenities string
	)
	err := row.Scan(
		&room.ID, &room.Name, &room.Description, &images, &room.Price, &room.DiscountedPrice,
		&room.Rating, &roomType, &room.Capacity, &amenities, &room.Inventory, &room.SortOrder,
		&room.IsActive, &room.CreatedAt, &room.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	room.Type = models.RoomType(roomType)
	if err := decodeJSON(images, &room.Images); err != nil {
		return nil, err
	}
	if err := decodeJSON(amenities, &room.Amenities); err != nil {
		return nil, err
	}
	return &room, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
