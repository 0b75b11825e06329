package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"hotelsite/internal/config"
	"hotelsite/internal/database"
	"hotelsite/internal/domain"
	"hotelsite/internal/models"

	"github.com/rs/zerolog"
)

// RoomService serves the public catalog from memory. The cache is reloaded
// after every admin write and whenever it is older than ttl.
type RoomService struct {
	repo     domain.Repository
	logger   *zerolog.Logger
	ttl      time.Duration
	rooms    []*models.Room
	roomsMap map[int64]*models.Room
	loadedAt time.Time
	mu       sync.RWMutex
	now      func() time.Time
}

func NewRoomService(repo domain.Repository, logger *zerolog.Logger) *RoomService {
	return &RoomService{
		repo:     repo,
		logger:   logger,
		ttl:      models.RoomsCacheTTL,
		roomsMap: make(map[int64]*models.Room),
		now:      time.Now,
	}
}

func (s *RoomService) stale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt.IsZero() || s.now().Sub(s.loadedAt) > s.ttl
}

func (s *RoomService) ensureFresh(ctx context.Context) error {
	if !s.stale() {
		return nil
	}
	return s.Refresh(ctx)
}

// ListRooms returns active rooms matching filter ordered by sort order, then id.
func (s *RoomService) ListRooms(ctx context.Context, filter models.RoomFilter) ([]*models.Room, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, validationError("unknown room type %q", filter.Type)
	}
	if filter.Guests < 0 || filter.MaxPrice < 0 {
		return nil, validationError("filters must not be negative")
	}
	if err := s.ensureFresh(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*models.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		if filter.Match(room) {
			copied := *room
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *RoomService) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	if err := s.ensureFresh(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.roomsMap[id]
	if !ok {
		return nil, fmt.Errorf("room %d: %w", id, database.ErrNotFound)
	}
	copied := *room
	return &copied, nil
}

// GetAllRooms bypasses the cache and includes inactive rooms.
func (s *RoomService) GetAllRooms(ctx context.Context) ([]*models.Room, error) {
	return s.repo.GetAllRooms(ctx)
}

func validateRoom(room *models.Room) error {
	if strings.TrimSpace(room.Name) == "" {
		return validationError("room name is required")
	}
	if !room.Type.Valid() {
		return validationError("unknown room type %q", room.Type)
	}
	if room.Capacity < 1 {
		return validationError("capacity must be at least 1")
	}
	if room.Price < 0 || room.DiscountedPrice < 0 || room.Inventory < 0 {
		return validationError("price and inventory must not be negative")
	}
	if room.Rating < 0 || room.Rating > 5 {
		return validationError("rating must be between 0 and 5")
	}
	return nil
}

func (s *RoomService) CreateRoom(ctx context.Context, room *models.Room) error {
	if err := validateRoom(room); err != nil {
		return err
	}
	if err := s.repo.CreateRoom(ctx, room); err != nil {
		return err
	}
	s.logger.Info().Int64("room_id", room.ID).Str("name", room.Name).Msg("room created")
	return s.Refresh(ctx)
}

func (s *RoomService) UpdateRoom(ctx context.Context, room *models.Room) error {
	if err := validateRoom(room); err != nil {
		return err
	}
	if err := s.repo.UpdateRoom(ctx, room); err != nil {
		return err
	}
	s.logger.Info().Int64("room_id", room.ID).Bool("active", room.IsActive).Msg("room updated")
	return s.Refresh(ctx)
}

// PatchRoom applies the set fields of patch to a room, active or not. An empty
// patch is rejected.
func (s *RoomService) PatchRoom(ctx context.Context, id int64, patch *models.RoomPatch) (*models.Room, error) {
	if patch == nil || patch.IsEmpty() {
		return nil, validationError("no fields to update")
	}
	room, err := s.repo.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(room)
	if err := s.UpdateRoom(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// SeedRooms loads the catalog seed file entries and reloads the cache. Rooms
// already in the catalog are only rewritten when overwrite is set, so admin
// edits survive a restart.
func (s *RoomService) SeedRooms(ctx context.Context, rooms []models.Room, overwrite bool) error {
	if err := config.ValidateRooms(rooms); err != nil {
		return validationError("%v", err)
	}
	created := 0
	for i := range rooms {
		room := rooms[i]
		if overwrite {
			if err := s.repo.UpsertRoom(ctx, &room); err != nil {
				return fmt.Errorf("seed room %d: %w", room.ID, err)
			}
			continue
		}
		_, err := s.repo.GetRoom(ctx, room.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("seed room %d: %w", room.ID, err)
		}
		if err := s.repo.CreateRoom(ctx, &room); err != nil {
			return fmt.Errorf("seed room %d: %w", room.ID, err)
		}
		created++
	}
	s.logger.Info().Int("rooms", len(rooms)).Int("created", created).Bool("overwrite", overwrite).Msg("room catalog seeded")
	return s.Refresh(ctx)
}

// Refresh reloads active rooms from the repository.
func (s *RoomService) Refresh(ctx context.Context) error {
	rooms, err := s.repo.GetActiveRooms(ctx)
	if err != nil {
		return err
	}
	sort.SliceStable(rooms, func(i, j int) bool {
		if rooms[i].SortOrder != rooms[j].SortOrder {
			return rooms[i].SortOrder < rooms[j].SortOrder
		}
		return rooms[i].ID < rooms[j].ID
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms = rooms
	s.roomsMap = make(map[int64]*models.Room, len(rooms))
	for _, room := range rooms {
		s.roomsMap[room.ID] = room
	}
	s.loadedAt = s.now()
	return nil
}
