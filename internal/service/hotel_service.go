package service

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"os"
	"path/filepath"
	"strings"

	"hotelsite/internal/config"
	"hotelsite/internal/domain"
	"hotelsite/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LogoURLPrefix is the public path stored for uploaded logos.
const LogoURLPrefix = "uploads/"

type HotelService struct {
	repo        domain.Repository
	uploadDir   string
	maxSize     int64
	allowedExts map[string]bool
	logger      *zerolog.Logger
}

func NewHotelService(repo domain.Repository, cfg config.UploadsConfig, logger *zerolog.Logger) *HotelService {
	exts := make(map[string]bool, len(cfg.AllowedExts))
	for _, ext := range cfg.AllowedExts {
		exts[strings.ToLower(ext)] = true
	}
	return &HotelService{
		repo:        repo,
		uploadDir:   cfg.Dir,
		maxSize:     cfg.MaxSizeBytes,
		allowedExts: exts,
		logger:      logger,
	}
}

func (s *HotelService) CreateHotel(ctx context.Context, hotel *models.Hotel) error {
	hotel.Name = strings.TrimSpace(hotel.Name)
	if hotel.Name == "" {
		return validationError("hotel name is required")
	}
	if hotel.Email != "" {
		if err := validateEmail(hotel.Email); err != nil {
			return err
		}
	}
	if err := s.repo.CreateHotel(ctx, hotel); err != nil {
		return err
	}
	s.logger.Info().Int64("hotel_id", hotel.ID).Str("name", hotel.Name).Msg("hotel created")
	return nil
}

// UpdateHotel applies the set fields of patch. An empty patch is rejected.
func (s *HotelService) UpdateHotel(ctx context.Context, id int64, patch *models.HotelPatch) (*models.Hotel, error) {
	if patch == nil || patch.IsEmpty() {
		return nil, validationError("no fields to update")
	}
	if patch.Email != nil {
		if err := validateEmail(*patch.Email); err != nil {
			return nil, err
		}
	}

	hotel, err := s.repo.GetHotel(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(hotel)
	if err := s.repo.UpdateHotel(ctx, hotel); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("hotel_id", id).Msg("hotel updated")
	return hotel, nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return validationError("invalid email")
	}
	return nil
}

func (s *HotelService) GetHotel(ctx context.Context, id int64) (*models.Hotel, error) {
	return s.repo.GetHotel(ctx, id)
}

func (s *HotelService) ListHotels(ctx context.Context) ([]*models.Hotel, error) {
	return s.repo.ListHotels(ctx)
}

func (s *HotelService) DeleteHotel(ctx context.Context, id int64) error {
	if err := s.repo.DeleteHotel(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("hotel_id", id).Msg("hotel deleted")
	return nil
}

// UploadLogo stores src under a generated name and points the hotel logo at
// it. The file is removed again when the hotel cannot be updated.
func (s *HotelService) UploadLogo(ctx context.Context, id int64, filename string, src io.Reader) (*models.Hotel, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !s.allowedExts[ext] {
		return nil, validationError("file type %q is not allowed", ext)
	}

	hotel, err := s.repo.GetHotel(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	name := uuid.NewString() + ext
	path := filepath.Join(s.uploadDir, name)
	if err := s.writeFile(path, src); err != nil {
		return nil, err
	}

	hotel.Logo = LogoURLPrefix + name
	if err := s.repo.UpdateHotel(ctx, hotel); err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			s.logger.Error().Err(rmErr).Str("path", path).Msg("failed to remove orphaned logo")
		}
		return nil, err
	}
	s.logger.Info().Int64("hotel_id", id).Str("logo", hotel.Logo).Msg("hotel logo uploaded")
	return hotel, nil
}

func (s *HotelService) writeFile(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create logo file: %w", err)
	}

	reader := src
	if s.maxSize > 0 {
		reader = io.LimitReader(src, s.maxSize+1)
	}
	written, err := io.Copy(dst, reader)
	closeErr := dst.Close()
	switch {
	case err != nil:
		err = fmt.Errorf("failed to write logo file: %w", err)
	case closeErr != nil:
		err = fmt.Errorf("failed to close logo file: %w", closeErr)
	case s.maxSize > 0 && written > s.maxSize:
		err = validationError("file exceeds %d bytes", s.maxSize)
	case written == 0:
		err = validationError("file is empty")
	}
	if err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}
