package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"hotelsite/internal/config"
	"hotelsite/internal/database"
	"hotelsite/internal/logging"
	"hotelsite/internal/models"
	"hotelsite/internal/service"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app holds what every command needs. Close releases the database and the log
// file.
type app struct {
	cfg    *config.Config
	db     *database.DB
	logger *zerolog.Logger
	closer io.Closer
}

func openApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logger = logging.Component(logger, "hotelctl")

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &app{cfg: cfg, db: db, logger: logger, closer: closer}, nil
}

func (a *app) Close() {
	_ = a.db.Close()
	if a.closer != nil {
		_ = a.closer.Close()
	}
}

// bookings builds a booking service without event or sheet side effects.
func (a *app) bookings() *service.BookingService {
	return service.NewBookingService(a.db, nil, nil, a.cfg.Booking, a.logger)
}

func (a *app) rooms() *service.RoomService {
	return service.NewRoomService(a.db, a.logger)
}

// dateFlag reads a YYYY-MM-DD flag, returning def when it is unset.
func dateFlag(cmd *cobra.Command, name string, def time.Time) (time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return def, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: expected YYYY-MM-DD, got %q", name, raw)
	}
	return d, nil
}
