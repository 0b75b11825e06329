package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"hotelsite/internal/config"
	"hotelsite/internal/domain"
	"hotelsite/internal/metrics"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// Services are the use cases exposed over HTTP.
type Services struct {
	Bookings domain.BookingService
	Rooms    domain.RoomService
	Users    domain.UserService
	Hotels   domain.HotelService
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HTTPServer is the public JSON API of the site.
type HTTPServer struct {
	cfg    config.APIConfig
	svc    Services
	db     Pinger
	echo   *echo.Echo
	server *http.Server
	auth   *HTTPAuth
	logger *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, uploads config.UploadsConfig, svc Services, db Pinger, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	s := &HTTPServer{
		cfg:    cfg,
		svc:    svc,
		db:     db,
		auth:   NewHTTPAuth(cfg),
		logger: logger,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.errorHandler

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:     true,
		LogURI:        true,
		LogMethod:     true,
		LogLatency:    true,
		LogRequestID:  true,
		LogRoutePath:  true,
		LogRemoteIP:   true,
		HandleError:   true,
		LogValuesFunc: s.logRequest,
	}))
	e.Use(middleware.Recover())
	if cfg.HTTP.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.HTTP.BodyLimit))
	}
	e.Use(s.auth.RateLimit)
	e.Use(s.loadSession)

	if uploads.Dir != "" {
		e.Static("/uploads", uploads.Dir)
	}

	s.echo = e
	s.routes()
	return s
}

func (s *HTTPServer) routes() {
	e := s.echo

	e.GET("/healthz", s.handleHealth)
	e.GET("/readyz", s.handleReady)

	hotel := e.Group("/hotel")
	hotel.GET("", s.handleListHotels)
	hotel.GET("/:id", s.handleGetHotel)
	hotel.POST("", s.handleCreateHotel, s.requireAdmin)
	hotel.PUT("/:id", s.handleUpdateHotel, s.requireAdmin)
	hotel.DELETE("/:id", s.handleDeleteHotel, s.requireAdmin)
	hotel.POST("/:id/logo", s.handleUploadLogo, s.requireAdmin)

	e.GET("/rooms", s.handleListRooms)
	e.GET("/rooms/:id", s.handleGetRoom)
	e.GET("/rooms/:id/availability", s.handleRoomAvailability)
	e.POST("/quote", s.handleQuote)

	auth := e.Group("/auth")
	auth.POST("/register", s.handleRegister)
	auth.POST("/login", s.handleLogin)
	auth.POST("/logout", s.handleLogout)
	auth.GET("/me", s.handleMe, requireSession)
	auth.PUT("/me", s.handleUpdateMe, requireSession)
	auth.DELETE("/me", s.handleDeleteMe, requireSession)

	bookings := e.Group("/bookings", requireSession)
	bookings.POST("", s.handleCreateBooking)
	bookings.GET("", s.handleListBookings)
	bookings.GET("/:id", s.handleGetBooking)
	bookings.POST("/:id/cancel", s.handleCancelBooking)

	admin := e.Group("/admin", s.requireAdmin)
	admin.GET("/rooms", s.handleAdminListRooms)
	admin.POST("/rooms", s.handleAdminCreateRoom)
	admin.PUT("/rooms/:id", s.handleAdminUpdateRoom)
	admin.PUT("/rooms/:id/availability", s.handleAdminSetAvailability)
	admin.GET("/bookings", s.handleAdminBookings)
	admin.GET("/bookings/cancelled", s.handleAdminCancelledBookings)
	admin.GET("/bookings/export", s.handleAdminExport)
	admin.GET("/users", s.handleAdminUsers)
	admin.GET("/users/deleted", s.handleAdminDeletedUsers)
}

// Handler exposes the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.echo
}

func (s *HTTPServer) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.HTTP.Port),
		Handler:      s.echo,
		ReadTimeout:  s.cfg.HTTP.ReadTimeout,
		WriteTimeout: s.cfg.HTTP.WriteTimeout,
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.echo.StartServer(s.server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *HTTPServer) logRequest(c echo.Context, v middleware.RequestLoggerValues) error {
	route := v.RoutePath
	if route == "" {
		route = "unmatched"
	}
	metrics.ObserveHTTP(route, v.Method, v.Status, v.Latency)

	event := s.logger.Info()
	if v.Status >= http.StatusInternalServerError {
		event = s.logger.Error()
	}
	event.
		Str("request_id", v.RequestID).
		Str("method", v.Method).
		Str("uri", v.URI).
		Str("remote", v.RemoteIP).
		Int("status", v.Status).
		Dur("duration", v.Latency).
		Msg("http request")
	return nil
}

func (s *HTTPServer) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "ok"})
}

func (s *HTTPServer) handleReady(c echo.Context) error {
	if s.db != nil {
		if err := s.db.PingContext(c.Request().Context()); err != nil {
			s.logger.Error().Err(err).Msg("readiness check failed")
			return c.JSON(http.StatusServiceUnavailable, errorResponse{Message: "not ready", Error: codeUnavailable})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ready"})
}
