package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (s *HTTPServer) handleCreateBooking(c echo.Context) error {
	var req stayRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	stay, err := req.toModel()
	if err != nil {
		return err
	}

	booking, err := s.svc.Bookings.CreateBooking(c.Request().Context(), currentSession(c), stay)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "booking confirmed", "booking": booking})
}

func (s *HTTPServer) handleListBookings(c echo.Context) error {
	bookings, err := s.svc.Bookings.GetUserBookings(c.Request().Context(), currentSession(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ok", "bookings": bookings})
}

func (s *HTTPServer) handleGetBooking(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	booking, err := s.svc.Bookings.GetBooking(c.Request().Context(), currentSession(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ok", "booking": booking})
}

func (s *HTTPServer) handleCancelBooking(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}

	cancelled, err := s.svc.Bookings.CancelBooking(c.Request().Context(), currentSession(c), id, trimmed(req.Reason))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "booking cancelled", "booking": cancelled})
}
