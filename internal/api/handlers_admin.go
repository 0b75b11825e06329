package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"hotelsite/internal/export"
	"hotelsite/internal/models"

	"github.com/labstack/echo/v4"
)

const defaultReportDays = 30

type availabilityRequest struct {
	From         string `json:"from"`
	To           string `json:"to"`
	Slots        int    `json:"slots"`
	SpecialPrice *int64 `json:"special_price"`
}

// reportRange reads from/to query parameters; the default is the next
// defaultReportDays days.
func reportRange(c echo.Context) (time.Time, time.Time, error) {
	from, err := queryDate(c, "from", models.NormalizeDate(time.Now()))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := queryDate(c, "to", from.AddDate(0, 0, defaultReportDays))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func (s *HTTPServer) handleAdminListRooms(c echo.Context) error {
	rooms, err := s.svc.Rooms.GetAllRooms(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ok", "rooms": rooms})
}

func (s *HTTPServer) handleAdminCreateRoom(c echo.Context) error {
	room := models.Room{IsActive: true}
	if err := c.Bind(&room); err != nil {
		return badRequest("invalid request body")
	}
	if err := s.svc.Rooms.CreateRoom(c.Request().Context(), &room); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "room created", "room": room})
}

func (s *HTTPServer) handleAdminUpdateRoom(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var patch models.RoomPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest("invalid request body")
	}

	room, err := s.svc.Rooms.PatchRoom(c.Request().Context(), id, &patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "room updated", "room": room})
}

func (s *HTTPServer) handleAdminSetAvailability(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req availabilityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	from, err := models.ParseDate(trimmed(req.From))
	if err != nil {
		return badRequest("invalid from; expected YYYY-MM-DD")
	}
	to, err := models.ParseDate(trimmed(req.To))
	if err != nil {
		return badRequest("invalid to; expected YYYY-MM-DD")
	}

	ctx := c.Request().Context()
	if err := s.svc.Bookings.SetAvailability(ctx, id, from, to, req.Slots, req.SpecialPrice); err != nil {
		return err
	}
	days, err := s.svc.Bookings.GetAvailability(ctx, id, from, to.AddDate(0, 0, 1))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "availability updated", "availability": days})
}

func (s *HTTPServer) handleAdminBookings(c echo.Context) error {
	from, to, err := reportRange(c)
	if err != nil {
		return err
	}
	bookings, err := s.svc.Bookings.GetBookingsByDateRange(c.Request().Context(), from, to)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ok", "bookings": bookings})
}

func (s *HTTPServer) handleAdminCancelledBookings(c echo.Context) error {
	now := models.NormalizeDate(time.Now())
	from, err := queryDate(c, "from", now.AddDate(0, 0, -defaultReportDays))
	if err != nil {
		return err
	}
	to, err := queryDate(c, "to", now)
	if err != nil {
		return err
	}
	cancelled, err := s.svc.Bookings.GetCancelledBookingsByDateRange(c.Request().Context(), from, to)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ok", "bookings": cancelled})
}

func (s *HTTPServer) handleAdminExport(c echo.Context) error {
	from, to, err := reportRange(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	rooms, err := s.svc.Rooms.GetAllRooms(ctx)
	if err != nil {
		return err
	}
	bookings, err := s.svc.Bookings.GetBookingsByDateRange(ctx, from, to)
	if err != nil {
		return err
	}
	cancelled, err := s.svc.Bookings.GetCancelledBookingsByDateRange(ctx, from, to)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	report := &export.Report{From: from, To: to, Rooms: rooms, Bookings: bookings, Cancelled: cancelled}
	if err := export.Write(&buf, report); err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", export.FileName(from, to)))
	return c.Blob(http.StatusOK, export.ContentType, buf.Bytes())
}

func (s *HTTPServer) handleAdminUsers(c echo.Context) error {
	users, err := s.svc.Users.GetAllUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ok", "users": users})
}

func (s *HTTPServer) handleAdminDeletedUsers(c echo.Context) error {
	users, err := s.svc.Users.GetDeletedUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ok", "users": users})
}
