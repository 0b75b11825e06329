package api

import (
	"net/http"
	"strconv"
	"time"

	"hotelsite/internal/models"

	"github.com/labstack/echo/v4"
)

const defaultAvailabilityDays = 14

// stayRequest is the body of quote and booking requests. Dates are
// YYYY-MM-DD.
type stayRequest struct {
	RoomID   int64  `json:"room_id"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	Guests   int    `json:"guests"`
	Rooms    int    `json:"rooms"`
}

func (r stayRequest) toModel() (models.StayRequest, error) {
	checkIn, err := models.ParseDate(trimmed(r.CheckIn))
	if err != nil {
		return models.StayRequest{}, badRequest("invalid check_in; expected YYYY-MM-DD")
	}
	checkOut, err := models.ParseDate(trimmed(r.CheckOut))
	if err != nil {
		return models.StayRequest{}, badRequest("invalid check_out; expected YYYY-MM-DD")
	}
	return models.StayRequest{
		RoomID:   r.RoomID,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Guests:   r.Guests,
		Rooms:    r.Rooms,
	}, nil
}

func queryInt(c echo.Context, name string) (int64, error) {
	raw := trimmed(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, badRequest("invalid " + name)
	}
	return v, nil
}

// queryDate parses a YYYY-MM-DD query parameter, falling back to def.
func queryDate(c echo.Context, name string, def time.Time) (time.Time, error) {
	raw := trimmed(c.QueryParam(name))
	if raw == "" {
		return def, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return time.Time{}, badRequest("invalid " + name + "; expected YYYY-MM-DD")
	}
	return d, nil
}

func (s *HTTPServer) handleListRooms(c echo.Context) error {
	guests, err := queryInt(c, "guests")
	if err != nil {
		return err
	}
	maxPrice, err := queryInt(c, "max_price")
	if err != nil {
		return err
	}

	filter := models.RoomFilter{
		Type:     models.RoomType(trimmed(c.QueryParam("type"))),
		Guests:   int(guests),
		MaxPrice: maxPrice,
		Amenity:  trimmed(c.QueryParam("amenity")),
	}
	rooms, err := s.svc.Rooms.ListRooms(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ok", "rooms": rooms})
}

func (s *HTTPServer) handleGetRoom(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	room, err := s.svc.Rooms.GetRoom(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ok", "room": room})
}

func (s *HTTPServer) handleRoomAvailability(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	from, err := queryDate(c, "from", models.NormalizeDate(time.Now()))
	if err != nil {
		return err
	}
	to, err := queryDate(c, "to", from.AddDate(0, 0, defaultAvailabilityDays))
	if err != nil {
		return err
	}

	days, err := s.svc.Bookings.GetAvailability(c.Request().Context(), id, from, to)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ok", "room_id": id, "availability": days})
}

func (s *HTTPServer) handleQuote(c echo.Context) error {
	var req stayRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	stay, err := req.toModel()
	if err != nil {
		return err
	}

	quote, err := s.svc.Bookings.Quote(c.Request().Context(), stay)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ok", "quote": quote})
}
