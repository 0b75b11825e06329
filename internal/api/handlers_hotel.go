package api

import (
	"net/http"
	"strconv"
	"strings"

	"hotelsite/internal/models"

	"github.com/labstack/echo/v4"
)

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid id")
	}
	return id, nil
}

type createHotelRequest struct {
	Name string `json:"name"`
}

func (s *HTTPServer) handleCreateHotel(c echo.Context) error {
	var req createHotelRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}

	hotel := &models.Hotel{Name: req.Name}
	if err := s.svc.Hotels.CreateHotel(c.Request().Context(), hotel); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "hotel created", "hotel": hotel})
}

func (s *HTTPServer) handleUpdateHotel(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var patch models.HotelPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest("invalid request body")
	}

	hotel, err := s.svc.Hotels.UpdateHotel(c.Request().Context(), id, &patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "hotel updated", "hotel": hotel})
}

func (s *HTTPServer) handleUploadLogo(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	file, err := c.FormFile("logo")
	if err != nil {
		return badRequest("no file uploaded")
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	hotel, err := s.svc.Hotels.UploadLogo(c.Request().Context(), id, file.Filename, src)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logo uploaded", "hotel": hotel})
}

func (s *HTTPServer) handleListHotels(c echo.Context) error {
	hotels, err := s.svc.Hotels.ListHotels(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ok", "hotels": hotels})
}

func (s *HTTPServer) handleGetHotel(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	hotel, err := s.svc.Hotels.GetHotel(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ok", "hotel": hotel})
}

func (s *HTTPServer) handleDeleteHotel(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := s.svc.Hotels.DeleteHotel(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "hotel deleted"})
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
