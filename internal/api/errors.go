package api

import (
	"errors"
	"net/http"

	"hotelsite/internal/database"
	"hotelsite/internal/pricing"
	"hotelsite/internal/service"

	"github.com/labstack/echo/v4"
)

const (
	codeValidation       = "validation_error"
	codeUnauthorized     = "unauthorized"
	codeForbidden        = "forbidden"
	codeNotFound         = "not_found"
	codeConflict         = "conflict"
	codeUnavailableRooms = "insufficient_availability"
	codePriceChanged     = "price_changed"
	codeRateLimited      = "rate_limited"
	codeTooLarge         = "payload_too_large"
	codeMethodNotAllowed = "method_not_allowed"
	codeUnavailable      = "unavailable"
	codeInternal         = "internal_error"
)

// errorResponse is the body of every failed request. Error is a stable code;
// the underlying error is only logged.
type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

var statusCodes = map[int]string{
	http.StatusBadRequest:            codeValidation,
	http.StatusUnauthorized:          codeUnauthorized,
	http.StatusForbidden:             codeForbidden,
	http.StatusNotFound:              codeNotFound,
	http.StatusMethodNotAllowed:      codeMethodNotAllowed,
	http.StatusConflict:              codeConflict,
	http.StatusRequestEntityTooLarge: codeTooLarge,
	http.StatusTooManyRequests:       codeRateLimited,
	http.StatusServiceUnavailable:    codeUnavailable,
}

func classify(err error) (int, errorResponse) {
	var validation *service.ValidationError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, errorResponse{Message: validation.Message, Error: codeValidation}
	case errors.Is(err, service.ErrValidation), errors.Is(err, pricing.ErrInvalidInput), errors.Is(err, database.ErrInvalidRange):
		return http.StatusBadRequest, errorResponse{Message: "invalid request", Error: codeValidation}
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, errorResponse{Message: "authentication required", Error: codeUnauthorized}
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, errorResponse{Message: "access denied", Error: codeForbidden}
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound, errorResponse{Message: "resource not found", Error: codeNotFound}
	case errors.Is(err, database.ErrInsufficientAvailability):
		return http.StatusConflict, errorResponse{Message: "room is not available for the selected dates", Error: codeUnavailableRooms}
	case errors.Is(err, database.ErrPriceChanged):
		return http.StatusConflict, errorResponse{Message: "the price changed, please review the new quote", Error: codePriceChanged}
	case errors.Is(err, database.ErrDuplicate):
		return http.StatusConflict, errorResponse{Message: "resource already exists", Error: codeConflict}
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests, errorResponse{Message: "too many attempts, try again later", Error: codeRateLimited}
	case errors.As(err, &httpErr):
		code, ok := statusCodes[httpErr.Code]
		if !ok {
			code = codeInternal
		}
		msg, ok := httpErr.Message.(string)
		if !ok || httpErr.Code >= http.StatusInternalServerError {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, errorResponse{Message: msg, Error: code}
	default:
		return http.StatusInternalServerError, errorResponse{Message: "internal server error", Error: codeInternal}
	}
}

func (s *HTTPServer) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := classify(err)
	requestID := c.Response().Header().Get(echo.HeaderXRequestID)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("request_id", requestID).Str("path", c.Path()).Msg("request failed")
	} else {
		s.logger.Debug().Err(err).Str("request_id", requestID).Str("path", c.Path()).Int("status", status).Msg("request rejected")
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, body)
}

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}
