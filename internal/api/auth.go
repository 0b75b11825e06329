package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"sync"

	"hotelsite/internal/config"
	"hotelsite/internal/models"
	"hotelsite/internal/service"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	permRoomsWrite   = "rooms:write"
	permBookingsRead = "bookings:read"
	permUsersRead    = "users:read"
	permHotelWrite   = "hotel:write"
	clientKeyUnknown = "unknown"
)

var (
	errMissingAPIKey    = echo.NewHTTPError(http.StatusUnauthorized, "missing api key headers")
	errInvalidAPIKey    = echo.NewHTTPError(http.StatusUnauthorized, "invalid api key")
	errPermissionDenied = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errRateLimited      = echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
)

// HTTPAuth provides API-key auth for admin clients and per-client rate
// limiting for every request.
type HTTPAuth struct {
	cfg      config.APIConfig
	clients  map[string]config.APIClientKey
	limiters sync.Map // map[string]*rate.Limiter
}

func NewHTTPAuth(cfg config.APIConfig) *HTTPAuth {
	m := make(map[string]config.APIClientKey, len(cfg.Auth.APIKeys))
	for _, k := range cfg.Auth.APIKeys {
		m[k.Key] = k
	}
	return &HTTPAuth{cfg: cfg, clients: m}
}

func (a *HTTPAuth) apiKeyHeader() string {
	h := strings.TrimSpace(a.cfg.Auth.HeaderAPIKey)
	if h == "" {
		h = "x-api-key"
	}
	return h
}

func (a *HTTPAuth) extraHeader() string {
	h := strings.TrimSpace(a.cfg.Auth.HeaderExtra)
	if h == "" {
		h = "x-api-extra"
	}
	return h
}

// hasAPIKey reports whether the request tries API-key auth at all.
func (a *HTTPAuth) hasAPIKey(r *http.Request) bool {
	return a.cfg.Auth.Enabled && strings.TrimSpace(r.Header.Get(a.apiKeyHeader())) != ""
}

func (a *HTTPAuth) checkAPIKey(r *http.Request, required string) error {
	apiKey := strings.TrimSpace(r.Header.Get(a.apiKeyHeader()))
	extra := strings.TrimSpace(r.Header.Get(a.extraHeader()))
	if apiKey == "" || extra == "" {
		return errMissingAPIKey
	}

	client, ok := a.clients[apiKey]
	if !ok {
		return errInvalidAPIKey
	}
	if subtle.ConstantTimeCompare([]byte(client.Extra), []byte(extra)) != 1 {
		return errInvalidAPIKey
	}

	return checkPermissions(client, required)
}

func checkPermissions(client config.APIClientKey, required string) error {
	if required == "" {
		return nil
	}
	// an empty list grants everything
	if len(client.Permissions) == 0 {
		return nil
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return nil
		}
	}
	return errPermissionDenied
}

func requiredPermission(path string) string {
	switch {
	case strings.HasPrefix(path, "/admin/rooms"):
		return permRoomsWrite
	case strings.HasPrefix(path, "/admin/bookings"):
		return permBookingsRead
	case strings.HasPrefix(path, "/admin/users"):
		return permUsersRead
	case strings.HasPrefix(path, "/hotel"):
		return permHotelWrite
	default:
		return ""
	}
}

// RateLimit applies a token bucket per API key, or per client IP for
// anonymous callers.
func (a *HTTPAuth) RateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if a.cfg.RateLimit.RPS <= 0 {
			return next(c)
		}
		if !a.getLimiter(a.clientKey(c)).Allow() {
			return errRateLimited
		}
		return next(c)
	}
}

func (a *HTTPAuth) clientKey(c echo.Context) string {
	if apiKey := strings.TrimSpace(c.Request().Header.Get(a.apiKeyHeader())); apiKey != "" {
		return "key:" + apiKey
	}
	if ip := c.RealIP(); ip != "" {
		return "ip:" + ip
	}
	return clientKeyUnknown
}

func (a *HTTPAuth) getLimiter(key string) *rate.Limiter {
	if v, ok := a.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := a.cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(a.cfg.RateLimit.RPS), burst)
	actual, loaded := a.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying the authenticated session.
func WithSession(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFromContext returns the session attached by WithSession.
func SessionFromContext(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(*models.Session)
	return session, ok && session != nil
}

func currentSession(c echo.Context) *models.Session {
	session, _ := SessionFromContext(c.Request().Context())
	return session
}

func (s *HTTPServer) sessionToken(r *http.Request) string {
	if h := r.Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if cookie, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// loadSession resolves the session token, if any, and stores the session in
// the request context. Unknown or expired tokens leave the request anonymous.
func (s *HTTPServer) loadSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := s.sessionToken(c.Request())
		if token == "" || s.svc.Users == nil {
			return next(c)
		}

		session, err := s.svc.Users.Authenticate(c.Request().Context(), token)
		switch {
		case err == nil:
			c.SetRequest(c.Request().WithContext(WithSession(c.Request().Context(), session)))
		case errors.Is(err, service.ErrUnauthorized):
			// anonymous
		default:
			return err
		}
		return next(c)
	}
}

func requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if currentSession(c) == nil {
			return service.ErrUnauthorized
		}
		return next(c)
	}
}

// requireAdmin accepts a configured API client or an admin session.
func (s *HTTPServer) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.auth.hasAPIKey(c.Request()) {
			if err := s.auth.checkAPIKey(c.Request(), requiredPermission(c.Path())); err != nil {
				return err
			}
			return next(c)
		}

		session := currentSession(c)
		if session == nil {
			return service.ErrUnauthorized
		}
		if !session.IsAdmin() {
			return service.ErrForbidden
		}
		return next(c)
	}
}
