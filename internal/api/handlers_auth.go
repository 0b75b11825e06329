package api

import (
	"net/http"
	"time"

	"hotelsite/internal/models"

	"github.com/labstack/echo/v4"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (s *HTTPServer) setSessionCookie(c echo.Context, session *models.Session) {
	c.SetCookie(&http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   s.cfg.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *HTTPServer) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *HTTPServer) handleRegister(c echo.Context) error {
	var req models.Registration
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}

	user, session, err := s.svc.Users.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	s.setSessionCookie(c, session)
	return c.JSON(http.StatusCreated, echo.Map{"message": "registered", "token": session.Token, "user": user})
}

func (s *HTTPServer) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}

	user, session, err := s.svc.Users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	s.setSessionCookie(c, session)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged in", "token": session.Token, "user": user})
}

func (s *HTTPServer) handleLogout(c echo.Context) error {
	if session := currentSession(c); session != nil {
		if err := s.svc.Users.Logout(c.Request().Context(), session.Token); err != nil {
			return err
		}
	}
	s.clearSessionCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (s *HTTPServer) handleMe(c echo.Context) error {
	user, err := s.svc.Users.GetUser(c.Request().Context(), currentSession(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ok", "user": user})
}

func (s *HTTPServer) handleUpdateMe(c echo.Context) error {
	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}

	user, err := s.svc.Users.UpdateProfile(c.Request().Context(), currentSession(c).UserID, req.Name, req.Phone)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "profile updated", "user": user})
}

func (s *HTTPServer) handleDeleteMe(c echo.Context) error {
	deleted, err := s.svc.Users.DeleteAccount(c.Request().Context(), currentSession(c).UserID)
	if err != nil {
		return err
	}
	s.clearSessionCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "account deleted", "user": deleted})
}
