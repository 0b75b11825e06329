package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"hotelsite/internal/config"
	"hotelsite/internal/database"
	"hotelsite/internal/domain"
	"hotelsite/internal/events"
	"hotelsite/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type UserService struct {
	repo       domain.Repository
	sessions   domain.SessionRepository
	eventBus   domain.EventPublisher
	logger     *zerolog.Logger
	sessionTTL time.Duration
	adminsMap  map[string]bool
	hashCost   int
	now        func() time.Time
}

func NewUserService(repo domain.Repository, sessions domain.SessionRepository, eventBus domain.EventPublisher, cfg *config.Config, logger *zerolog.Logger) *UserService {
	adminsMap := make(map[string]bool)
	for _, email := range cfg.Admins {
		adminsMap[normalizeEmail(email)] = true
	}

	ttl := cfg.API.Session.TTL
	if ttl <= 0 {
		ttl = models.DefaultSessionTTL
	}

	return &UserService{
		repo:       repo,
		sessions:   sessions,
		eventBus:   eventBus,
		logger:     logger,
		sessionTTL: ttl,
		adminsMap:  adminsMap,
		hashCost:   bcrypt.DefaultCost,
		now:        time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) IsAdminEmail(email string) bool {
	return s.adminsMap[normalizeEmail(email)]
}

// Register creates a customer account and logs it in.
func (s *UserService) Register(ctx context.Context, reg models.Registration) (*models.User, *models.Session, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = normalizeEmail(reg.Email)
	if reg.Name == "" {
		return nil, nil, validationError("name is required")
	}
	if _, err := mail.ParseAddress(reg.Email); err != nil {
		return nil, nil, validationError("invalid email")
	}
	if len(reg.Password) < minPasswordLength {
		return nil, nil, validationError("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.hashCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         reg.Name,
		Email:        reg.Email,
		Phone:        strings.TrimSpace(reg.Phone),
		PasswordHash: string(hash),
		Role:         models.RoleCustomer,
	}
	if s.IsAdminEmail(reg.Email) {
		user.Role = models.RoleAdmin
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, nil, err
	}
	s.logger.Info().Int64("user_id", user.ID).Str("role", user.Role).Msg("user registered")

	session, err := s.newSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Login checks the password and opens a new session. Failed attempts are
// throttled per email; a successful login clears the counter.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, *models.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil, validationError("email and password are required")
	}

	limitKey := "login:" + email
	allowed, err := s.sessions.CheckRateLimit(ctx, limitKey, models.LoginAttemptsLimit, models.LoginAttemptsWindow)
	if err != nil {
		s.logger.Warn().Err(err).Msg("login rate limit check failed")
	} else if !allowed {
		return nil, nil, ErrRateLimited
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil, ErrUnauthorized
		}
		return nil, nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info().Int64("user_id", user.ID).Msg("login rejected")
		return nil, nil, ErrUnauthorized
	}

	if err := s.sessions.ResetRateLimit(ctx, limitKey); err != nil {
		s.logger.Warn().Err(err).Msg("failed to reset login rate limit")
	}

	// roles granted by config after registration take effect on next login
	if user.Role != models.RoleAdmin && s.IsAdminEmail(user.Email) {
		if err := s.repo.UpdateUserRole(ctx, user.ID, models.RoleAdmin); err != nil {
			return nil, nil, err
		}
		user.Role = models.RoleAdmin
	}

	session, err := s.newSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

func (s *UserService) newSession(ctx context.Context, user *models.User) (*models.Session, error) {
	now := s.now()
	session := &models.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

func (s *UserService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.DeleteSession(ctx, token)
}

// Authenticate resolves a session token. Unknown and expired tokens yield
// ErrUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrUnauthorized
	}
	if session.Expired(s.now()) {
		if err := s.sessions.DeleteSession(ctx, token); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drop expired session")
		}
		return nil, ErrUnauthorized
	}
	return session, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.GetAllUsers(ctx)
}

func (s *UserService) GetDeletedUsers(ctx context.Context) ([]*models.DeletedUser, error) {
	return s.repo.GetDeletedUsers(ctx)
}

func (s *UserService) UpdateProfile(ctx context.Context, id int64, name, phone string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("name is required")
	}
	if err := s.repo.UpdateUserProfile(ctx, id, name, strings.TrimSpace(phone)); err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, id)
}

// DeleteAccount archives the user and ends all of their sessions.
func (s *UserService) DeleteAccount(ctx context.Context, id int64) (*models.DeletedUser, error) {
	deleted, err := s.repo.ArchiveUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.DeleteUserSessions(ctx, id); err != nil {
		s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to drop sessions of deleted user")
	}
	s.logger.Info().Int64("user_id", id).Msg("user archived")

	if s.eventBus != nil {
		payload := events.UserEventPayload{UserID: deleted.ID, Email: deleted.Email, OccurredAt: deleted.DeletedAt}
		if err := s.eventBus.PublishJSON(events.EventUserDeleted, payload); err != nil {
			s.logger.Error().Err(err).Int64("user_id", id).Msg("publish event error")
		}
	}
	return deleted, nil
}
