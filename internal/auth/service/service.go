package service

import (
	"context"
	"strings"
	"time"

	"autoparts_quotes_backend/internal/auth/password"
	"autoparts_quotes_backend/internal/auth/repository"
	"autoparts_quotes_backend/internal/auth/transport"
	"autoparts_quotes_backend/internal/events"
	"autoparts_quotes_backend/platform/apperr"
	"autoparts_quotes_backend/platform/config"
	"autoparts_quotes_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const accessTokenType = "access"

var errInvalidCredentials = apperr.Unauthorized("invalid credentials")

// Repository is the user storage the service needs.
type Repository interface {
	CreateUser(ctx context.Context, email, passwordHash string) (repository.User, error)
	GetUserByEmail(ctx context.Context, email string) (repository.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (repository.User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
}

type Service struct {
	repo     Repository
	cfg      config.AuthServiceConfig
	eventBus events.Bus
	log      *logger.Logger
	now      func() time.Time
}

func New(repo Repository, cfg config.AuthServiceConfig, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, eventBus: eventBus, log: log, now: time.Now}
}

// SignUp registers a user and signs them in.
func (s *Service) SignUp(ctx context.Context, req transport.SignUpRequest) (transport.AuthResponse, error) {
	hash, err := password.Hash(req.Password)
	if err != nil {
		return transport.AuthResponse{}, err
	}

	user, err := s.repo.CreateUser(ctx, normalizeEmail(req.Email), hash)
	if err != nil {
		return transport.AuthResponse{}, err
	}

	s.eventBus.Publish(ctx, events.UserSignedUp{
		BaseEvent: events.NewBaseEvent(),
		UserID:    user.ID,
		Email:     user.Email,
	})
	s.log.Info("user signed up", "userId", user.ID)

	return s.issueToken(user.ID)
}

func (s *Service) SignIn(ctx context.Context, req transport.SignInRequest) (transport.AuthResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return transport.AuthResponse{}, errInvalidCredentials
		}
		return transport.AuthResponse{}, err
	}

	if err := password.Compare(user.PasswordHash, req.Password); err != nil {
		return transport.AuthResponse{}, errInvalidCredentials
	}

	return s.issueToken(user.ID)
}

func (s *Service) GetMe(ctx context.Context, userID uuid.UUID) (transport.ProfileResponse, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return transport.ProfileResponse{}, err
	}
	return transport.ProfileResponse{ID: user.ID.String(), Email: user.Email, CreatedAt: user.CreatedAt}, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, req transport.ChangePasswordRequest) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := password.Compare(user.PasswordHash, req.CurrentPassword); err != nil {
		return errInvalidCredentials
	}

	hash, err := password.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, userID, hash)
}

func (s *Service) issueToken(userID uuid.UUID) (transport.AuthResponse, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.GetAccessTokenTTL())
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"type": accessTokenType,
		"exp":  expiresAt.Unix(),
		"iat":  now.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.GetJWTAccessSecret()))
	if err != nil {
		return transport.AuthResponse{}, err
	}
	return transport.AuthResponse{AccessToken: signed, ExpiresAt: expiresAt}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
