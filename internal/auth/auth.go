// Package auth manages accounts and signed session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/goliatone/go-claimform/internal/storage"
)

const issuer = "claimform"

// Session describes an authenticated user.
type Session struct {
	Token     string    `json:"-"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Service implements signup, login, password changes and token checks.
type Service struct {
	users  storage.UserStore
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for token issue and expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithBcryptCost overrides the hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.cost = cost
	}
}

// NewService builds a Service signing HS256 tokens with secret.
func NewService(users storage.UserStore, secret string, ttl time.Duration, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, fmt.Errorf("auth: user store is required")
	}
	if secret == "" {
		return nil, fmt.Errorf("auth: session secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("auth: session ttl must be positive")
	}
	s := &Service{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// TTL returns the session lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Signup creates an active account.
func (s *Service) Signup(ctx context.Context, email, password string) (storage.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return storage.User{}, ErrInvalidInput
	}

	if _, err := s.users.FindActiveUserByEmail(ctx, email); err == nil {
		return storage.User{}, ErrUserExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return storage.User{}, fmt.Errorf("auth: signup: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return storage.User{}, fmt.Errorf("auth: hash password: %w", err)
	}

	now := s.now().UTC()
	user := storage.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		State:        storage.UserActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.PutUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return storage.User{}, ErrUserExists
		}
		return storage.User{}, fmt.Errorf("auth: signup: %w", err)
	}

	s.logger.Info("created user", "user_id", user.ID)
	return user, nil
}

// Login checks credentials and issues a session.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.users.FindActiveUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, storage.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("auth: login: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.Issue(user)
}

// ChangePassword replaces the password of userID after checking oldPassword.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return ErrInvalidInput
	}
	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("auth: change password: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return ErrAuthMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash), s.now().UTC()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("auth: change password: %w", err)
	}
	return nil
}

// Issue signs a session token for user.
func (s *Service) Issue(user storage.User) (Session, error) {
	now := s.now().UTC()
	expires := now.Add(s.ttl)
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
		Email: user.Email,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Session{}, fmt.Errorf("auth: sign session: %w", err)
	}
	return Session{Token: token, UserID: user.ID, Email: user.Email, ExpiresAt: expires.Truncate(time.Second)}, nil
}

// Verify parses and validates a session token.
func (s *Service) Verify(token string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, ErrUnauthorized
	}

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || claims.Subject == "" {
		return Session{}, ErrUnauthorized
	}
	return Session{
		Token:     token,
		UserID:    claims.Subject,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, nil
}
