// Package auth covers registration, login and bearer-token sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finanzas/internal/categories"
	"finanzas/internal/core"
	"finanzas/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password too short (min 8 characters)")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUnauthorized       = errors.New("missing or expired session")
)

const minPasswordLen = 8

// Service owns users and sessions. Passwords are stored as bcrypt hashes and
// session tokens are opaque UUIDs with a fixed TTL.
type Service struct {
	store      *storage.Repository
	sessionTTL time.Duration
	bcryptCost int
}

func NewService(store *storage.Repository, sessionTTL time.Duration) *Service {
	return &Service{store: store, sessionTTL: sessionTTL, bcryptCost: bcrypt.DefaultCost}
}

// Principal identifies an authenticated caller.
type Principal struct {
	UserID string
	Name   string
	Email  string
}

// Register creates a user with the default category sets seeded. The email
// must be unique; duplicates come back as ErrEmailTaken.
func (s *Service) Register(ctx context.Context, name, email, password string) (Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") || strings.ContainsAny(email, " \t") {
		return Principal{}, ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return Principal{}, ErrWeakPassword
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = email
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return Principal{}, fmt.Errorf("hash password: %w", err)
	}

	u := storage.User{
		ID:           core.NewID(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return Principal{}, ErrEmailTaken
		}
		return Principal{}, fmt.Errorf("create user: %w", err)
	}

	if err := s.store.SeedCategories(ctx, u.ID, categories.IncomeSeed(), categories.ExpenseSeed()); err != nil {
		return Principal{}, fmt.Errorf("seed categories: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "user_id", u.ID)
	return Principal{UserID: u.ID, Name: u.Name, Email: u.Email}, nil
}

// Login checks credentials and mints a session token. Wrong email and wrong
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return "", Principal{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", Principal{}, fmt.Errorf("look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", Principal{}, ErrInvalidCredentials
	}

	token := uuid.NewString()
	session := storage.Session{
		Token:     token,
		UserID:    u.ID,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return "", Principal{}, fmt.Errorf("create session: %w", err)
	}

	slog.InfoContext(ctx, "User logged in", "user_id", u.ID)
	return token, Principal{UserID: u.ID, Name: u.Name, Email: u.Email}, nil
}

// Authenticate resolves a session token to its principal.
func (s *Service) Authenticate(ctx context.Context, token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrUnauthorized
	}

	session, err := s.store.GetSession(ctx, token)
	if errors.Is(err, storage.ErrNotFound) {
		return Principal{}, ErrUnauthorized
	}
	if err != nil {
		return Principal{}, fmt.Errorf("look up session: %w", err)
	}

	u, err := s.store.GetUserByID(ctx, session.UserID)
	if err != nil {
		return Principal{}, fmt.Errorf("load session user: %w", err)
	}
	return Principal{UserID: u.ID, Name: u.Name, Email: u.Email}, nil
}

// Logout discards a session token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.DeleteSession(ctx, token)
}
