package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/leeaandrob/roascalc/internal/apperr"
	"github.com/leeaandrob/roascalc/internal/models"
	"github.com/leeaandrob/roascalc/internal/storage"
)

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest is the sign-in payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is returned by a successful register or login.
type Session struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Service registers and authenticates users.
type Service struct {
	store  storage.Store
	tokens *Tokens
	now    func() time.Time
}

func NewService(store storage.Store, tokens *Tokens) *Service {
	return &Service{store: store, tokens: tokens, now: time.Now}
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and links any earlier leads with the same
// e-mail to it. Linking failures are logged, not returned.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = NormalizeEmail(req.Email)
	if err := apperr.Check(req); err != nil {
		return nil, err
	}

	if _, err := s.store.FindUserByEmail(ctx, req.Email); err == nil {
		return nil, apperr.Validation("email is already registered")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.Upstream("failed to look up user", err)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Upstream("failed to hash password", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, apperr.Validation("email is already registered")
		}
		return nil, apperr.Upstream("failed to create user", err)
	}

	linked, err := s.store.LinkLeadsToUser(ctx, user.Email, user.ID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to link leads to new user")
	}

	log.Info().
		Str("user_id", user.ID).
		Int64("linked_leads", linked).
		Msg("User registered")

	return s.session(user)
}

// Login checks credentials. Unknown e-mails and wrong passwords fail the
// same way.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	req.Email = NormalizeEmail(req.Email)
	if err := apperr.Check(req); err != nil {
		return nil, err
	}

	user, err := s.store.FindUserByEmail(ctx, req.Email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, apperr.Upstream("failed to look up user", err)
	}
	if !CheckPassword(user.PasswordHash, req.Password) {
		return nil, apperr.Unauthorized("invalid email or password")
	}

	return s.session(user)
}

// CurrentUser loads the account behind an authenticated request.
func (s *Service) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.Unauthorized("account no longer exists")
	}
	if err != nil {
		return nil, apperr.Upstream("failed to load user", err)
	}
	return user, nil
}

func (s *Service) session(user *models.User) (*Session, error) {
	token, err := s.tokens.Sign(user.ID)
	if err != nil {
		return nil, apperr.Upstream("failed to issue token", err)
	}
	return &Session{User: user, Token: token}, nil
}
