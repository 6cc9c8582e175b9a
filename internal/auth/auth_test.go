package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leeaandrob/roascalc/internal/apperr"
	"github.com/leeaandrob/roascalc/internal/models"
	"github.com/leeaandrob/roascalc/internal/storage"
)

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)

	token, err := tokens.Sign("u1")
	require.NoError(t, err)

	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, claims.IssuedAt.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestTokensRejectTampering(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	token, err := tokens.Sign("u1")
	require.NoError(t, err)

	_, err = NewTokens("other-secret", time.Hour).Verify(token)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	parts := strings.Split(token, ".")
	forged := parts[0] + "." + parts[1] + "x." + parts[2]
	_, err = tokens.Verify(forged)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = tokens.Verify("not-a-token")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestTokensRejectForeignClaims(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	now := time.Now()

	tests := []struct {
		name   string
		method jwt.SigningMethod
		claims jwt.RegisteredClaims
	}{
		{"no expiry", jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "u1", IssuedAt: jwt.NewNumericDate(now)}},
		{"no subject", jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}},
		{"other algorithm", jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := jwt.NewWithClaims(tt.method, tt.claims).SignedString([]byte("secret"))
			require.NoError(t, err)

			_, err = tokens.Verify(token)
			assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
			assert.Equal(t, "invalid token", apperr.MessageOf(err))
		})
	}
}

func TestTokensExpire(t *testing.T) {
	tokens := NewTokens("secret", time.Minute)
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return issued }

	token, err := tokens.Sign("u1")
	require.NoError(t, err)

	tokens.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = tokens.Verify(token)
	assert.Equal(t, "token expired", apperr.MessageOf(err))
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3nha!")
	require.NoError(t, err)

	assert.NotEqual(t, "s3nha!", hash)
	assert.True(t, CheckPassword(hash, "s3nha!"))
	assert.False(t, CheckPassword(hash, "errada"))
}

func TestMiddleware(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	token, err := tokens.Sign("u1")
	require.NoError(t, err)

	var gotUser string
	h := Middleware(tokens, func(w http.ResponseWriter, err error) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(apperr.MessageOf(err)))
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid", "Bearer " + token, http.StatusOK, ""},
		{"lowercase scheme", "bearer " + token, http.StatusOK, ""},
		{"missing", "", http.StatusUnauthorized, "missing authorization"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "invalid authorization"},
		{"bad token", "Bearer abc.def.ghi", http.StatusUnauthorized, "invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUser = ""
			req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
			if tt.status == http.StatusOK {
				assert.Equal(t, "u1", gotUser)
			}
		})
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := NewService(store, NewTokens("secret", time.Hour))

	require.NoError(t, store.CreateLead(ctx, &models.Lead{ID: "l1", Name: "Ana", Email: "ana@example.com"}))

	session, err := svc.Register(ctx, RegisterRequest{Name: " Ana ", Email: "  ANA@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", session.User.Name)
	assert.Equal(t, "ana@example.com", session.User.Email)
	assert.NotEmpty(t, session.Token)

	lead, err := store.GetLead(ctx, "l1")
	require.NoError(t, err)
	require.NotNil(t, lead.UserID)
	assert.Equal(t, session.User.ID, *lead.UserID)

	_, err = svc.Register(ctx, RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "secret2"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "email is already registered", apperr.MessageOf(err))

	login, err := svc.Login(ctx, LoginRequest{Email: "Ana@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)

	_, err = svc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "wrong"})
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(storage.NewMemoryStore(), NewTokens("secret", time.Hour))

	_, err := svc.Register(context.Background(), RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "123"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "password must be at least 6 characters", apperr.MessageOf(err))

	_, err = svc.Register(context.Background(), RegisterRequest{Name: "  ", Email: "ana@example.com", Password: "123456"})
	assert.Equal(t, "name is required", apperr.MessageOf(err))
}

func TestCurrentUser(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewService(store, NewTokens("secret", time.Hour))

	session, err := svc.Register(context.Background(), RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "secret1"})
	require.NoError(t, err)

	user, err := svc.CurrentUser(context.Background(), session.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.Name)

	_, err = svc.CurrentUser(context.Background(), "ghost")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}
