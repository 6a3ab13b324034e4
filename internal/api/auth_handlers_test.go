package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/custom-order-service/internal/auth"
	"github.com/example/custom-order-service/internal/domain/user"
	"github.com/example/custom-order-service/internal/infrastructure/store/mocks"
	"github.com/example/custom-order-service/internal/readmodel"
)

// ============================================
// Test helpers
// ============================================

func newTestAuthHandlers() (*AuthHandlers, *mocks.MockReadStore) {
	eventStore := mocks.NewMockEventStore()
	userService := user.NewService(eventStore)
	jwtService := auth.NewJWTService("test-secret-key-for-auth-handler-tests",
		15*time.Minute, 7*24*time.Hour)
	rs := mocks.NewMockReadStore()
	return NewAuthHandlers(userService, jwtService, rs), rs
}

func cookieByName(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

// ============================================
// Register
// ============================================

func TestAuthHandlers_Register_StoresSessionForRefreshToken(t *testing.T) {
	h, rs := newTestAuthHandlers()

	rec := httptest.NewRecorder()
	h.Register(rec, postJSON("/auth/register", map[string]string{
		"email":    "ada@example.com",
		"password": "password123",
		"name":     "Ada",
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	cookieByName(t, rec, "access_token")
	refresh := cookieByName(t, rec, "refresh_token")

	// The stored session carries the hash of the issued refresh token
	sessions := rs.GetAll("sessions")
	require.Len(t, sessions, 1)
	session, ok := sessions[0].(*readmodel.SessionReadModel)
	require.True(t, ok)
	assert.Equal(t, hashToken(refresh.Value), session.RefreshTokenHash)
	assert.NotEmpty(t, session.UserID)
}

func TestAuthHandlers_Register_DuplicateEmail(t *testing.T) {
	h, rs := newTestAuthHandlers()
	rs.Set("users", "user-1", &readmodel.UserReadModel{
		ID: "user-1", Email: "ada@example.com", IsActive: true,
	})

	rec := httptest.NewRecorder()
	h.Register(rec, postJSON("/auth/register", map[string]string{
		"email":    "ada@example.com",
		"password": "password123",
		"name":     "Ada",
	}))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAuthHandlers_Register_ShortPassword(t *testing.T) {
	h, _ := newTestAuthHandlers()

	rec := httptest.NewRecorder()
	h.Register(rec, postJSON("/auth/register", map[string]string{
		"email":    "ada@example.com",
		"password": "short",
		"name":     "Ada",
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================
// Login
// ============================================

func TestAuthHandlers_Login_Success(t *testing.T) {
	h, rs := newTestAuthHandlers()
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	rs.Set("users", "user-1", &readmodel.UserReadModel{
		ID: "user-1", Email: "ada@example.com", PasswordHash: hash,
		Name: "Ada", Role: "customer", IsActive: true,
	})

	rec := httptest.NewRecorder()
	h.Login(rec, postJSON("/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "password123",
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	cookieByName(t, rec, "access_token")
	assert.Len(t, rs.GetAll("sessions"), 1)
}

func TestAuthHandlers_Login_WrongPassword(t *testing.T) {
	h, rs := newTestAuthHandlers()
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	rs.Set("users", "user-1", &readmodel.UserReadModel{
		ID: "user-1", Email: "ada@example.com", PasswordHash: hash, IsActive: true,
	})

	rec := httptest.NewRecorder()
	h.Login(rec, postJSON("/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "not-the-password",
	}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rs.GetAll("sessions"))
}

func TestAuthHandlers_Login_DeactivatedAccount(t *testing.T) {
	h, rs := newTestAuthHandlers()
	rs.Set("users", "user-1", &readmodel.UserReadModel{
		ID: "user-1", Email: "ada@example.com", IsActive: false,
	})

	rec := httptest.NewRecorder()
	h.Login(rec, postJSON("/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "password123",
	}))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
