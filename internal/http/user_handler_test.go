package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"moonai-trainer/internal/domain"
	"moonai-trainer/internal/service"
)

type mockUserRepo struct {
	users map[string]domain.User // por username
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]domain.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.users[user.Username] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (domain.User, error) {
	u, ok := m.users[username]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func newAuthTestRouter(t *testing.T) (*gin.Engine, *mockUserRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	repo := newMockUserRepo()
	userSvc := service.NewUserService(logger, repo)
	jwtSvc := service.NewJWTService("secret", 15*time.Minute, time.Hour)
	handler := NewUserHandler(logger, userSvc, jwtSvc)

	r := gin.New()
	auth := r.Group("/api/auth")
	auth.POST("/register", handler.Register)
	auth.POST("/login", handler.Login)
	auth.POST("/refresh", handler.Refresh)
	auth.GET("/me", JWTAuthMiddleware(jwtSvc), handler.Me)

	return r, repo
}

func TestRegisterAndLogin(t *testing.T) {
	r, _ := newAuthTestRouter(t)

	rec := doJSON(t, r, "", http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alex",
		"password": "secreta123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, "", http.MethodPost, "/api/auth/login", map[string]string{
		"username": "alex",
		"password": "secreta123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var pair service.TokenPair
	if err := json.Unmarshal(rec.Body.Bytes(), &pair); err != nil {
		t.Fatalf("decode token pair: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", pair)
	}

	// El access token recién emitido debe abrir /me.
	rec = doJSON(t, r, pair.AccessToken, http.MethodGet, "/api/auth/me", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	r, _ := newAuthTestRouter(t)

	body := map[string]string{"username": "alex", "password": "secreta123"}
	if rec := doJSON(t, r, "", http.MethodPost, "/api/auth/register", body); rec.Code != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", rec.Code)
	}
	if rec := doJSON(t, r, "", http.MethodPost, "/api/auth/register", body); rec.Code != http.StatusConflict {
		t.Fatalf("second register: expected 409, got %d", rec.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	r, _ := newAuthTestRouter(t)

	doJSON(t, r, "", http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alex",
		"password": "secreta123",
	})

	rec := doJSON(t, r, "", http.MethodPost, "/api/auth/login", map[string]string{
		"username": "alex",
		"password": "otra",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRefreshRotatesPair(t *testing.T) {
	r, _ := newAuthTestRouter(t)

	doJSON(t, r, "", http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alex",
		"password": "secreta123",
	})
	rec := doJSON(t, r, "", http.MethodPost, "/api/auth/login", map[string]string{
		"username": "alex",
		"password": "secreta123",
	})

	var pair service.TokenPair
	if err := json.Unmarshal(rec.Body.Bytes(), &pair); err != nil {
		t.Fatalf("decode token pair: %v", err)
	}

	rec = doJSON(t, r, "", http.MethodPost, "/api/auth/refresh", map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// El refresh anterior fue revocado al rotar.
	rec = doJSON(t, r, "", http.MethodPost, "/api/auth/refresh", map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("reused refresh token must be 401, got %d", rec.Code)
	}
}
