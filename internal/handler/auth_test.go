package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yuvrajxx14mu/marketing-yard/internal/identity"
	"github.com/yuvrajxx14mu/marketing-yard/internal/model"
	"github.com/yuvrajxx14mu/marketing-yard/internal/repository"
	"github.com/yuvrajxx14mu/marketing-yard/internal/utils"
)

// ---- in-memory identity stores ----

type memUsers struct {
	mu     sync.Mutex
	nextID uint64
	byMail map[string]model.User
}

func newMemUsers() *memUsers { return &memUsers{byMail: make(map[string]model.User)} }

func (s *memUsers) Create(ctx context.Context, email, password string, role model.Role, cost int) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byMail[email]; ok {
		return 0, repository.ErrEmailExists
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	s.nextID++
	s.byMail[email] = model.User{ID: s.nextID, Email: email, PasswordHash: hash, Role: role, Status: model.UserActive}
	return s.nextID, nil
}

func (s *memUsers) GetByEmail(ctx context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byMail[email]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (s *memUsers) GetByID(ctx context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byMail {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (s *memUsers) setStatus(email string, status model.UserStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.byMail[email]
	u.Status = status
	s.byMail[email] = u
}

type memProfiles struct {
	mu   sync.Mutex
	rows map[uint64]model.Profile
}

func newMemProfiles() *memProfiles { return &memProfiles{rows: make(map[uint64]model.Profile)} }

func (s *memProfiles) Create(ctx context.Context, p model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[p.ID] = p
	return nil
}

func (s *memProfiles) GetByID(ctx context.Context, id uint64) (model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[id]
	if !ok {
		return model.Profile{}, repository.ErrProfileNotFound
	}
	return p, nil
}

type memTokens struct {
	mu   sync.Mutex
	rows map[string]model.RefreshToken
}

func newMemTokens() *memTokens { return &memTokens{rows: make(map[string]model.RefreshToken)} }

func (s *memTokens) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[tokenHash] = model.RefreshToken{UserID: userID, TokenHash: tokenHash, ExpiresAt: exp}
	return nil
}

func (s *memTokens) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[tokenHash]
	if !ok || r.RevokedAt != nil || time.Now().After(r.ExpiresAt) {
		return 0, time.Time{}, sql.ErrNoRows
	}
	return r.UserID, r.ExpiresAt, nil
}

func (s *memTokens) RevokeByHash(ctx context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rows[tokenHash]; ok {
		now := time.Now()
		r.RevokedAt = &now
		s.rows[tokenHash] = r
	}
	return nil
}

func (s *memTokens) RevokeAllForUser(ctx context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for h, r := range s.rows {
		if r.UserID == userID {
			r.RevokedAt = &now
			s.rows[h] = r
		}
	}
	return nil
}

func newTestAuthHandler() *AuthHandler {
	users := newMemUsers()
	profiles := newMemProfiles()
	accounts := identity.NewAccounts(users, profiles, newMemTokens(), identity.Config{
		JWTSecret: "test-secret", AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4,
	})
	return NewAuthHandler(accounts, users, profiles)
}

func postJSON(t *testing.T, h echo.HandlerFunc, body string, setup func(echo.Context)) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if setup != nil {
		setup(c)
	}
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestRegisterReturnsSession(t *testing.T) {
	h := newTestAuthHandler()

	rec := postJSON(t, h.Register,
		`{"name":"Ramesh","email":"ram@example.com","password":"longenough","role":"trader"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("code = %d (%s), want 201", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	user := body["user"].(map[string]any)
	if user["role"] != "trader" || user["name"] != "Ramesh" || user["email"] != "ram@example.com" {
		t.Fatalf("unexpected user: %v", user)
	}
	if body["access"].(map[string]any)["token"] == "" {
		t.Fatal("expected an access token")
	}
	if body["refresh"].(map[string]any)["token"] == "" {
		t.Fatal("expected a refresh token")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h := newTestAuthHandler()
	body := `{"name":"A","email":"ram@example.com","password":"longenough"}`

	if rec := postJSON(t, h.Register, body, nil); rec.Code != http.StatusCreated {
		t.Fatalf("first register code = %d", rec.Code)
	}
	rec := postJSON(t, h.Register, body, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("code = %d, want 409", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "User already registered" {
		t.Fatalf("error = %q", got)
	}
}

func TestRegisterWeakPassword(t *testing.T) {
	h := newTestAuthHandler()

	rec := postJSON(t, h.Register, `{"name":"A","email":"a@example.com","password":"short"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "Password should be at least 8 characters" {
		t.Fatalf("error = %q", got)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := newTestAuthHandler()
	if rec := postJSON(t, h.Register, `{"name":"A","email":"ram@example.com","password":"longenough"}`, nil); rec.Code != http.StatusCreated {
		t.Fatalf("register code = %d", rec.Code)
	}

	for _, body := range []string{
		`{"email":"ram@example.com","password":"wrong-password"}`,
		`{"email":"nobody@example.com","password":"longenough"}`,
	} {
		rec := postJSON(t, h.Login, body, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("code = %d, want 401", rec.Code)
		}
		if got := decodeBody(t, rec)["error"]; got != "Invalid login credentials" {
			t.Fatalf("error = %q", got)
		}
	}
}

func TestRegisterAdminRoleDowngraded(t *testing.T) {
	h := newTestAuthHandler()

	rec := postJSON(t, h.Register,
		`{"name":"Boss","email":"boss@example.com","password":"longenough","role":"admin"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("code = %d (%s), want 201", rec.Code, rec.Body.String())
	}
	if role := decodeBody(t, rec)["user"].(map[string]any)["role"]; role != "farmer" {
		t.Fatalf("role = %v, want farmer", role)
	}
}

func TestLoginBlockedUser(t *testing.T) {
	users := newMemUsers()
	profiles := newMemProfiles()
	accounts := identity.NewAccounts(users, profiles, newMemTokens(), identity.Config{
		JWTSecret: "test-secret", AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4,
	})
	h := NewAuthHandler(accounts, users, profiles)

	if rec := postJSON(t, h.Register, `{"name":"Ram","email":"ram@example.com","password":"longenough"}`, nil); rec.Code != http.StatusCreated {
		t.Fatalf("register code = %d", rec.Code)
	}
	users.setStatus("ram@example.com", model.UserBlocked)

	rec := postJSON(t, h.Login, `{"email":"ram@example.com","password":"longenough"}`, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("code = %d, want 403", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "User is banned" {
		t.Fatalf("error = %q", got)
	}
}

func TestLoginAndRefreshFlow(t *testing.T) {
	h := newTestAuthHandler()
	if rec := postJSON(t, h.Register, `{"name":"Ramesh","email":"ram@example.com","password":"longenough","role":"farmer"}`, nil); rec.Code != http.StatusCreated {
		t.Fatalf("register code = %d", rec.Code)
	}

	rec := postJSON(t, h.Login, `{"email":"ram@example.com","password":"longenough"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login code = %d (%s)", rec.Code, rec.Body.String())
	}
	refresh := decodeBody(t, rec)["refresh"].(map[string]any)["token"].(string)

	// A non-rotating refresh returns only a new access token.
	rec = postJSON(t, h.RefreshAccess, `{"refresh_token":"`+refresh+`"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh-access code = %d (%s)", rec.Code, rec.Body.String())
	}
	if decodeBody(t, rec)["access"].(map[string]any)["token"] == "" {
		t.Fatal("expected an access token")
	}

	// Rotation invalidates the old refresh token.
	rec = postJSON(t, h.Refresh, `{"refresh_token":"`+refresh+`"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh code = %d (%s)", rec.Code, rec.Body.String())
	}
	rec = postJSON(t, h.Refresh, `{"refresh_token":"`+refresh+`"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("reused refresh code = %d, want 401", rec.Code)
	}
}

func TestLogoutRevokesSessions(t *testing.T) {
	h := newTestAuthHandler()
	rec := postJSON(t, h.Register, `{"name":"Ramesh","email":"ram@example.com","password":"longenough"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register code = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	uid := uint64(body["user"].(map[string]any)["id"].(float64))
	refresh := body["refresh"].(map[string]any)["token"].(string)

	rec = postJSON(t, h.Logout, `{}`, func(c echo.Context) { c.Set("user_id", uid) })
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout code = %d, want 204", rec.Code)
	}
	// Every refresh token is gone.
	rec = postJSON(t, h.RefreshAccess, `{"refresh_token":"`+refresh+`"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout code = %d, want 401", rec.Code)
	}
}
