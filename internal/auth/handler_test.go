package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/shared"
	_ "github.com/kylemastercoder14/HomeownersAssociation/testing"
)

type memoryRepo struct {
	admins   map[uuid.UUID]*Admin
	sessions map[string]uuid.UUID
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{admins: map[uuid.UUID]*Admin{}, sessions: map[string]uuid.UUID{}}
}

func (m *memoryRepo) FindByEmail(_ context.Context, email string) (*Admin, error) {
	for _, a := range m.admins {
		if strings.EqualFold(a.Email, email) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryRepo) FindByID(_ context.Context, id uuid.UUID) (*Admin, error) {
	a, ok := m.admins[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memoryRepo) UpsertAdmin(_ context.Context, admin Admin) (*Admin, error) {
	for id, a := range m.admins {
		if strings.EqualFold(a.Email, admin.Email) {
			admin.ID = id
		}
	}
	m.admins[admin.ID] = &admin
	cp := admin
	return &cp, nil
}

func (m *memoryRepo) CreateSession(_ context.Context, id string, adminID uuid.UUID, _ time.Time, _, _ string) error {
	m.sessions[id] = adminID
	return nil
}

func (m *memoryRepo) DeleteSession(_ context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

type fixture struct {
	repo     *memoryRepo
	service  *Service
	sessions *shared.SessionManager
	handler  *Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMemoryRepo()
	svc := NewService(repo)
	sessions := shared.NewSessionManager(client, "hoa_session", "secret", time.Hour, false)
	return &fixture{
		repo:     repo,
		service:  svc,
		sessions: sessions,
		handler:  NewHandler(slog.Default(), svc, sessions),
	}
}

func (f *fixture) seedAdmin(t *testing.T, active bool) *Admin {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("treasurer123"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := &Admin{ID: uuid.New(), Email: "treasurer@hoa.local", Name: "Treasurer", PasswordHash: string(hash), IsActive: active}
	f.repo.admins[admin.ID] = admin
	return admin
}

func (f *fixture) router() http.Handler {
	r := chi.NewRouter()
	f.handler.MountRoutes(r)
	r.With(f.handler.RequireAdmin).Get("/protected", func(w http.ResponseWriter, r *http.Request) {
		id, ok := shared.ActorFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(id.String()))
	})
	return r
}

func (f *fixture) newSession(t *testing.T) *shared.Session {
	t.Helper()
	sess, err := f.sessions.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	return sess
}

func withSession(req *http.Request, sess *shared.Session) *http.Request {
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func TestAuthenticateRejectsInactiveAndWrongPassword(t *testing.T) {
	f := newFixture(t)
	f.seedAdmin(t, false)

	_, err := f.service.Authenticate(context.Background(), "treasurer@hoa.local", "treasurer123")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	for _, a := range f.repo.admins {
		a.IsActive = true
	}
	_, err = f.service.Authenticate(context.Background(), "treasurer@hoa.local", "wrong-password")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	admin, err := f.service.Authenticate(context.Background(), " treasurer@hoa.local ", "treasurer123")
	require.NoError(t, err)
	require.Equal(t, "Treasurer", admin.Name)
}

func TestLoginBindsAdminToRenewedSession(t *testing.T) {
	f := newFixture(t)
	admin := f.seedAdmin(t, true)
	sess := f.newSession(t)
	before := sess.ID

	body := `{"email":"treasurer@hoa.local","password":"treasurer123"}`
	rec := httptest.NewRecorder()
	f.router().ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body)), sess))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, admin.ID.String(), sess.User())
	require.NotEqual(t, before, sess.ID)
	require.Equal(t, admin.ID, f.repo.sessions[sess.ID])

	var resp adminResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "treasurer@hoa.local", resp.Email)
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	f.seedAdmin(t, true)

	cases := []struct {
		name string
		body string
		code int
	}{
		{name: "malformed", body: `{"email":`, code: http.StatusBadRequest},
		{name: "invalid email", body: `{"email":"nope","password":"treasurer123"}`, code: http.StatusUnprocessableEntity},
		{name: "wrong password", body: `{"email":"treasurer@hoa.local","password":"not-the-one"}`, code: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sess := f.newSession(t)
			rec := httptest.NewRecorder()
			f.router().ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(tc.body)), sess))
			require.Equal(t, tc.code, rec.Code)
			require.Empty(t, sess.User())
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	f := newFixture(t)
	admin := f.seedAdmin(t, true)

	rec := httptest.NewRecorder()
	f.router().ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/protected", nil), f.newSession(t)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	sess := f.newSession(t)
	sess.SetUser(admin.ID.String())
	rec = httptest.NewRecorder()
	f.router().ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/protected", nil), sess))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, admin.ID.String(), rec.Body.String())

	f.repo.admins[admin.ID].IsActive = false
	rec = httptest.NewRecorder()
	f.router().ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/me", nil), sess))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutRemovesSessionRecord(t *testing.T) {
	f := newFixture(t)
	admin := f.seedAdmin(t, true)
	sess := f.newSession(t)
	sess.SetUser(admin.ID.String())
	f.repo.sessions[sess.ID] = admin.ID

	rec := httptest.NewRecorder()
	f.router().ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodPost, "/logout", nil), sess))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotContains(t, f.repo.sessions, sess.ID)
}

func TestEnsureAdminHashesPassword(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.EnsureAdmin(context.Background(), "board@hoa.local", "Board", "short")
	require.Error(t, err)

	admin, err := f.service.EnsureAdmin(context.Background(), "board@hoa.local", "Board", "boardpass1")
	require.NoError(t, err)
	require.NotEqual(t, "boardpass1", admin.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("boardpass1")))
}
