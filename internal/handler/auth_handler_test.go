package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"voting_rooms/internal/middleware"
	"voting_rooms/internal/model"
	"voting_rooms/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubService struct {
	signUp       func(ctx context.Context, req model.SignUpRequest, meta model.ClientMeta) (*service.AuthResult, error)
	signIn       func(ctx context.Context, req model.SignInRequest, meta model.ClientMeta) (*service.AuthResult, error)
	signOut      func(ctx context.Context, token string) error
	authenticate func(ctx context.Context, token string) (model.Principal, error)
	currentUser  func(ctx context.Context, p model.Principal) (*model.User, error)
	purge        func(ctx context.Context) (int64, error)
}

func (s *stubService) SignUp(ctx context.Context, req model.SignUpRequest, meta model.ClientMeta) (*service.AuthResult, error) {
	return s.signUp(ctx, req, meta)
}

func (s *stubService) SignIn(ctx context.Context, req model.SignInRequest, meta model.ClientMeta) (*service.AuthResult, error) {
	return s.signIn(ctx, req, meta)
}

func (s *stubService) SignOut(ctx context.Context, token string) error {
	return s.signOut(ctx, token)
}

func (s *stubService) Authenticate(ctx context.Context, token string) (model.Principal, error) {
	return s.authenticate(ctx, token)
}

func (s *stubService) CurrentUser(ctx context.Context, p model.Principal) (*model.User, error) {
	return s.currentUser(ctx, p)
}

func (s *stubService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.purge(ctx)
}

func newTestRouter(svc service.AuthService) *gin.Engine {
	cookie := middleware.SessionCookie{}
	r := gin.New()
	NewAuthHandler(svc, cookie).RegisterAuthRoutes(
		r.Group("/api"),
		middleware.SessionAuthMiddleware(svc, cookie),
		middleware.AdminMiddleware(),
	)
	return r
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		User    map[string]any `json:"user"`
		Deleted int64          `json:"deleted"`
	} `json:"data"`
}

func do(t *testing.T, r http.Handler, method, path, body, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "handler-test")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

func testUser() *model.User {
	return &model.User{
		ID:        "0123456789abcdef0123456789abcdef",
		Name:      "A B",
		FirstName: "A",
		LastName:  "B",
		Email:     "a@b.com",
		Phone:     "+1000",
		Role:      model.RoleParticipant,
	}
}

func result(lifetime time.Duration) *service.AuthResult {
	return &service.AuthResult{
		User:     testUser(),
		Session:  &model.Session{ID: "sid", UserID: testUser().ID, Token: "tok123", ExpiresAt: time.Now().Add(lifetime)},
		Lifetime: lifetime,
	}
}

const signUpBody = `{"email":"a@b.com","password":"secret1","firstName":"A","lastName":"B","phone":"+1000"}`

func TestSignUp_CreatedThenConflict(t *testing.T) {
	seen := map[string]bool{}
	var gotMeta model.ClientMeta
	svc := &stubService{signUp: func(_ context.Context, req model.SignUpRequest, meta model.ClientMeta) (*service.AuthResult, error) {
		gotMeta = meta
		if seen[req.Email] {
			return nil, service.ErrConflict
		}
		seen[req.Email] = true
		return result(service.RememberedSessionLifetime), nil
	}}
	r := newTestRouter(svc)

	rec, env := do(t, r, http.MethodPost, "/api/users/sign-up", signUpBody, "")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "PARTICIPANT", env.Data.User["role"])
	assert.Equal(t, "a@b.com", env.Data.User["email"])
	assert.NotContains(t, env.Data.User, "password")
	assert.NotContains(t, env.Data.User, "passwordHash")
	assert.Equal(t, "handler-test", gotMeta.UserAgent)
	assert.NotEmpty(t, gotMeta.IPAddress)

	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.Equal(t, "tok123", c.Value)
	assert.Equal(t, 604800, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)

	rec, env = do(t, r, http.MethodPost, "/api/users/sign-up", signUpBody, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, env.Success)
	assert.Nil(t, sessionCookie(rec))
}

func TestSignUp_BadRequests(t *testing.T) {
	called := false
	svc := &stubService{signUp: func(context.Context, model.SignUpRequest, model.ClientMeta) (*service.AuthResult, error) {
		called = true
		return nil, fmt.Errorf("%w: email is invalid", service.ErrValidation)
	}}
	r := newTestRouter(svc)

	rec, env := do(t, r, http.MethodPost, "/api/users/sign-up", `{"email":`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.False(t, called, "malformed JSON never reaches the service")

	rec, env = do(t, r, http.MethodPost, "/api/users/sign-up", `{"email":"nope"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Message, "email is invalid")
	assert.True(t, called)
}

func TestSignIn_CookieFollowsLifetime(t *testing.T) {
	tests := []struct {
		body   string
		maxAge int
	}{
		{`{"email":"a@b.com","password":"secret1"}`, 86400},
		{`{"email":"a@b.com","password":"secret1","rememberMe":true}`, 604800},
	}

	for _, tt := range tests {
		svc := &stubService{signIn: func(_ context.Context, req model.SignInRequest, _ model.ClientMeta) (*service.AuthResult, error) {
			if req.RememberMe {
				return result(service.RememberedSessionLifetime), nil
			}
			return result(service.SessionLifetime), nil
		}}

		rec, env := do(t, newTestRouter(svc), http.MethodPost, "/api/users/sign-in", tt.body, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, env.Success)
		assert.Equal(t, "0123456789abcdef0123456789abcdef", env.Data.User["id"])

		c := sessionCookie(rec)
		require.NotNil(t, c)
		assert.Equal(t, tt.maxAge, c.MaxAge)
	}
}

func TestSignIn_Unauthorized(t *testing.T) {
	svc := &stubService{signIn: func(context.Context, model.SignInRequest, model.ClientMeta) (*service.AuthResult, error) {
		return nil, service.ErrUnauthenticated
	}}

	rec, env := do(t, newTestRouter(svc), http.MethodPost, "/api/users/sign-in", `{"email":"a@b.com","password":"bad"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", env.Message)
	assert.Nil(t, sessionCookie(rec))
}

func TestSignIn_InternalErrorHidesDetail(t *testing.T) {
	svc := &stubService{signIn: func(context.Context, model.SignInRequest, model.ClientMeta) (*service.AuthResult, error) {
		return nil, errors.New("pgx: relation sessions does not exist")
	}}

	rec, env := do(t, newTestRouter(svc), http.MethodPost, "/api/users/sign-in", `{"email":"a@b.com","password":"x"}`, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", env.Message)
	assert.NotContains(t, rec.Body.String(), "relation")
}

func TestSignOut(t *testing.T) {
	var tokens []string
	svc := &stubService{signOut: func(_ context.Context, token string) error {
		tokens = append(tokens, token)
		return nil
	}}
	r := newTestRouter(svc)

	rec, env := do(t, r, http.MethodPost, "/api/users/sign-out", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.True(t, c.MaxAge < 0)

	rec, _ = do(t, r, http.MethodPost, "/api/users/sign-out", "", "tok123")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"", "tok123"}, tokens)
}

func TestSignOut_StoreError(t *testing.T) {
	svc := &stubService{signOut: func(context.Context, string) error { return service.ErrInternal }}

	rec, env := do(t, newTestRouter(svc), http.MethodPost, "/api/users/sign-out", "", "tok123")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, env.Success)
	c := sessionCookie(rec)
	require.NotNil(t, c, "cookie is cleared even when the store fails")
	assert.True(t, c.MaxAge < 0)
}

func authAs(p model.Principal) func(context.Context, string) (model.Principal, error) {
	return func(_ context.Context, token string) (model.Principal, error) {
		if token != "tok123" {
			return model.Principal{}, service.ErrSessionNotFound
		}
		return p, nil
	}
}

func TestMe(t *testing.T) {
	principal := model.NewPrincipal(testUser(), "sid")
	var got model.Principal
	svc := &stubService{
		authenticate: authAs(principal),
		currentUser: func(_ context.Context, p model.Principal) (*model.User, error) {
			got = p
			return testUser(), nil
		},
	}
	r := newTestRouter(svc)

	rec, env := do(t, r, http.MethodGet, "/api/users/me", "", "tok123")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, principal, got)
	assert.Equal(t, "+1000", env.Data.User["phone"])
	assert.Equal(t, false, env.Data.User["emailVerified"])

	rec, env = do(t, r, http.MethodGet, "/api/users/me", "", "other")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)
	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.True(t, c.MaxAge < 0)
}

func TestMe_UserGoneAfterAuthentication(t *testing.T) {
	svc := &stubService{
		authenticate: authAs(model.NewPrincipal(testUser(), "sid")),
		currentUser: func(context.Context, model.Principal) (*model.User, error) {
			return nil, service.ErrUserMissing
		},
	}

	rec, env := do(t, newTestRouter(svc), http.MethodGet, "/api/users/me", "", "tok123")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", env.Message)
}

func TestPurgeExpiredSessions_AdminOnly(t *testing.T) {
	admin := testUser()
	admin.Role = model.RoleAdministrator
	purged := 0
	svc := &stubService{
		purge: func(context.Context) (int64, error) {
			purged++
			return 4, nil
		},
	}

	svc.authenticate = authAs(model.NewPrincipal(testUser(), "sid"))
	rec, env := do(t, newTestRouter(svc), http.MethodPost, "/api/users/sessions/purge-expired", "", "tok123")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Forbidden", env.Message)
	assert.Zero(t, purged)

	svc.authenticate = authAs(model.NewPrincipal(admin, "sid"))
	rec, env = do(t, newTestRouter(svc), http.MethodPost, "/api/users/sessions/purge-expired", "", "tok123")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(4), env.Data.Deleted)
	assert.Equal(t, 1, purged)
}
