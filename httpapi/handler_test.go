package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	vms "github.com/Code4Bharat1/VMS-BACKEND"
	"github.com/Code4Bharat1/VMS-BACKEND/accounts"
	"github.com/Code4Bharat1/VMS-BACKEND/httpapi"
	"github.com/Code4Bharat1/VMS-BACKEND/password"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plainRenderer struct{}

func (plainRenderer) Render(answer string) (string, error) {
	return "answer:" + answer, nil
}

type server struct {
	router   *mux.Router
	accounts *accounts.MemoryStore
	cfg      httpapi.Config
}

func newServer(t *testing.T) *server {
	t.Helper()
	return newServerWith(t, nil)
}

func newServerWith(t *testing.T, configure func(*httpapi.Config)) *server {
	t.Helper()

	store := accounts.NewMemoryStore()
	hasher, err := password.NewBcrypt(4)
	require.NoError(t, err)
	for _, a := range []accounts.Account{
		{Email: "staff@x.com", Role: accounts.RoleStaff, Active: true, AssignedBay: "bay-1"},
		{Email: "admin@x.com", Role: accounts.RoleAdmin, Active: true},
	} {
		a.PasswordHash, err = hasher.Hash("secret")
		require.NoError(t, err)
		_, err = store.Create(context.Background(), a)
		require.NoError(t, err)
	}

	engineCfg := vms.DefaultConfig()
	engineCfg.JWT.AccessSecret = "access-secret-access-secret-access-secret"
	engineCfg.JWT.RefreshSecret = "refresh-secret-refresh-secret-refresh-secret"
	engineCfg.Password.BcryptCost = 4

	engine, err := vms.New().
		WithConfig(engineCfg).
		WithAccountStore(store).
		WithChallengeRenderer(plainRenderer{}).
		Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	cfg := httpapi.DefaultConfig()
	cfg.CookieSecure = false
	if configure != nil {
		configure(&cfg)
	}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
	router, err := httpapi.NewRouter(engine, cfg, httpapi.RouterOptions{Metrics: metrics})
	require.NoError(t, err)

	return &server{router: router, accounts: store, cfg: cfg}
}

type call struct {
	method string
	path   string
	body   any
	token  string
	cookie *http.Cookie
	header http.Header
}

func (s *server) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	req.RemoteAddr = "192.0.2.10:4000"
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *server) refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == s.cfg.CookieName {
			return c
		}
	}
	return nil
}

type loginBody struct {
	Message     string       `json:"message"`
	AccessToken string       `json:"accessToken"`
	User        vms.Identity `json:"user"`
}

func (s *server) login(t *testing.T, email string) (loginBody, *http.Cookie) {
	t.Helper()

	rec := s.do(t, call{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{
		"email":    email,
		"password": "secret",
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body loginBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	cookie := s.refreshCookie(rec)
	require.NotNil(t, cookie)
	return body, cookie
}

type errorBody struct {
	Message           string `json:"message"`
	ChallengeRequired *bool  `json:"challengeRequired"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRoutesRegistered(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/auth/login"},
		{http.MethodPost, "/api/auth/refresh"},
		{http.MethodPost, "/api/auth/logout"},
		{http.MethodGet, "/api/auth/captcha"},
		{http.MethodPost, "/api/auth/register"},
		{http.MethodPost, "/api/auth/supervisor"},
		{http.MethodPost, "/api/auth/staff"},
		{http.MethodPut, "/api/auth/users/update-password"},
		{http.MethodPut, "/api/auth/users/profile"},
		{http.MethodGet, "/health"},
		{http.MethodGet, "/metrics"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			var match mux.RouteMatch
			assert.True(t, s.router.Match(req, &match), "route %s %s should be registered", tt.method, tt.path)
		})
	}
}

func TestLoginSetsRefreshCookie(t *testing.T) {
	s := newServer(t)

	body, cookie := s.login(t, " Staff@X.com ")

	assert.Equal(t, "Login successful", body.Message)
	assert.NotEmpty(t, body.AccessToken)
	assert.Equal(t, vms.RoleStaff, body.User.Role)
	assert.Equal(t, "bay-1", body.User.AssignedBay)

	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), cookie.MaxAge)
	assert.Equal(t, "/", cookie.Path)
	assert.NotEqual(t, body.AccessToken, cookie.Value)
}

func TestLoginFailures(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, call{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{"email": "staff@x.com"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, call{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{"email": "nobody@x.com", "password": "secret"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	notFound := decodeError(t, rec)

	rec = s.do(t, call{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{"email": "staff@x.com", "password": "wrong"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	badPassword := decodeError(t, rec)

	assert.Equal(t, notFound.Message, badPassword.Message)
	require.NotNil(t, badPassword.ChallengeRequired)
	assert.False(t, *badPassword.ChallengeRequired)
	assert.Nil(t, s.refreshCookie(rec))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{not json"))
	raw := httptest.NewRecorder()
	s.router.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestLoginChallengeFlow(t *testing.T) {
	s := newServer(t)
	wrong := map[string]string{"email": "staff@x.com", "password": "wrong"}

	for i := 0; i < 3; i++ {
		s.do(t, call{method: http.MethodPost, path: "/api/auth/login", body: wrong})
	}

	rec := s.do(t, call{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{"email": "staff@x.com", "password": "secret"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	flagged := decodeError(t, rec)
	require.NotNil(t, flagged.ChallengeRequired)
	assert.True(t, *flagged.ChallengeRequired)

	rec = s.do(t, call{method: http.MethodGet, path: "/api/auth/captcha"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	var challenge vms.Challenge
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &challenge))
	require.NotEmpty(t, challenge.ID)

	rec = s.do(t, call{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{
		"email":        "staff@x.com",
		"password":     "secret",
		"captchaId":    challenge.ID,
		"captchaValue": strings.ToUpper(strings.TrimPrefix(challenge.Image, "answer:")),
	}})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotNil(t, s.refreshCookie(rec))
}

func TestLoginThrottleBehindProxy(t *testing.T) {
	s := newServerWith(t, func(cfg *httpapi.Config) { cfg.TrustedProxies = 1 })
	forwarded := func(spoofed, peer string) http.Header {
		return http.Header{"X-Forwarded-For": []string{spoofed + ", " + peer}}
	}

	for i := 0; i < 3; i++ {
		s.do(t, call{
			method: http.MethodPost,
			path:   "/api/auth/login",
			body:   map[string]string{"email": "staff@x.com", "password": "wrong"},
			header: forwarded(fmt.Sprintf("10.9.9.%d", i), "198.51.100.7"),
		})
	}

	rec := s.do(t, call{
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   map[string]string{"email": "staff@x.com", "password": "secret"},
		header: forwarded("10.9.9.200", "198.51.100.7"),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	flagged := decodeError(t, rec)
	require.NotNil(t, flagged.ChallengeRequired)
	assert.True(t, *flagged.ChallengeRequired, "rotating the client-supplied entry must not reset the count")

	rec = s.do(t, call{
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   map[string]string{"email": "staff@x.com", "password": "secret"},
		header: forwarded("10.9.9.200", "198.51.100.8"),
	})
	assert.Equal(t, http.StatusOK, rec.Code, "another client behind the proxy keeps its own count")
}

func TestRefreshAndLogout(t *testing.T) {
	s := newServer(t)
	_, cookie := s.login(t, "staff@x.com")

	rec := s.do(t, call{method: http.MethodPost, path: "/api/auth/refresh", cookie: cookie})
	require.Equal(t, http.StatusOK, rec.Code)
	var refreshed map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refreshed))
	assert.NotEmpty(t, refreshed["accessToken"])
	assert.Nil(t, s.refreshCookie(rec), "cookie is only re-set on rotation")

	rec = s.do(t, call{method: http.MethodPost, path: "/api/auth/refresh"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, call{method: http.MethodPost, path: "/api/auth/logout", cookie: cookie})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	cleared := s.refreshCookie(rec)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)

	rec = s.do(t, call{method: http.MethodPost, path: "/api/auth/refresh", cookie: cookie})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, call{method: http.MethodPost, path: "/api/auth/logout"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, s.refreshCookie(rec))
}

func TestAdminRoutes(t *testing.T) {
	s := newServer(t)
	staff, _ := s.login(t, "staff@x.com")
	admin, _ := s.login(t, "admin@x.com")

	newStaff := map[string]string{"name": "Gate", "email": "gate@x.com", "password": "pw", "assignedBay": "bay-2"}

	rec := s.do(t, call{method: http.MethodPost, path: "/api/auth/staff", body: newStaff})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, call{method: http.MethodPost, path: "/api/auth/staff", body: newStaff, token: staff.AccessToken})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, call{method: http.MethodPost, path: "/api/auth/staff", body: newStaff, token: admin.AccessToken})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var created struct {
		Message string         `json:"message"`
		Staff   map[string]any `json:"staff"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Staff registered successfully", created.Message)
	assert.Equal(t, "gate@x.com", created.Staff["email"])
	assert.Equal(t, "bay-2", created.Staff["assignedBay"])
	assert.NotContains(t, rec.Body.String(), "$2a$")

	rec = s.do(t, call{method: http.MethodPost, path: "/api/auth/staff", body: newStaff, token: admin.AccessToken})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, call{method: http.MethodPost, path: "/api/auth/supervisor", token: admin.AccessToken, body: map[string]string{
		"email":    "sup@x.com",
		"password": "pw",
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, call{method: http.MethodPost, path: "/api/auth/register", token: admin.AccessToken, body: map[string]string{
		"email":    "boss@x.com",
		"password": "pw",
	}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"admin"`)
}

func TestSelfServiceRoutes(t *testing.T) {
	s := newServer(t)
	staff, cookie := s.login(t, "staff@x.com")

	rec := s.do(t, call{method: http.MethodPut, path: "/api/auth/users/profile", token: staff.AccessToken, body: map[string]string{"phone": "555"}})
	require.Equal(t, http.StatusOK, rec.Code)
	a, err := s.accounts.GetByEmail(context.Background(), "staff@x.com")
	require.NoError(t, err)
	assert.Equal(t, "555", a.Phone)

	rec = s.do(t, call{method: http.MethodPut, path: "/api/auth/users/update-password", token: staff.AccessToken, body: map[string]string{
		"oldPassword": "wrong",
		"newPassword": "new-secret",
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, call{method: http.MethodPut, path: "/api/auth/users/update-password", token: staff.AccessToken, body: map[string]string{
		"oldPassword": "secret",
		"newPassword": "new-secret",
	}})
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := s.refreshCookie(rec)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)

	rec = s.do(t, call{method: http.MethodPost, path: "/api/auth/refresh", cookie: cookie})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, call{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = s.do(t, call{method: http.MethodGet, path: "/metrics"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# metrics")
}

func TestConfigValidate(t *testing.T) {
	cfg := httpapi.DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.CookieSameSite = "none"
	cfg.CookieSecure = false
	assert.Error(t, cfg.Validate())

	cfg = httpapi.DefaultConfig()
	cfg.CookieSameSite = "sometimes"
	assert.Error(t, cfg.Validate())

	cfg = httpapi.DefaultConfig()
	cfg.CookieName = " "
	assert.Error(t, cfg.Validate())

	cfg = httpapi.DefaultConfig()
	cfg.TrustedProxies = -1
	assert.Error(t, cfg.Validate())

	_, err := httpapi.NewRouter(nil, httpapi.DefaultConfig(), httpapi.RouterOptions{})
	assert.Error(t, err)
}
