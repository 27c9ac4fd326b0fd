package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/jimiolaniyan/agencyauth/auth"
)

type RouterTestSuite struct {
	suite.Suite
	server *httptest.Server
	client *http.Client
}

type envelope struct {
	Success bool              `json:"success"`
	Msg     string            `json:"msg"`
	User    map[string]string `json:"user"`
	Field   string            `json:"field"`
	Errors  map[string]string `json:"errors"`
}

func (s *RouterTestSuite) SetupTest() {
	log := logrus.New()
	log.SetOutput(io.Discard)

	tokens, err := auth.NewTokenCodec(auth.TokenConfig{Secret: []byte("router-secret")})
	s.Require().NoError(err)

	registry := prometheus.NewRegistry()
	svc := auth.NewService(auth.NewAccountRepository(), auth.NewBcryptHasher(bcrypt.MinCost), tokens,
		auth.WithLogger(log), auth.WithEvents(NewAuthEvents(registry)))

	s.server = httptest.NewServer(NewRouter(Deps{
		Service:        svc,
		Tokens:         tokens,
		Cookies:        auth.DefaultCookieConfig(),
		Health:         NewHealthChecker(pingerFunc(func(context.Context) error { return nil }), 0),
		Registry:       registry,
		Log:            log,
		FrontendOrigin: "http://localhost:3000",
	}))

	jar, err := cookiejar.New(nil)
	s.Require().NoError(err)
	s.client = &http.Client{Jar: jar}
}

func (s *RouterTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *RouterTestSuite) do(method, path, body string) (int, envelope) {
	req, err := http.NewRequest(method, s.server.URL+path, strings.NewReader(body))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var env envelope
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (s *RouterTestSuite) TestAccountLifecycle() {
	code, env := s.do(http.MethodGet, "/auth", "")
	s.Equal(http.StatusUnauthorized, code)
	s.Equal("Unauthorized", env.Msg)

	code, env = s.do(http.MethodPost, "/signup", `{"username":"jimi","fullname":"Jimi O","email":"Jimi@Example.com","password":"password1"}`)
	s.Equal(http.StatusCreated, code)
	s.True(env.Success)
	s.Equal("jimi@example.com", env.User["email"])
	id := env.User["id"]

	code, env = s.do(http.MethodGet, "/auth", "")
	s.Equal(http.StatusOK, code)
	s.Equal(id, env.User["id"])
	s.Equal("jimi", env.User["username"])

	code, env = s.do(http.MethodPut, "/user/update", `{"fullname":"Jimi Olaniyan"}`)
	s.Equal(http.StatusOK, code)
	s.Equal("Jimi Olaniyan", env.User["fullname"])

	code, env = s.do(http.MethodGet, "/auth", "")
	s.Equal(http.StatusOK, code)
	s.Equal("Jimi Olaniyan", env.User["fullname"], "update must re-issue the session")

	code, env = s.do(http.MethodPost, "/logout", "")
	s.Equal(http.StatusOK, code)
	s.Equal("Logout successful", env.Msg)

	code, _ = s.do(http.MethodDelete, "/user/delete", "")
	s.Equal(http.StatusUnauthorized, code)

	code, env = s.do(http.MethodPost, "/login", `{"username":"jimi","password":"password1"}`)
	s.Equal(http.StatusOK, code)
	s.Equal("Login successful", env.Msg)

	code, env = s.do(http.MethodDelete, "/user/delete", "")
	s.Equal(http.StatusOK, code)
	s.Equal("Account deleted successfully", env.Msg)

	code, env = s.do(http.MethodPost, "/login", `{"username":"jimi","password":"password1"}`)
	s.Equal(http.StatusUnauthorized, code)
	s.Equal("Invalid username or password", env.Msg)
}

func (s *RouterTestSuite) TestSignupConflict() {
	body := `{"username":"jimi","fullname":"Jimi O","email":"jimi@example.com","password":"password1"}`
	code, _ := s.do(http.MethodPost, "/signup", body)
	s.Require().Equal(http.StatusCreated, code)

	code, env := s.do(http.MethodPost, "/signup", body)
	s.Equal(http.StatusConflict, code)
	s.Equal("Username already exists", env.Msg)
	s.Equal("username", env.Field)
}

func (s *RouterTestSuite) TestHealthAndMetrics() {
	resp, err := s.client.Get(s.server.URL + "/health")
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	s.do(http.MethodPost, "/login", `{"username":"ghost","password":"password1"}`)

	resp, err = s.client.Get(s.server.URL + "/metrics")
	s.Require().NoError(err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	s.Contains(string(b), `agencyauth_logins_total{outcome="failure"} 1`)
	s.Contains(string(b), `agencyauth_http_requests_total{code="401",method="post",route="/login"} 1`)
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func TestRouter_Preflight(t *testing.T) {
	tokens, err := auth.NewTokenCodec(auth.TokenConfig{Secret: []byte("s")})
	require.NoError(t, err)
	log := logrus.New()
	log.SetOutput(io.Discard)

	h := NewRouter(Deps{
		Service:        auth.NewService(auth.NewAccountRepository(), auth.NewBcryptHasher(bcrypt.MinCost), tokens),
		Tokens:         tokens,
		Cookies:        auth.DefaultCookieConfig(),
		Registry:       prometheus.NewRegistry(),
		Log:            log,
		FrontendOrigin: "http://localhost:3000",
	})

	r := httptest.NewRequest(http.MethodOptions, "/user/update", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	r.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
