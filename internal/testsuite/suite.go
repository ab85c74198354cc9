package testsuite

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/14kear/siteVoting/internal/app"
	"github.com/14kear/siteVoting/internal/config"
	"github.com/14kear/siteVoting/internal/lib/jwt"
	"github.com/14kear/siteVoting/internal/lib/logger"
	"github.com/14kear/siteVoting/internal/middleware"
)

const (
	AdminKey = "test-admin-key"
	Secret   = "test-secret"
)

var ginMode sync.Once

// Clock: ручные часы, общие для сервиса и теста.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Suite поднимает приложение на memory-хранилище за httptest-сервером.
type Suite struct {
	*testing.T
	Cfg    *config.Config
	App    *app.App
	Clock  *Clock
	Issuer jwt.Issuer
	Server *httptest.Server
}

func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()
	t.Parallel()

	ginMode.Do(func() { gin.SetMode(gin.TestMode) })

	hash, err := bcrypt.GenerateFromPassword([]byte(AdminKey), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:     logger.EnvLocal,
		Storage: config.StorageConfig{Type: config.StorageMemory},
		HTTP: config.HTTPConfig{
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			ShutdownTimeout: time.Second,
		},
		Identity: config.IdentityConfig{
			Issuer:   "https://accounts.test",
			Audience: "site-voting-test",
			Secret:   Secret,
		},
		Admin: config.AdminConfig{KeyHash: string(hash)},
		Voting: config.VotingConfig{
			GroupCap: 3,
			// фазы двигает сам тест через Finish
			Tick:       time.Hour,
			RevealStep: 2 * time.Second,
		},
	}

	clock := &Clock{now: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)}

	application, err := app.NewApp(logger.Discard(), cfg, clock)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	require.NoError(t, application.Start(ctx))

	server := httptest.NewServer(application.HTTPServer.Engine())

	t.Cleanup(func() {
		server.Close()
		_ = application.Stop(context.Background())
		cancel()
	})

	return ctx, &Suite{
		T:     t,
		Cfg:   cfg,
		App:   application,
		Clock: clock,
		Issuer: jwt.Issuer{
			Name:     cfg.Identity.Issuer,
			Audience: cfg.Identity.Audience,
			Secret:   []byte(cfg.Identity.Secret),
		},
		Server: server,
	}
}

// IDToken выпускает токен, который примет сервис.
func (s *Suite) IDToken(email string) string {
	s.Helper()

	token, err := jwt.NewIDToken(s.Issuer, email, time.Hour)
	require.NoError(s.T, err)
	return token
}

// Finish переводит часы за время окончания и применяет переход фазы.
func (s *Suite) Finish(past time.Duration) {
	s.Helper()

	st := s.App.Voting.Status(s.Clock.Now())
	s.Clock.Advance(st.EndTime.Sub(s.Clock.Now()) + past)

	_, err := s.App.Voting.Tick(s.Clock.Now())
	require.NoError(s.T, err)
}

// Do отправляет JSON-запрос и декодирует ответ в out, если он не nil.
func (s *Suite) Do(method, path string, body any, headers map[string]string, out any) int {
	s.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.T, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.Server.URL+path, reader)
	require.NoError(s.T, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.Server.Client().Do(req)
	require.NoError(s.T, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(s.T, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *Suite) Admin() map[string]string {
	return map[string]string{middleware.AdminKeyHeader: AdminKey}
}

func (s *Suite) Bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
