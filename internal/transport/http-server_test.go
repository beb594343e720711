package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/config"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db/dbtest"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/media"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
)

var pngDataURI = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte{0x89, 'P', 'N', 'G'})

type testServer struct {
	srv       *HTTPServer
	db        *gorm.DB
	mediaRoot string
	users     *service.Users
	catalog   *service.Catalog
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	conn := dbtest.New(t)
	l := zap.NewNop().Sugar()
	cfg := &config.Config{
		MediaRoot:  t.TempDir(),
		MediaURL:   "/media/",
		PageSize:   6,
		BcryptCost: bcrypt.MinCost,
	}
	storage, err := media.NewStorage(cfg, l)
	require.NoError(t, err)

	users := service.NewUsers(conn, l, cfg)
	catalog := service.NewCatalog(conn, l)
	srv := New(Deps{
		Config:        cfg,
		Logger:        l,
		Users:         users,
		Catalog:       catalog,
		Recipes:       service.NewRecipes(conn, l),
		Toggles:       service.NewToggles(conn, l),
		Subscriptions: service.NewSubscriptions(conn, l),
		ShoppingList:  service.NewShoppingList(conn, l),
		Media:         storage,
		Metrics:       NewMetrics(),
	})

	return &testServer{srv: srv, db: conn, mediaRoot: cfg.MediaRoot, users: users, catalog: catalog}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	resp, err := ts.srv.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

// login registers a user and returns it with a fresh token.
func (ts *testServer) login(t *testing.T, name string, staff bool) (*db.User, string) {
	t.Helper()
	ctx := context.Background()

	u, err := ts.users.Register(ctx, service.UserInput{
		Email:     name + "@example.com",
		Username:  name,
		FirstName: name,
		LastName:  "Test",
		Password:  "secret-password",
	})
	require.NoError(t, err)
	if staff {
		require.NoError(t, ts.db.Model(u).Update("is_staff", true).Error)
	}
	token, err := ts.users.Login(ctx, u.Email, "secret-password")
	require.NoError(t, err)
	return u, token
}

func decode(t *testing.T, b []byte, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(b, v), string(b))
}

func TestCensorBody(t *testing.T) {
	b := `{
		"email": "email@email.com",
		"password": "123456789123"
	}`

	got := censorBody([]byte(b))
	assert.JSONEq(t, `{
		"email": "email@email.com",
		"password": "$censored"
	}`, string(got))
}

func TestCensorBodyPasswordChange(t *testing.T) {
	got := censorBody([]byte(`{"current_password": "a", "new_password": "b"}`))
	assert.JSONEq(t, `{"current_password": "$censored", "new_password": "$censored"}`, string(got))

	plain := []byte(`{"name": "bread"}`)
	assert.Equal(t, plain, censorBody(plain))

	notJSON := []byte(`password=123`)
	assert.Equal(t, notJSON, censorBody(notJSON))
}

func TestTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc", tokenFromHeader("Token abc"))
	assert.Equal(t, "abc", tokenFromHeader("Bearer abc"))
	assert.Equal(t, "", tokenFromHeader("Basic abc"))
	assert.Equal(t, "", tokenFromHeader("abc"))
	assert.Equal(t, "", tokenFromHeader(""))
}

func TestPingAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", string(body))

	resp, body = ts.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `foodgram_http_requests_total{method="GET",route="/ping",status="200"} 1`)
}

func TestUnknownTokenIsUnauthorized(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodGet, "/api/tags/", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "detail")
}
