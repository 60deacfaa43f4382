package goAccounts

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrEthical07/goAccounts/password"
	"github.com/MrEthical07/goAccounts/user"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const testPassword = "Correct-horse-42"

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Password.Pepper = []byte("pepper-pepper-pepper-pepper-0001")
	cfg.Password.WorkFactor = password.MinBcryptCost
	cfg.Cookie.Secure = false
	return cfg
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })
	if err := user.CreateSchema(context.Background(), db); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return db
}

type testEngine struct {
	*Engine
	mr *miniredis.Miniredis
	db *bun.DB
}

func newTestEngine(t *testing.T, cfg Config, configure ...func(*Builder)) *testEngine {
	t.Helper()
	mr, rdb := newTestRedis(t)
	db := newTestDB(t)

	b := New().WithConfig(cfg).WithRedis(rdb).WithDB(db)
	for _, fn := range configure {
		fn(b)
	}
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)
	return &testEngine{Engine: engine, mr: mr, db: db}
}

// client replays cookies between requests like a browser.
type client struct {
	t       *testing.T
	engine  *testEngine
	cookies map[string]*http.Cookie
}

func (te *testEngine) client(t *testing.T) *client {
	return &client{t: t, engine: te, cookies: map[string]*http.Cookie{}}
}

// do runs fn against a fresh cookie Request and stores returned cookies.
func (c *client) do(fn func(ctx context.Context, r *Request) error) error {
	c.t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()

	err := fn(req.Context(), c.engine.NewCookieRequest(rec, req))

	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return err
}

func (c *client) login(username, pw string) {
	c.t.Helper()
	if err := c.do(func(ctx context.Context, r *Request) error { return r.LogIn(ctx, username, pw) }); err != nil {
		c.t.Fatalf("login %s: %v", username, err)
	}
}

func (c *client) authenticated() bool {
	c.t.Helper()
	err := c.do(func(ctx context.Context, r *Request) error {
		_, err := r.UserID(ctx)
		return err
	})
	return err == nil
}
