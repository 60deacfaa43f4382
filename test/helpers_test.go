//go:build integration
// +build integration

package test

import (
	"context"
	"database/sql"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goAccounts "github.com/MrEthical07/goAccounts"
	"github.com/MrEthical07/goAccounts/password"
	"github.com/MrEthical07/goAccounts/session"
	"github.com/MrEthical07/goAccounts/user"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const testPassword = "Correct-horse-42"

// cmdCounter is a go-redis hook counting commands and pipeline round trips.
type cmdCounter struct {
	commands  atomic.Int64
	pipelines atomic.Int64
}

func (h *cmdCounter) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *cmdCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.commands.Add(1)
		return next(ctx, cmd)
	}
}

func (h *cmdCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		h.pipelines.Add(1)
		h.commands.Add(int64(len(cmds)))
		return next(ctx, cmds)
	}
}

func (h *cmdCounter) Reset() {
	h.commands.Store(0)
	h.pipelines.Store(0)
}

func (h *cmdCounter) Commands() int64  { return h.commands.Load() }
func (h *cmdCounter) Pipelines() int64 { return h.pipelines.Load() }

// newCountedRedis starts miniredis and returns a warmed client with a
// cmdCounter installed. The handshake is not counted.
func newCountedRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client, *cmdCounter) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	counter := &cmdCounter{}
	rdb.AddHook(counter)
	require.NoError(t, rdb.Ping(context.Background()).Err())
	counter.Reset()
	return mr, rdb, counter
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, user.CreateSchema(context.Background(), db))
	return db
}

func testConfig() goAccounts.Config {
	cfg := goAccounts.DefaultConfig()
	cfg.JWT.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Password.Pepper = []byte("pepper-pepper-pepper-pepper-0001")
	cfg.Password.WorkFactor = password.MinBcryptCost
	cfg.Cookie.Secure = false
	return cfg
}

func newEngine(t *testing.T, rdb redis.UniversalClient) *goAccounts.Engine {
	t.Helper()
	engine, err := goAccounts.New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithDB(newTestDB(t)).
		Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)
	return engine
}

// clock is a settable time source for session.UTCTimer.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock { return &clock{now: time.Now().UTC()} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// memTransport carries the session id in memory, standing in for a
// cookie jar.
type memTransport struct {
	mu        sync.Mutex
	id        string
	delivered int
}

func (t *memTransport) ExtractID() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id, t.id != ""
}

func (t *memTransport) Deliver(sess *session.Session) error {
	t.mu.Lock()
	t.id = sess.ID
	t.delivered++
	t.mu.Unlock()
	return nil
}

func (t *memTransport) RemoveCurrent() {
	t.mu.Lock()
	t.id = ""
	t.mu.Unlock()
}

// newService starts a request-scoped service over a fresh unit of work.
func newService(store *session.RedisStore, tr session.Transport, timer session.Timer) *session.Service {
	uow := store.Begin()
	return session.NewService(session.Deps{
		Store:     uow,
		Committer: uow,
		Transport: tr,
		Timer:     timer,
	})
}
