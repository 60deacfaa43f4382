package session

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newSessionStoreTest(t *testing.T) (*RedisStore, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return NewRedisStore(rdb, "as"), mr, rdb
}

func testSession(id, userID string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:         id,
		UserID:     userID,
		CreatedAt:  now,
		Expiration: now.Add(time.Hour),
	}
}

func TestUnitOfWorkDefersWritesUntilCommit(t *testing.T) {
	store, mr, _ := newSessionStoreTest(t)
	ctx := context.Background()
	uow := store.Begin()

	if err := uow.Add(ctx, testSession("sid-1", "u-1")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if uow.Pending() != 1 {
		t.Fatalf("expected 1 pending op, got %d", uow.Pending())
	}
	if mr.Exists(store.key("sid-1")) {
		t.Fatal("session written before commit")
	}

	if err := uow.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if uow.Pending() != 0 {
		t.Fatalf("expected empty queue after commit, got %d", uow.Pending())
	}

	got, err := uow.ReadByID(ctx, "sid-1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.ID != "sid-1" || got.UserID != "u-1" {
		t.Fatalf("unexpected session %+v", got)
	}
	if ttl := mr.TTL(store.key("sid-1")); ttl <= 0 || ttl > time.Hour {
		t.Fatalf("expected session ttl within an hour, got %v", ttl)
	}
	if ttl := mr.TTL(store.userKey("u-1")); ttl <= 0 {
		t.Fatalf("expected user index ttl, got %v", ttl)
	}

	ids, err := store.ActiveSessionIDs(ctx, "u-1")
	if err != nil {
		t.Fatalf("active ids: %v", err)
	}
	if len(ids) != 1 || ids[0] != "sid-1" {
		t.Fatalf("unexpected index %v", ids)
	}
}

func TestAddRejectsDuplicateID(t *testing.T) {
	store, _, _ := newSessionStoreTest(t)
	ctx := context.Background()

	first := store.Begin()
	_ = first.Add(ctx, testSession("sid-dup", "u-1"))
	if err := first.Commit(ctx); err != nil {
		t.Fatalf("first commit: %v", err)
	}

	second := store.Begin()
	_ = second.Add(ctx, testSession("sid-dup", "u-2"))
	if err := second.Commit(ctx); !errors.Is(err, ErrIDConflict) {
		t.Fatalf("expected ErrIDConflict, got %v", err)
	}

	got, err := second.ReadByID(ctx, "sid-dup")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.UserID != "u-1" {
		t.Fatalf("duplicate add must not overwrite, owner is %q", got.UserID)
	}
}

func TestReadByIDUnknown(t *testing.T) {
	store, _, _ := newSessionStoreTest(t)
	if _, err := store.Begin().ReadByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateExtendsExistingSession(t *testing.T) {
	store, mr, _ := newSessionStoreTest(t)
	ctx := context.Background()
	uow := store.Begin()

	sess := testSession("sid-1", "u-1")
	sess.Expiration = time.Now().Add(time.Minute)
	_ = uow.Add(ctx, sess)
	if err := uow.Commit(ctx); err != nil {
		t.Fatalf("commit add: %v", err)
	}

	sess.Expiration = time.Now().Add(2 * time.Hour)
	_ = uow.Update(ctx, sess)
	if err := uow.Commit(ctx); err != nil {
		t.Fatalf("commit update: %v", err)
	}

	if ttl := mr.TTL(store.key("sid-1")); ttl < time.Hour {
		t.Fatalf("expected extended ttl, got %v", ttl)
	}
	got, err := uow.ReadByID(ctx, "sid-1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Expiration.UnixMilli() != sess.Expiration.UnixMilli() {
		t.Fatalf("expiration not persisted: %v vs %v", got.Expiration, sess.Expiration)
	}
}

func TestUpdateMissingSessionFails(t *testing.T) {
	store, _, _ := newSessionStoreTest(t)
	ctx := context.Background()
	uow := store.Begin()

	_ = uow.Update(ctx, testSession("gone", "u-1"))
	if err := uow.Commit(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWriteRejectsPastExpiration(t *testing.T) {
	store, _, _ := newSessionStoreTest(t)
	ctx := context.Background()
	uow := store.Begin()

	sess := testSession("sid-old", "u-1")
	sess.Expiration = time.Now().Add(-time.Second)
	_ = uow.Add(ctx, sess)
	if err := uow.Commit(ctx); !errors.Is(err, ErrAlreadyExpired) {
		t.Fatalf("expected ErrAlreadyExpired, got %v", err)
	}
}

func TestDeleteIsIdempotentAndCleansIndex(t *testing.T) {
	store, _, rdb := newSessionStoreTest(t)
	ctx := context.Background()
	uow := store.Begin()

	_ = uow.Add(ctx, testSession("sid-1", "u-1"))
	_ = uow.Add(ctx, testSession("sid-2", "u-1"))
	if err := uow.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	_ = uow.Delete(ctx, "sid-1")
	_ = uow.Delete(ctx, "sid-1")
	_ = uow.Delete(ctx, "never-existed")
	if err := uow.Commit(ctx); err != nil {
		t.Fatalf("delete commit: %v", err)
	}

	if _, err := uow.ReadByID(ctx, "sid-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted session, got %v", err)
	}
	members, err := rdb.SMembers(ctx, store.userKey("u-1")).Result()
	if err != nil {
		t.Fatalf("smembers: %v", err)
	}
	if len(members) != 1 || members[0] != "sid-2" {
		t.Fatalf("unexpected index members %v", members)
	}
}

func TestDeleteAllForUserLeavesOtherUsers(t *testing.T) {
	store, mr, _ := newSessionStoreTest(t)
	ctx := context.Background()
	uow := store.Begin()

	_ = uow.Add(ctx, testSession("a-1", "u-a"))
	_ = uow.Add(ctx, testSession("a-2", "u-a"))
	_ = uow.Add(ctx, testSession("b-1", "u-b"))
	if err := uow.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	_ = uow.DeleteAllForUser(ctx, "u-a")
	_ = uow.DeleteAllForUser(ctx, "nobody")
	if err := uow.Commit(ctx); err != nil {
		t.Fatalf("delete all commit: %v", err)
	}

	for _, id := range []string{"a-1", "a-2"} {
		if _, err := uow.ReadByID(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected %s removed, got %v", id, err)
		}
	}
	if mr.Exists(store.userKey("u-a")) {
		t.Fatal("expected user index removed")
	}
	if _, err := uow.ReadByID(ctx, "b-1"); err != nil {
		t.Fatalf("other user's session must survive: %v", err)
	}
}

// addAfterScript commits a session through a second client right after the
// first successful script call following arm.
type addAfterScript struct {
	store *RedisStore
	sess  *Session
	armed atomic.Bool
	err   error
}

func (h *addAfterScript) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *addAfterScript) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		name := strings.ToLower(cmd.Name())
		if err == nil && (name == "evalsha" || name == "eval") && h.armed.CompareAndSwap(true, false) {
			uow := h.store.Begin()
			if h.err = uow.Add(ctx, h.sess); h.err == nil {
				h.err = uow.Commit(ctx)
			}
		}
		return err
	}
}

func (h *addAfterScript) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestDeleteAllForUserRacingAddStaysRevocable(t *testing.T) {
	store, mr, rdb := newSessionStoreTest(t)
	ctx := context.Background()

	side := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { side.Close() })
	hook := &addAfterScript{store: NewRedisStore(side, "as"), sess: testSession("racing", "u-1")}
	rdb.AddHook(hook)

	uow := store.Begin()
	_ = uow.Add(ctx, testSession("s-1", "u-1"))
	_ = uow.Add(ctx, testSession("s-2", "u-1"))
	if err := uow.Commit(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	hook.armed.Store(true)
	_ = uow.DeleteAllForUser(ctx, "u-1")
	if err := uow.Commit(ctx); err != nil {
		t.Fatalf("first revoke: %v", err)
	}
	if hook.armed.Load() || hook.err != nil {
		t.Fatalf("concurrent add did not run cleanly: armed=%v err=%v", hook.armed.Load(), hook.err)
	}

	ids, err := store.ActiveSessionIDs(ctx, "u-1")
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if len(ids) != 1 || ids[0] != "racing" {
		t.Fatalf("session added after revoke must stay indexed, got %v", ids)
	}

	_ = uow.DeleteAllForUser(ctx, "u-1")
	if err := uow.Commit(ctx); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	for _, id := range []string{"s-1", "s-2", "racing"} {
		if _, err := uow.ReadByID(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected %s revoked, got %v", id, err)
		}
	}
	if mr.Exists(store.userKey("u-1")) {
		t.Fatal("expected user index removed")
	}
}

func TestStoreErrorsWrapStorage(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer rdb.Close()
	store := NewRedisStore(rdb, "as")
	ctx := context.Background()

	uow := store.Begin()
	if _, err := uow.ReadByID(ctx, "sid"); !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage on read, got %v", err)
	}
	_ = uow.Add(ctx, testSession("sid", "u-1"))
	if err := uow.Commit(ctx); !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage on commit, got %v", err)
	}
	if _, err := store.Ping(ctx); !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage on ping, got %v", err)
	}
}
