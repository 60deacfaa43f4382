package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrAlreadyExpired is returned when a write carries an expiration in the past.
var ErrAlreadyExpired = errors.New("session already expired")

const addSessionScript = `
local ok = redis.call("SET", KEYS[1], ARGV[1], "NX", "PX", ARGV[2])
if not ok then
  return 0
end
redis.call("SADD", KEYS[2], ARGV[3])
local ttl = tonumber(ARGV[2])
if redis.call("PTTL", KEYS[2]) < ttl then
  redis.call("PEXPIRE", KEYS[2], ttl)
end
return 1
`

var addSessionLua = redis.NewScript(addSessionScript)

const updateSessionScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
redis.call("SADD", KEYS[2], ARGV[3])
local ttl = tonumber(ARGV[2])
if redis.call("PTTL", KEYS[2]) < ttl then
  redis.call("PEXPIRE", KEYS[2], ttl)
end
return 1
`

var updateSessionLua = redis.NewScript(updateSessionScript)

const deleteSessionScript = `
local existed = redis.call("DEL", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
return existed
`

var deleteSessionLua = redis.NewScript(deleteSessionScript)

// The index read and every delete run in one script, so a session added
// concurrently is either revoked here or still indexed for the next revoke.
const deleteUserSessionsScript = `
local ids = redis.call("SMEMBERS", KEYS[1])
for _, id in ipairs(ids) do
  redis.call("DEL", ARGV[1] .. id)
end
redis.call("DEL", KEYS[1])
return #ids
`

var deleteUserSessionsLua = redis.NewScript(deleteUserSessionsScript)

// RedisStore holds the Redis client and key layout shared by all requests.
// Per-request access goes through [RedisStore.Begin].
//
// Keys:
//
//	<prefix>:s:<sessionID>  encoded session, PX = remaining lifetime
//	<prefix>:u:<userID>     set of session ids, expires with the longest member
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisStore creates a store backed by the given client. An empty prefix
// defaults to "gas".
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "gas"
	}
	return &RedisStore{
		redis:  rdb,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + ":s:" + sessionID
}

func (s *RedisStore) userKey(userID string) string {
	return s.prefix + ":u:" + userID
}

// Begin starts a unit of work. The returned value implements both [Store] and
// [Committer] and must not be shared between requests.
func (s *RedisStore) Begin() *UnitOfWork {
	return &UnitOfWork{store: s}
}

// Ping checks Redis availability and returns the round-trip latency.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return time.Since(start), nil
}

// ActiveSessionIDs returns the indexed session ids for a user. Ids whose
// session already expired may still be listed until the index itself expires.
func (s *RedisStore) ActiveSessionIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return ids, nil
}

func (s *RedisStore) read(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %q: %v", ErrStorage, sessionID, err)
	}
	sess.ID = sessionID
	return sess, nil
}

func (s *RedisStore) ttl(sess *Session) (int64, error) {
	ttl := sess.Expiration.Sub(s.now())
	if ttl < time.Millisecond {
		return 0, ErrAlreadyExpired
	}
	return ttl.Milliseconds(), nil
}

func (s *RedisStore) write(ctx context.Context, script *redis.Script, sess *Session, data []byte) (bool, error) {
	ttl, err := s.ttl(sess)
	if err != nil {
		return false, err
	}

	res, err := script.Run(
		ctx,
		s.redis,
		[]string{s.key(sess.ID), s.userKey(sess.UserID)},
		data, ttl, sess.ID,
	).Int()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return res == 1, nil
}

func (s *RedisStore) delete(ctx context.Context, sessionID string) error {
	sess, err := s.read(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	if err := deleteSessionLua.Run(ctx, s.redis, []string{s.key(sessionID), s.userKey(sess.UserID)}, sessionID).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

func (s *RedisStore) deleteAllForUser(ctx context.Context, userID string) error {
	if err := deleteUserSessionsLua.Run(ctx, s.redis, []string{s.userKey(userID)}, s.prefix+":s:").Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// UnitOfWork buffers mutations against a [RedisStore] until Commit. Reads are
// served directly from Redis.
type UnitOfWork struct {
	store *RedisStore

	mu      sync.Mutex
	pending []func(context.Context) error
}

func (u *UnitOfWork) enqueue(op func(context.Context) error) {
	u.mu.Lock()
	u.pending = append(u.pending, op)
	u.mu.Unlock()
}

// Pending returns the number of queued mutations.
func (u *UnitOfWork) Pending() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.pending)
}

// Add queues creation of sess. Commit fails with [ErrIDConflict] if the id is taken.
func (u *UnitOfWork) Add(_ context.Context, sess *Session) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}
	snapshot := sess.clone()

	u.enqueue(func(ctx context.Context) error {
		created, err := u.store.write(ctx, addSessionLua, snapshot, data)
		if err != nil {
			return err
		}
		if !created {
			return ErrIDConflict
		}
		return nil
	})
	return nil
}

// ReadByID returns the stored session or [ErrNotFound].
func (u *UnitOfWork) ReadByID(ctx context.Context, id string) (*Session, error) {
	return u.store.read(ctx, id)
}

// Update queues an overwrite of an existing session. Commit fails with
// [ErrNotFound] when the session vanished in the meantime.
func (u *UnitOfWork) Update(_ context.Context, sess *Session) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}
	snapshot := sess.clone()

	u.enqueue(func(ctx context.Context) error {
		updated, err := u.store.write(ctx, updateSessionLua, snapshot, data)
		if err != nil {
			return err
		}
		if !updated {
			return ErrNotFound
		}
		return nil
	})
	return nil
}

// Delete queues removal of a single session. Unknown ids are not an error.
func (u *UnitOfWork) Delete(_ context.Context, id string) error {
	u.enqueue(func(ctx context.Context) error {
		return u.store.delete(ctx, id)
	})
	return nil
}

// DeleteAllForUser queues removal of every session indexed for userID.
func (u *UnitOfWork) DeleteAllForUser(_ context.Context, userID string) error {
	u.enqueue(func(ctx context.Context) error {
		return u.store.deleteAllForUser(ctx, userID)
	})
	return nil
}

// Commit applies queued mutations in order and stops at the first failure.
// The queue is empty afterwards regardless of the outcome.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	u.mu.Lock()
	ops := u.pending
	u.pending = nil
	u.mu.Unlock()

	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
		if err := op(ctx); err != nil {
			return err
		}
	}
	return nil
}
