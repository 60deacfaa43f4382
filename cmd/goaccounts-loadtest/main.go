package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goAccounts/password"
	"github.com/MrEthical07/goAccounts/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		sessions    = flag.Int("sessions", 20000, "number of sessions to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 100000, "operations per store phase (read + renew)")
		hashOps     = flag.Int("hash-ops", 2000, "operations for the hashing phase")
		workers     = flag.Int("hash-workers", 4, "hashing gate workers")
		permit      = flag.Duration("permit-timeout", time.Second, "hashing gate permit timeout")
		cost        = flag.Int("bcrypt-cost", password.MinBcryptCost, "bcrypt cost for the hashing phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "gas-load", "session key prefix")
	)
	flag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *ops <= 0 || *hashOps <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency, ops and hash-ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	store := session.NewRedisStore(client, *prefix)

	ids := make([]string, *sessions)
	gen := session.RandomIDGenerator{}
	fmt.Printf("seeding %d sessions...\n", *sessions)
	startSeed := time.Now()
	for i := range ids {
		id, err := gen.Generate()
		if err != nil {
			fmt.Fprintf(os.Stderr, "id generation failed: %v\n", err)
			os.Exit(1)
		}
		ids[i] = id
		uow := store.Begin()
		if err := uow.Add(ctx, buildSession(id, i)); err != nil {
			fmt.Fprintf(os.Stderr, "add failed: %v\n", err)
			os.Exit(1)
		}
		if err := uow.Commit(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "commit failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	readStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		_, err := store.Begin().ReadByID(ctx, ids[r.Intn(len(ids))])
		return err
	})
	renewStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		uow := store.Begin()
		sess, err := uow.ReadByID(ctx, ids[r.Intn(len(ids))])
		if err != nil {
			return err
		}
		if sess == nil {
			return errors.New("session missing")
		}
		sess.Expiration = time.Now().UTC().Add(30 * time.Minute)
		if err := uow.Update(ctx, sess); err != nil {
			return err
		}
		return uow.Commit(ctx)
	})

	bcrypt, err := password.NewBcrypt(*cost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bcrypt: %v\n", err)
		os.Exit(2)
	}
	gate, err := password.NewGate(bcrypt, password.GateConfig{
		Pepper:        []byte("loadtest-pepper-loadtest-pepper!"),
		Workers:       *workers,
		PermitTimeout: *permit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "gate: %v\n", err)
		os.Exit(2)
	}
	defer gate.Close()

	var busy int64
	hashStats := runPhase(*hashOps, *concurrency, func(*rand.Rand) error {
		_, err := gate.Hash(ctx, "Load-test-password-1")
		if errors.Is(err, password.ErrBusy) {
			atomic.AddInt64(&busy, 1)
		}
		return err
	})

	fmt.Println("---- results ----")
	printStats("read", readStats)
	printStats("renew", renewStats)
	printStats("hash", hashStats)
	fmt.Printf("hash: busy=%d\n", busy)
}

// runPhase executes ops calls of fn across concurrency workers.
func runPhase(ops, concurrency int, fn func(r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				if int(atomic.AddInt64(&cursor, 1)) > ops {
					return
				}
				t0 := time.Now()
				err := fn(r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func buildSession(id string, i int) *session.Session {
	now := time.Now().UTC()
	return &session.Session{
		ID:         id,
		UserID:     fmt.Sprintf("user-%d", i%1000),
		CreatedAt:  now,
		Expiration: now.Add(24 * time.Hour),
	}
}
