package password

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

var (
	// ErrBusy is returned when no hashing permit frees up within the permit timeout.
	ErrBusy = errors.New("password hasher busy")
	// ErrClosed is returned after [Gate.Close].
	ErrClosed = errors.New("password hasher closed")
	// ErrUnknownHash is returned when no configured algorithm recognizes a hash.
	ErrUnknownHash = errors.New("unrecognized password hash")
)

// GateConfig sizes the hashing gate.
type GateConfig struct {
	Pepper        []byte
	Workers       int
	PermitTimeout time.Duration
}

// Gate bounds concurrent hashing work. Every call first acquires one of Workers
// permits, waiting at most PermitTimeout, then runs on a fixed worker pool of
// the same size. The worker releases the permit when the job finishes, even if
// the caller already gave up.
//
// Hashes are produced by the primary algorithm. Legacy algorithms are only used
// to verify existing hashes, which then report [Gate.NeedsUpgrade].
type Gate struct {
	primary Algorithm
	legacy  []Algorithm
	pepper  []byte
	timeout time.Duration

	sem  *semaphore.Weighted
	jobs chan func()
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewGate starts cfg.Workers goroutines. Call Close to stop them.
func NewGate(primary Algorithm, cfg GateConfig, legacy ...Algorithm) (*Gate, error) {
	if primary == nil {
		return nil, errors.New("password algorithm is required")
	}
	if len(cfg.Pepper) < MinPepperBytes {
		return nil, fmt.Errorf("pepper must be at least %d bytes", MinPepperBytes)
	}
	if cfg.Workers < 1 {
		return nil, errors.New("hasher workers must be >= 1")
	}
	if cfg.PermitTimeout <= 0 {
		return nil, errors.New("hasher permit timeout must be > 0")
	}

	g := &Gate{
		primary: primary,
		legacy:  legacy,
		pepper:  append([]byte(nil), cfg.Pepper...),
		timeout: cfg.PermitTimeout,
		sem:     semaphore.NewWeighted(int64(cfg.Workers)),
		jobs:    make(chan func(), cfg.Workers),
	}
	g.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go g.worker()
	}
	return g, nil
}

func (g *Gate) worker() {
	defer g.wg.Done()
	for job := range g.jobs {
		job()
		g.sem.Release(1)
	}
}

// run acquires a permit and executes fn on the pool. Permits never exceed the
// channel capacity, so the send cannot block.
func (g *Gate) run(ctx context.Context, fn func()) error {
	g.mu.RLock()
	if g.closed {
		g.mu.RUnlock()
		return ErrClosed
	}

	acquireCtx, cancel := context.WithTimeout(ctx, g.timeout)
	err := g.sem.Acquire(acquireCtx, 1)
	cancel()
	if err != nil {
		g.mu.RUnlock()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return ErrBusy
	}

	done := make(chan struct{})
	g.jobs <- func() {
		defer close(done)
		fn()
	}
	g.mu.RUnlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Hash peppers raw and hashes it with the primary algorithm.
func (g *Gate) Hash(ctx context.Context, raw string) (string, error) {
	var (
		hash string
		err  error
	)
	if runErr := g.run(ctx, func() {
		hash, err = g.primary.Hash(Pepper(g.pepper, raw))
	}); runErr != nil {
		return "", runErr
	}
	return hash, err
}

// Verify peppers raw and checks it against encodedHash.
func (g *Gate) Verify(ctx context.Context, raw, encodedHash string) (bool, error) {
	alg := g.algorithmFor(encodedHash)
	if alg == nil {
		return false, ErrUnknownHash
	}

	var (
		ok  bool
		err error
	)
	if runErr := g.run(ctx, func() {
		ok, err = alg.Verify(Pepper(g.pepper, raw), encodedHash)
	}); runErr != nil {
		return false, runErr
	}
	return ok, err
}

// NeedsUpgrade reports whether encodedHash should be replaced by a fresh hash
// from the primary algorithm.
func (g *Gate) NeedsUpgrade(encodedHash string) bool {
	if !g.primary.Identify(encodedHash) {
		return true
	}
	upgrade, err := g.primary.NeedsUpgrade(encodedHash)
	return err != nil || upgrade
}

// Algorithm returns the name of the primary algorithm.
func (g *Gate) Algorithm() string {
	return g.primary.Name()
}

func (g *Gate) algorithmFor(encodedHash string) Algorithm {
	if g.primary.Identify(encodedHash) {
		return g.primary
	}
	for _, alg := range g.legacy {
		if alg.Identify(encodedHash) {
			return alg
		}
	}
	return nil
}

// Close rejects new work and waits for running jobs to finish.
func (g *Gate) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	close(g.jobs)
	g.mu.Unlock()

	g.wg.Wait()
}
