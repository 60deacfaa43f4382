package session

import (
	"errors"
	"time"
)

// Timer supplies the clock and lifetime policy used by [Service].
type Timer interface {
	CurrentTime() time.Time
	Expiration() time.Time
	RefreshTriggerInterval() time.Duration
}

// UTCTimer is the default [Timer]. Every call samples the clock again.
type UTCTimer struct {
	TTL              time.Duration
	RefreshThreshold float64

	// Now overrides the clock in tests. Nil means time.Now.
	Now func() time.Time
}

// NewUTCTimer validates ttl and threshold and returns a timer.
func NewUTCTimer(ttl time.Duration, threshold float64) (*UTCTimer, error) {
	if ttl <= 0 {
		return nil, errors.New("session ttl must be > 0")
	}
	if threshold <= 0 || threshold >= 1 {
		return nil, errors.New("session refresh threshold must be in (0, 1)")
	}
	return &UTCTimer{TTL: ttl, RefreshThreshold: threshold}, nil
}

// CurrentTime returns the current UTC instant.
func (t *UTCTimer) CurrentTime() time.Time {
	if t.Now != nil {
		return t.Now().UTC()
	}
	return time.Now().UTC()
}

// Expiration returns now + TTL.
func (t *UTCTimer) Expiration() time.Time {
	return t.CurrentTime().Add(t.TTL)
}

// RefreshTriggerInterval returns TTL * RefreshThreshold. A session whose remaining
// lifetime is at or below this value is due for renewal.
func (t *UTCTimer) RefreshTriggerInterval() time.Duration {
	return time.Duration(float64(t.TTL) * t.RefreshThreshold)
}
