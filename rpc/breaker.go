package rpc

import (
	"math/rand"
	"sync"
	"time"
)

const (
	failureThreshold = 3
	baseBackoff      = 500 * time.Millisecond
	maxBackoff       = 30 * time.Second
)

// breaker is a per-peer circuit breaker: after failureThreshold
// consecutive failures it opens and rejects calls until an
// exponential-backoff-with-equal-jitter deadline passes (§5), after which
// calls are let through again. The failure streak is only reset by a
// success, so the next failure reopens it with a doubled backoff.
type breaker struct {
	mu          sync.Mutex
	consecutive int
	openUntil   time.Time
	nextBackoff time.Duration
}

func newBreaker() *breaker {
	return &breaker{nextBackoff: baseBackoff}
}

// allow reports whether a call may proceed right now.
func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.consecutive < failureThreshold {
		return true
	}
	return !time.Now().Before(b.openUntil)
}

// recordSuccess resets the breaker to its fully-closed state.
func (b *breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutive = 0
	b.nextBackoff = baseBackoff
}

// recordFailure advances the failure streak and, once past the
// threshold, opens the breaker for an equal-jitter backoff window:
// delay is chosen uniformly from [backoff/2, backoff], then backoff
// doubles up to maxBackoff.
func (b *breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutive++
	if b.consecutive < failureThreshold {
		return
	}

	half := b.nextBackoff / 2
	jitter := time.Duration(rand.Int63n(int64(half) + 1))
	delay := half + jitter
	b.openUntil = time.Now().Add(delay)

	b.nextBackoff *= 2
	if b.nextBackoff > maxBackoff {
		b.nextBackoff = maxBackoff
	}
}
