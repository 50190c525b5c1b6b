package service

import (
	"context"
	"log"
	"time"
)

// TokenSweeper periodically deletes expired refresh tokens. Deletion is the
// only destructive step and is idempotent per record, so cancellation at any
// point leaves no partial state. The expiry comparison happens inside the
// store at deletion time; the sweeper never acts on a stale snapshot.
type TokenSweeper struct {
	tokens RefreshTokenStore
	every  time.Duration
}

// NewTokenSweeper builds a sweeper running at the given interval.
func NewTokenSweeper(tokens RefreshTokenStore, every time.Duration) *TokenSweeper {
	if every <= 0 {
		every = time.Hour
	}
	return &TokenSweeper{tokens: tokens, every: every}
}

// Run blocks until ctx is cancelled, sweeping once per interval. Sweep
// errors are logged and the loop keeps going; the next tick retries.
func (s *TokenSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.every)
	defer ticker.Stop()
	log.Printf("token-sweeper: running every %s", s.every)
	for {
		select {
		case <-ctx.Done():
			log.Printf("token-sweeper: shutting down")
			return
		case <-ticker.C:
			n, err := s.tokens.SweepExpired(ctx, time.Now().UTC())
			if err != nil {
				log.Printf("token-sweeper: sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("token-sweeper: deleted %d expired refresh tokens", n)
			}
		}
	}
}
