package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kavehjam/go-rbac-service/internal/model"
	"github.com/kavehjam/go-rbac-service/internal/repository"
)

// sweepRecorder counts sweep invocations and accumulates deleted rows while
// delegating to the real store.
type sweepRecorder struct {
	*repository.InMemoryStore
	calls   atomic.Int64
	deleted atomic.Int64
}

func (r *sweepRecorder) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := r.InMemoryStore.SweepExpired(ctx, now)
	r.calls.Add(1)
	r.deleted.Add(n)
	return n, err
}

func TestTokenSweeperDeletesExpired(t *testing.T) {
	rec := &sweepRecorder{InMemoryStore: repository.NewInMemoryStore(0)} // tokens expire immediately
	ctx := context.Background()

	role, err := rec.CreateRole(ctx, model.Role{Name: model.RoleUser})
	require.NoError(t, err)
	u, err := rec.Create(ctx, model.User{Email: "a@x.com", Enabled: true}, []uint64{role.ID})
	require.NoError(t, err)
	_, err = rec.IssueFor(ctx, u.ID)
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewTokenSweeper(rec, 10*time.Millisecond).Run(runCtx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return rec.deleted.Load() == 1
	}, time.Second, 10*time.Millisecond, "the sweep removes the expired token")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on cancellation")
	}
}

func TestTokenSweeperKeepsTicking(t *testing.T) {
	rec := &sweepRecorder{InMemoryStore: repository.NewInMemoryStore(7)}

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewTokenSweeper(rec, 5*time.Millisecond).Run(runCtx)

	assert.Eventually(t, func() bool {
		return rec.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond, "an empty store still gets swept every tick")
	assert.Zero(t, rec.deleted.Load())
}

func TestTokenSweeperDefaultInterval(t *testing.T) {
	s := NewTokenSweeper(repository.NewInMemoryStore(7), 0)
	assert.Equal(t, time.Hour, s.every)
}
