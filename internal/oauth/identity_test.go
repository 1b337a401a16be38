package oauth

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/userauth/internal/cache"
)

func TestStateIsSingleUse(t *testing.T) {
	ctx := context.Background()
	s := NewStateStore(cache.NewMemory("t:"), 0)

	st, err := s.Issue(ctx, "google")
	require.NoError(t, err)
	require.NotEmpty(t, st)

	require.NoError(t, s.Consume(ctx, "google", st))
	require.ErrorIs(t, s.Consume(ctx, "google", st), ErrInvalidState)
}

func TestStateBoundToProvider(t *testing.T) {
	ctx := context.Background()
	s := NewStateStore(cache.NewMemory(""), 0)

	st, err := s.Issue(ctx, "facebook")
	require.NoError(t, err)
	require.ErrorIs(t, s.Consume(ctx, "google", st), ErrInvalidState)
	require.ErrorIs(t, s.Consume(ctx, "google", ""), ErrInvalidState)
}

func TestStateConcurrentConsume(t *testing.T) {
	ctx := context.Background()
	s := NewStateStore(cache.NewMemory(""), 0)
	st, err := s.Issue(ctx, "google")
	require.NoError(t, err)

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Consume(ctx, "google", st) == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), ok.Load())
}
