package otp

import (
	"context"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/userauth/internal/store/memory"
)

func newManager(gen Generator) *Manager {
	return NewManager(memory.New().OTPs(), gen, 10*time.Minute)
}

func TestRandomGeneratorFormat(t *testing.T) {
	re := regexp.MustCompile(`^\d{4}$`)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		c, err := RandomGenerator{Length: 4}.Generate()
		require.NoError(t, err)
		require.Regexp(t, re, c)
		seen[c] = true
	}
	require.Greater(t, len(seen), 1)

	c, _ := RandomGenerator{Length: 6}.Generate()
	require.Len(t, c, 6)
}

func TestIssueVerifyConsumes(t *testing.T) {
	ctx := context.Background()
	m := newManager(FixedGenerator("1234"))

	code, exp, err := m.Issue(ctx, "a@example.com")
	require.NoError(t, err)
	require.Equal(t, "1234", code)
	require.WithinDuration(t, time.Now().Add(10*time.Minute), exp, 5*time.Second)

	require.ErrorIs(t, m.Verify(ctx, "a@example.com", "9999"), ErrInvalidOrExpired)
	require.ErrorIs(t, m.Verify(ctx, "b@example.com", "1234"), ErrInvalidOrExpired)
	require.NoError(t, m.Verify(ctx, "a@example.com", "1234"))
	require.ErrorIs(t, m.Verify(ctx, "a@example.com", "1234"), ErrInvalidOrExpired, "single use")
}

func TestExpiredCodeFails(t *testing.T) {
	ctx := context.Background()
	m := newManager(FixedGenerator("1234"))
	_, _, err := m.Issue(ctx, "a@example.com")
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
	require.ErrorIs(t, m.Verify(ctx, "a@example.com", "1234"), ErrInvalidOrExpired)
	require.ErrorIs(t, m.Check(ctx, "a@example.com", "1234"), ErrInvalidOrExpired)
}

func TestReissueInvalidatesPreviousCode(t *testing.T) {
	ctx := context.Background()
	m := newManager(RandomGenerator{Length: 6})

	first, _, err := m.Issue(ctx, "a@example.com")
	require.NoError(t, err)
	second, _, err := m.Issue(ctx, "a@example.com")
	require.NoError(t, err)
	if first == second {
		t.Skip("random collision")
	}
	require.ErrorIs(t, m.Verify(ctx, "a@example.com", first), ErrInvalidOrExpired)
	require.NoError(t, m.Verify(ctx, "a@example.com", second))
}

func TestCheckDoesNotConsume(t *testing.T) {
	ctx := context.Background()
	m := newManager(FixedGenerator("4321"))
	_, _, err := m.Issue(ctx, "a@example.com")
	require.NoError(t, err)

	require.NoError(t, m.Check(ctx, "a@example.com", "4321"))
	require.NoError(t, m.Verify(ctx, "a@example.com", "4321"))
}

func TestConcurrentVerifyExactlyOnce(t *testing.T) {
	ctx := context.Background()
	m := newManager(FixedGenerator("1234"))
	_, _, err := m.Issue(ctx, "a@example.com")
	require.NoError(t, err)

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.Verify(ctx, "a@example.com", "1234") == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), wins)
}
