package ephemeral

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkerCheckWithoutRequest(t *testing.T) {
	t.Parallel()

	s := New(time.Minute)
	assert.False(t, s.CheckRequested("7", 1, true))
}

func TestMarkerConsumedOnce(t *testing.T) {
	t.Parallel()

	s := New(time.Minute)
	s.MarkRequested("7", 1, time.Minute)

	assert.True(t, s.CheckRequested("7", 1, true))
	assert.False(t, s.CheckRequested("7", 1, true), "consumed marker must not be seen again")
}

func TestMarkerSurvivesWhenNotConsumed(t *testing.T) {
	t.Parallel()

	s := New(time.Minute)
	s.MarkRequested("192.0.2.1", 1, time.Minute)

	assert.True(t, s.CheckRequested("192.0.2.1", 1, false))
	assert.True(t, s.CheckRequested("192.0.2.1", 1, false))
}

func TestMarkerScopedToContributorAndTask(t *testing.T) {
	t.Parallel()

	s := New(time.Minute)
	s.MarkRequested("7", 1, time.Minute)

	assert.False(t, s.CheckRequested("8", 1, true))
	assert.False(t, s.CheckRequested("7", 2, true))
	assert.True(t, s.CheckRequested("7", 1, true))
}

func TestMarkerExpires(t *testing.T) {
	t.Parallel()

	s := New(time.Minute)
	s.MarkRequested("7", 1, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.False(t, s.CheckRequested("7", 1, true))
}

func TestMarkerConsumeIsAtomic(t *testing.T) {
	t.Parallel()

	s := New(time.Minute)
	s.MarkRequested("7", 1, time.Minute)

	const goroutines = 32
	var wg sync.WaitGroup
	results := make(chan bool, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.CheckRequested("7", 1, true)
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for ok := range results {
		if ok {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "exactly one concurrent consumer may win")
}

func TestHitCountsDownAndBlocks(t *testing.T) {
	t.Parallel()

	s := New(time.Minute)

	remaining, _, allowed := s.Hit("client", 3, time.Minute)
	require.True(t, allowed)
	assert.Equal(t, 2, remaining)

	_, _, allowed = s.Hit("client", 3, time.Minute)
	require.True(t, allowed)
	remaining, reset, allowed := s.Hit("client", 3, time.Minute)
	require.True(t, allowed)
	assert.Equal(t, 0, remaining)
	assert.True(t, reset.After(time.Now()))

	remaining, _, allowed = s.Hit("client", 3, time.Minute)
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)
}

func TestHitWindowsArePerKey(t *testing.T) {
	t.Parallel()

	s := New(time.Minute)
	_, _, _ = s.Hit("a", 1, time.Minute)
	_, _, allowed := s.Hit("a", 1, time.Minute)
	assert.False(t, allowed)

	_, _, allowed = s.Hit("b", 1, time.Minute)
	assert.True(t, allowed)
}

func TestHitWindowResets(t *testing.T) {
	t.Parallel()

	s := New(time.Minute)
	_, _, _ = s.Hit("client", 1, 10*time.Millisecond)
	_, _, allowed := s.Hit("client", 1, 10*time.Millisecond)
	require.False(t, allowed)

	time.Sleep(30 * time.Millisecond)
	_, _, allowed = s.Hit("client", 1, 10*time.Millisecond)
	assert.True(t, allowed)
}
