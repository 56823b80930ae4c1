package event

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTryWaitOnFreshEventIsFalse(t *testing.T) {
	b := NewBinary()
	assert.False(t, b.TryWait())
}

func TestPostThenTryWaitSucceedsOnce(t *testing.T) {
	b := NewBinary()
	b.Post()
	assert.True(t, b.TryWait())
	assert.False(t, b.TryWait(), "a single Post should satisfy only one Wait")
}

// TestCoalescing checks that five Posts collapse into a single pending
// signal: one Wait consumes it, and a second Wait blocks.
func TestCoalescing(t *testing.T) {
	b := NewBinary()
	for i := 0; i < 5; i++ {
		b.Post()
	}

	done := make(chan struct{})
	go func() {
		b.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return promptly after coalesced Posts")
	}

	assert.False(t, b.TryWait(), "coalesced posts must not satisfy a second Wait")
}

func TestWaitBlocksUntilPost(t *testing.T) {
	b := NewBinary()
	woke := make(chan struct{})

	go func() {
		b.Wait()
		close(woke)
	}()

	select {
	case <-woke:
		t.Fatal("Wait returned before any Post")
	case <-time.After(50 * time.Millisecond):
	}

	b.Post()

	select {
	case <-woke:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Post")
	}
}

func TestConcurrentPostersSingleWaiter(t *testing.T) {
	b := NewBinary()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Post()
		}()
	}
	wg.Wait()

	done := make(chan struct{})
	go func() {
		b.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait never observed any of the concurrent Posts")
	}
}
