package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock_StartsAtEpoch(t *testing.T) {
	clock := NewFakeClock()
	assert.Equal(t, Epoch, clock.Peek())
	assert.Equal(t, Epoch, clock.Now())
}

func TestFakeClock_AdvancesPerReading(t *testing.T) {
	clock := NewFakeClock()

	assert.Equal(t, Epoch, clock.Now())
	assert.Equal(t, Epoch.Add(time.Second), clock.Now())
	assert.Equal(t, Epoch.Add(2*time.Second), clock.Peek())

	clock.SetStep(time.Minute)
	clock.Now()
	assert.Equal(t, Epoch.Add(2*time.Second+time.Minute), clock.Peek())
}

func TestFakeClock_Reset(t *testing.T) {
	clock := NewFakeClock()
	clock.Now()
	clock.Now()

	clock.Reset()
	assert.Equal(t, Epoch, clock.Now())
}

func TestFakeClock_ConcurrentReadingsAreDistinct(t *testing.T) {
	clock := NewFakeClock()
	const workers = 10
	const readings = 100

	var mu sync.Mutex
	seen := make(map[time.Time]bool)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range readings {
				now := clock.Now()
				mu.Lock()
				seen[now] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*readings)
	assert.Equal(t, Epoch.Add(workers*readings*time.Second), clock.Peek())
}

func TestFixedIDs(t *testing.T) {
	ids := NewFixedIDs("019a0000-0000-7000-8000-000000000001", "019a0000-0000-7000-8000-000000000002")

	assert.Equal(t, "019a0000-0000-7000-8000-000000000001", ids.NewID())
	assert.Equal(t, "019a0000-0000-7000-8000-000000000002", ids.NewID())
	assert.Equal(t, "run-3", ids.NewID())
	assert.Equal(t, "run-4", ids.NewID())
}
