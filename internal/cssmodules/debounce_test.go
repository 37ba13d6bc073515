package icm

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerCoalesces(t *testing.T) {
	var calls atomic.Int32
	d := newDebouncer(30*time.Millisecond, func() { calls.Add(1) })

	for range 5 {
		d.trigger()
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDebouncerCancel(t *testing.T) {
	var calls atomic.Int32
	d := newDebouncer(20*time.Millisecond, func() { calls.Add(1) })

	assert.False(t, d.cancel(), "nothing pending")
	d.trigger()
	assert.True(t, d.cancel())

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestEventBatcher(t *testing.T) {
	var (
		mu      sync.Mutex
		batches [][]int
	)
	b := newEventBatcher(20*time.Millisecond, func(batch []int) {
		mu.Lock()
		batches = append(batches, batch)
		mu.Unlock()
	})

	b.add(1)
	b.add(2)
	b.add(3)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(batches) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, [][]int{{1, 2, 3}}, batches)
}
