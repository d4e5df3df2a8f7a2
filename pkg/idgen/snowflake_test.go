package idgen

import (
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	reads int
	// advanceAfter 读取次数达到该值后时钟前进 1ms（模拟自旋等待）
	advanceAfter int
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	if c.advanceAfter > 0 && c.reads >= c.advanceAfter {
		c.now = c.now.Add(time.Millisecond)
		c.advanceAfter = 0
	}
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func TestNewRejectsMachineIDOutOfRange(t *testing.T) {
	_, err := New(-1)
	assert.Error(t, err)
	_, err = New(MaxMachineID + 1)
	assert.Error(t, err)

	g, err := New(MaxMachineID)
	require.NoError(t, err)
	assert.NotNil(t, g)
}

func TestGenerateUniqueUnderConcurrency(t *testing.T) {
	g, err := New(7)
	require.NoError(t, err)

	const workers, perWorker = 16, 500
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]string, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				id, err := g.Generate()
				if !assert.NoError(t, err) {
					return
				}
				local = append(local, id)
			}
			mu.Lock()
			for _, id := range local {
				seen[id] = struct{}{}
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}

func TestGenerateIsMonotonic(t *testing.T) {
	g, err := New(1)
	require.NoError(t, err)

	var prev int64
	for i := 0; i < 10000; i++ {
		id, err := g.Next()
		require.NoError(t, err)
		require.Greater(t, id, prev)
		prev = id
	}
}

func TestLayout(t *testing.T) {
	at := Epoch.Add(1234 * time.Millisecond)
	g, err := New(5, WithClock(func() time.Time { return at }))
	require.NoError(t, err)

	id, err := g.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(1234), id>>timestampShift)
	assert.Equal(t, int64(5), (id>>machineShift)&MaxMachineID)
	assert.Equal(t, int64(0), id&maxSequence)

	s, err := g.Generate()
	require.NoError(t, err)
	n, err := strconv.ParseInt(s, 10, 64)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n&maxSequence)
}

func TestClockRollbackFails(t *testing.T) {
	clock := &fakeClock{now: Epoch.Add(time.Hour)}
	g, err := New(1, WithClock(clock.Now))
	require.NoError(t, err)

	_, err = g.Next()
	require.NoError(t, err)

	clock.Set(Epoch.Add(time.Hour - time.Second))
	_, err = g.Generate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrClockMovedBackwards))
}

func TestSequenceOverflowWaitsForNextMillisecond(t *testing.T) {
	start := Epoch.Add(time.Minute)
	clock := &fakeClock{now: start}
	g, err := New(3, WithClock(clock.Now))
	require.NoError(t, err)

	for i := 0; i <= maxSequence; i++ {
		id, err := g.Next()
		require.NoError(t, err)
		require.Equal(t, int64(i), id&maxSequence)
	}

	// 序号用尽后，第 maxSequence+2 次调用须等到时钟前进
	clock.mu.Lock()
	clock.advanceAfter = clock.reads + 3
	clock.mu.Unlock()

	id, err := g.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(0), id&maxSequence)
	assert.Equal(t, start.Sub(Epoch).Milliseconds()+1, id>>timestampShift)
}
