package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[string, int](2, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)
	_, _ = c.Get("a")
	c.Add("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b was least recently used")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Len())
}

func TestLRUExpiry(t *testing.T) {
	clk := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRU[int, string](10, time.Minute)
	c.now = clk.now

	c.Add(1, "one")
	c.Add(2, "two")
	clk.t = clk.t.Add(30 * time.Second)
	c.Add(2, "two again")
	clk.t = clk.t.Add(45 * time.Second)

	_, ok := c.Get(1)
	assert.False(t, ok)
	assert.Zero(t, c.CleanExpired())
	assert.Equal(t, 1, c.Len(), "only the refreshed entry survives")
	v, ok := c.Get(2)
	assert.True(t, ok)
	assert.Equal(t, "two again", v)

	c.Remove(2)
	assert.Zero(t, c.Len())
}

func TestRunCleanupStopsWithContext(t *testing.T) {
	clk := &clock{t: time.Now()}
	c := NewLRU[int, int](10, time.Millisecond)
	c.now = clk.now
	c.Add(1, 1)
	clk.t = clk.t.Add(time.Second)

	var cleaned atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunCleanup(ctx, 5*time.Millisecond, func(n int) { cleaned.Add(int64(n)) }, c)
		close(done)
	}()

	assert.Eventually(t, func() bool { return cleaned.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.Zero(t, c.Len())
}
