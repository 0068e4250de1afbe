package clock_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekit/pkg/clock"
)

func TestSystem(t *testing.T) {
	t.Parallel()

	before := time.Now()
	got := clock.System{}.Now()
	after := time.Now()

	require.False(t, got.Before(before))
	require.False(t, got.After(after))
}

func TestFake(t *testing.T) {
	t.Parallel()

	t.Run("frozen until advanced", func(t *testing.T) {
		t.Parallel()
		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		clk := clock.NewFake(start)

		assert.Equal(t, start, clk.Now())
		assert.Equal(t, start, clk.Now())

		clk.Advance(90 * time.Second)
		assert.Equal(t, start.Add(90*time.Second), clk.Now())
	})

	t.Run("negative advance is ignored", func(t *testing.T) {
		t.Parallel()
		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		clk := clock.NewFake(start)

		clk.Advance(-time.Hour)
		assert.Equal(t, start, clk.Now())
	})

	t.Run("set never moves backwards", func(t *testing.T) {
		t.Parallel()
		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		clk := clock.NewFake(start)

		clk.Set(start.Add(time.Hour))
		assert.Equal(t, start.Add(time.Hour), clk.Now())

		clk.Set(start)
		assert.Equal(t, start.Add(time.Hour), clk.Now())
	})

	t.Run("concurrent advance", func(t *testing.T) {
		t.Parallel()
		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		clk := clock.NewFake(start)

		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				clk.Advance(time.Second)
				_ = clk.Now()
			}()
		}
		wg.Wait()

		assert.Equal(t, start.Add(100*time.Second), clk.Now())
	})
}
