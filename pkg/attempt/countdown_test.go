package attempt

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCountdown(t *testing.T) {
	t.Run("fires once at zero", func(t *testing.T) {
		var fired int32
		cd := NewCountdown(3, func() { atomic.AddInt32(&fired, 1) })

		assert.Equal(t, 2, cd.Tick())
		assert.Equal(t, 1, cd.Tick())
		assert.Equal(t, 0, cd.Tick())
		assert.True(t, cd.Expired())

		for i := 0; i < 5; i++ {
			assert.Equal(t, 0, cd.Tick())
		}
		assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
	})

	t.Run("stop suppresses expiry", func(t *testing.T) {
		var fired int32
		cd := NewCountdown(1, func() { atomic.AddInt32(&fired, 1) })
		cd.Stop()

		assert.Equal(t, 1, cd.Tick())
		assert.False(t, cd.Expired())
		assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
	})

	t.Run("negative duration clamps to zero", func(t *testing.T) {
		cd := NewCountdown(-5, nil)
		assert.Equal(t, 0, cd.Remaining())
	})

	t.Run("real ticker", func(t *testing.T) {
		done := make(chan struct{})
		cd := NewCountdown(2, func() { close(done) })
		cd.Start(context.Background(), 5*time.Millisecond)

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("countdown did not expire")
		}
		assert.Equal(t, 0, cd.Remaining())
	})

	t.Run("context cancel halts ticker", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cd := NewCountdown(1000, nil)
		cd.Start(ctx, time.Millisecond)
		cancel()
		time.Sleep(20 * time.Millisecond)
		r := cd.Remaining()
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, r, cd.Remaining())
	})
}
