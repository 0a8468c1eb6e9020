package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockerWithoutRedis(t *testing.T) {
	for _, l := range []*Locker{nil, NewLocker(nil, "studysync:lock:")} {
		unlock, err := l.Acquire(context.Background(), "attempt-1", time.Second)
		require.NoError(t, err)
		assert.NotPanics(t, unlock)
	}
}
