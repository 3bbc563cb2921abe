package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryLockWithoutClientDegrades(t *testing.T) {
	lock, ok, err := TryLock(context.Background(), nil, "refund:lock:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "refund:lock:1", lock.Key())
	assert.NoError(t, lock.Unlock(context.Background()))
}

func TestUnlockNilLock(t *testing.T) {
	var l *Lock
	assert.NoError(t, l.Unlock(context.Background()))
}
