package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	require.False(t, Enabled())
	ctx := context.Background()

	SetCached(ctx, "balance:x:all", []byte("1"), time.Minute)
	_, ok := GetCached(ctx, "balance:x:all")
	assert.False(t, ok)

	var v map[string]string
	assert.False(t, GetJSON(ctx, "k", &v))

	InvalidateBalances(ctx, "x")
	InvalidateKeys(ctx, "a", "b")
	assert.NoError(t, Publish(ctx, EventsChannel, []byte("{}")))
	assert.False(t, IsHealthy())
	assert.NoError(t, Close())
}

func TestObtainWithoutRedisSucceeds(t *testing.T) {
	lock, err := Obtain(context.Background(), "lock:test", time.Second)
	require.NoError(t, err)
	assert.NoError(t, lock.Release(context.Background()))
}

func TestInitRequiresAddress(t *testing.T) {
	assert.Error(t, Init("", "", 0))
	assert.False(t, Enabled())
}
