package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharemeal/sharemeal-backend/pkg/config"
)

func TestSetNXOnlyFirstWriterWins(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	ok, err := client.SetNX(ctx, client.LockKey("guard"), "owner-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.SetNX(ctx, client.LockKey("guard"), "owner-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	owner, err := client.Get(ctx, client.LockKey("guard"))
	require.NoError(t, err)
	assert.Equal(t, "owner-a", owner)

	require.NoError(t, client.Del(ctx, client.LockKey("guard")))
	_, err = client.Get(ctx, client.LockKey("guard"))
	assert.ErrorIs(t, err, redis.Nil)
}

func TestHeartbeatRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	_, ok, err := client.LastHeartbeat(ctx, "guard")
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, client.RecordHeartbeat(ctx, "guard", at, time.Hour))

	got, ok, err := client.LastHeartbeat(ctx, "guard")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, at.Equal(got))
}

func TestIncrWithTTLSetsExpiryOnce(t *testing.T) {
	ctx := context.Background()
	store := newMockCmdable()
	client := &Client{store: store}
	key := client.RateLimitKey("ip:1.2.3.4")

	count, err := client.IncrWithTTL(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, time.Minute, store.ttls[key])

	store.ttls[key] = 0
	count, err = client.IncrWithTTL(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Zero(t, store.ttls[key])
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "sharemeal:rl:ip:1.2.3.4", client.RateLimitKey("ip:1.2.3.4"))
	assert.Equal(t, "sharemeal:lock:guard-sweep", client.LockKey("guard-sweep"))
	assert.Equal(t, "sharemeal:heartbeat:guard", client.HeartbeatKey(" guard "))
	assert.Equal(t, "sharemeal:lock", client.LockKey(""))
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	require.Error(t, client.Ping(context.Background()))
	_, err := client.SetNX(context.Background(), "k", "v", time.Second)
	require.Error(t, err)
	require.NoError(t, client.Close())
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	require.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7, DialTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, time.Second, opts.DialTimeout)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 3})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 3, opts.DB)
}

type mockCmdable struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	var n int64
	fmt.Sscan(m.data[key], &n)
	n++
	m.data[key] = fmt.Sprint(n)
	return redis.NewIntResult(n, nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
