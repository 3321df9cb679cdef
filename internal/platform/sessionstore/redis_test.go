package sessionstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"algo_tracker/internal/common"
	"algo_tracker/internal/domain/model"
)

func newStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb, ttl), mr
}

func TestRedisStoreSaveGetDelete(t *testing.T) {
	store, mr := newStore(t, time.Hour)
	ctx := context.Background()

	sess := &model.Session{ID: "abc", UserID: 7, Email: "jane@example.com", Nonce: "n-1", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.Save(ctx, sess))
	assert.True(t, mr.Exists("session:abc"))
	assert.Equal(t, time.Hour, mr.TTL("session:abc"))

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, "jane@example.com", got.Email)
	assert.Equal(t, "n-1", got.Nonce)

	require.NoError(t, store.Delete(ctx, "abc"))
	_, err = store.Get(ctx, "abc")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRedisStoreExpiry(t *testing.T) {
	store, mr := newStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &model.Session{ID: "short"}))
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "short")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	log, _ := test.NewNullLogger()

	rdb, err := Connect(context.Background(), mr.Addr(), "", 0, log)
	require.NoError(t, err)
	rdb.Close()

	mr.Close()
	_, err = Connect(context.Background(), mr.Addr(), "", 0, logrus.New())
	assert.Error(t, err)
}
