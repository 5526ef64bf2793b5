package store

import (
	"strconv"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisBackend_PutNewKey(t *testing.T) {
	db, mock := redismock.NewClientMock()
	b := &RedisBackend{client: db}

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectGet("k1").RedisNil()
	mock.Regexp().ExpectSet("k1", `.*`, time.Minute).SetVal("OK")

	ok, err := b.Put("k1", []byte(`"v1"`), time.Minute, now)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisBackend_PutOutOfOrderDropped(t *testing.T) {
	db, mock := redismock.NewClientMock()
	b := &RedisBackend{client: db}

	newer := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Minute)

	mock.ExpectGet("k1").SetVal(`{"value":"new","received_at_unix_ms":` + strconv.FormatInt(newer.UnixMilli(), 10) + `}`)

	ok, err := b.Put("k1", []byte(`"old"`), time.Minute, older)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisBackend_GetMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	b := &RedisBackend{client: db}

	mock.ExpectGet("missing").RedisNil()

	_, found, err := b.Get("missing")
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisBackend_GetError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	b := &RedisBackend{client: db}

	mock.ExpectGet("k1").SetErr(redis.TxFailedErr)

	_, _, err := b.Get("k1")
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
