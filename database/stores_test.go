package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"coursehub/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := &config.Config{StoreDriver: "sqlite"}

	stores, err := Open(context.Background(), cfg, discardLogger())
	require.Error(t, err)
	assert.Nil(t, stores)
	assert.Contains(t, err.Error(), "sqlite")
}

func TestOpen_InvalidDatabaseURL(t *testing.T) {
	cfg := &config.Config{StoreDriver: config.StorePostgres, DatabaseURL: "::not a url::"}

	_, err := Open(context.Background(), cfg, discardLogger())
	assert.Error(t, err)
}

func TestConnectRedis_InvalidURL(t *testing.T) {
	cfg := &config.Config{RedisURL: "not-a-redis-url"}

	_, err := ConnectRedis(context.Background(), cfg, discardLogger())
	assert.Error(t, err)
}

func TestStores_CloseReverseOrder(t *testing.T) {
	var order []string
	boom := errors.New("boom")

	s := &Stores{closers: []func(context.Context) error{
		func(context.Context) error { order = append(order, "store"); return boom },
		func(context.Context) error { order = append(order, "cache"); return nil },
	}}

	err := s.Close(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"cache", "store"}, order)
}

func TestStores_Ping(t *testing.T) {
	t.Run("NoBackend", func(t *testing.T) {
		assert.NoError(t, (&Stores{}).Ping(context.Background()))
	})

	t.Run("Delegates", func(t *testing.T) {
		down := errors.New("down")
		s := &Stores{ping: func(context.Context) error { return down }}
		assert.ErrorIs(t, s.Ping(context.Background()), down)
	})
}
