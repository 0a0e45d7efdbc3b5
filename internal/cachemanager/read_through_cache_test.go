package cachemanager

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type renderInput struct {
	ID int
}

func renderKey(in renderInput) string {
	return "render:" + strconv.Itoa(in.ID)
}

func newCountingCache(skip bool) (*ReadThroughCache[string, string, renderInput], *int) {
	calls := 0
	manager := NewInMemoryCacheManager[string, string]("test", DefaultExpiration, DefaultCleanupInterval)
	rt := NewReadThroughCache[string, string, renderInput](
		manager,
		renderKey,
		func(ctx context.Context, input renderInput) (string, error) {
			calls++
			return "svg-" + strconv.Itoa(input.ID), nil
		},
		skip,
	)
	return rt, &calls
}

func TestReadThroughCache_Get_WithCacheDisabled(t *testing.T) {
	rt, calls := newCountingCache(true)

	for range 3 {
		got, err := rt.Get(context.Background(), renderInput{ID: 1}, time.Minute)
		require.NoError(t, err)
		require.Equal(t, "svg-1", got)
	}
	require.Equal(t, 3, *calls)
}

func TestReadThroughCache_Get_ComputesOnce(t *testing.T) {
	rt, calls := newCountingCache(false)

	for range 3 {
		got, err := rt.Get(context.Background(), renderInput{ID: 7}, time.Minute)
		require.NoError(t, err)
		require.Equal(t, "svg-7", got)
	}
	require.Equal(t, 1, *calls)

	_, err := rt.Get(context.Background(), renderInput{ID: 8}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2, *calls)
}

func TestReadThroughCache_GetWithRefresh(t *testing.T) {
	rt, calls := newCountingCache(false)

	for range 2 {
		got, err := rt.GetWithRefresh(context.Background(), renderInput{ID: 2}, time.Minute)
		require.NoError(t, err)
		require.Equal(t, "svg-2", got)
	}
	require.Equal(t, 1, *calls)
}

func TestReadThroughCache_ErrorNotCached(t *testing.T) {
	manager := NewInMemoryCacheManager[string, string]("test", DefaultExpiration, DefaultCleanupInterval)
	boom := errors.New("boom")
	calls := 0
	rt := NewReadThroughCache[string, string, renderInput](
		manager,
		renderKey,
		func(ctx context.Context, input renderInput) (string, error) {
			calls++
			return "", boom
		},
		false,
	)

	_, err := rt.Get(context.Background(), renderInput{ID: 1}, time.Minute)
	require.ErrorIs(t, err, boom)
	_, err = rt.Get(context.Background(), renderInput{ID: 1}, time.Minute)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 2, calls)

	_, ok := manager.Get(context.Background(), "render:1")
	require.False(t, ok)
}
