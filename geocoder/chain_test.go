// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package geocoder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teamicebreaker/locator/resolver"
	"github.com/teamicebreaker/locator/spatial"
)

// fakeRemote is a scripted remote provider.
type fakeRemote struct {
	mu     sync.Mutex
	calls  []string
	result *Result
	err    error
}

func (f *fakeRemote) Geocode(_ context.Context, location, _ string) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, location)

	if f.err != nil {
		return nil, f.err
	}

	return f.result, nil
}

func (f *fakeRemote) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.calls)
}

var tromso = &Result{
	Point:       spatial.Point{Lat: 69.6492, Lng: 18.9553},
	Confidence:  resolver.ConfidenceMedium,
	Provider:    ProviderGoogleMaps,
	DisplayName: "Tromsø, Norway",
	MatchType:   MatchTypeRemote,
}

func TestChainWithoutRemote(t *testing.T) {
	c, err := NewChain(newTestStatic(t), nil, DefaultChainConfig())
	require.NoError(t, err)

	got, err := c.Geocode(context.Background(), "Tromsø", "")
	require.NoError(t, err)
	assert.Equal(t, resolver.MatchTypeDefaultFallback, got.MatchType)
}

func TestNewChainRequiresStatic(t *testing.T) {
	_, err := NewChain(nil, &fakeRemote{}, DefaultChainConfig())
	require.Error(t, err)
}

func TestChainSkipsRemoteForConfidentMatches(t *testing.T) {
	remote := &fakeRemote{result: tromso}
	c, err := NewChain(newTestStatic(t), remote, DefaultChainConfig())
	require.NoError(t, err)

	got, err := c.Geocode(context.Background(), "Berlin", "")
	require.NoError(t, err)
	assert.Equal(t, ProviderGazetteer, got.Provider)
	assert.Equal(t, 0, remote.callCount())
}

func TestChainUsesRemoteForFallbacks(t *testing.T) {
	remote := &fakeRemote{result: tromso}
	c, err := NewChain(newTestStatic(t), remote, DefaultChainConfig())
	require.NoError(t, err)

	for range 3 {
		got, err := c.Geocode(context.Background(), "Tromsø", "")
		require.NoError(t, err)
		assert.Equal(t, tromso, got)
	}

	// Cached after the first call, including differently spelled queries.
	_, err = c.Geocode(context.Background(), " TROMSO ", "")
	require.NoError(t, err)
	assert.Equal(t, 1, remote.callCount())

	_, err = c.Geocode(context.Background(), "10115", "")
	require.NoError(t, err)
	assert.Equal(t, 2, remote.callCount())
}

func TestChainKeepsStaticResultOnRemoteFailure(t *testing.T) {
	remote := &fakeRemote{err: &GeocodingError{Type: ErrorTypeNetworkError, Message: "down"}}
	c, err := NewChain(newTestStatic(t), remote, ChainConfig{CacheSize: 8, BreakerFailures: 2, BreakerTimeout: time.Minute})
	require.NoError(t, err)

	for range 5 {
		got, err := c.Geocode(context.Background(), "Qwxyz", "")
		require.NoError(t, err)
		assert.Equal(t, ProviderGazetteer, got.Provider)
		assert.Equal(t, resolver.MatchTypeDefaultFallback, got.MatchType)
	}

	// The breaker opened after two failures.
	assert.Equal(t, 2, remote.callCount())
}

func TestChainNotFoundDoesNotTripBreaker(t *testing.T) {
	remote := &fakeRemote{err: &GeocodingError{Type: ErrorTypeNotFound, Message: "zero results"}}
	c, err := NewChain(newTestStatic(t), remote, ChainConfig{CacheSize: 8, BreakerFailures: 2, BreakerTimeout: time.Minute})
	require.NoError(t, err)

	for range 4 {
		got, err := c.Geocode(context.Background(), "Qwxyz", "")
		require.NoError(t, err)
		assert.Equal(t, ProviderGazetteer, got.Provider)
	}

	assert.Equal(t, 4, remote.callCount())
}

func TestChainPropagatesCancellation(t *testing.T) {
	remote := &fakeRemote{err: &GeocodingError{Type: ErrorTypeNetworkError, Err: context.Canceled}}
	c, err := NewChain(newTestStatic(t), remote, DefaultChainConfig())
	require.NoError(t, err)

	_, err = c.Geocode(context.Background(), "Qwxyz", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestChainBlankLocation(t *testing.T) {
	remote := &fakeRemote{result: tromso}
	c, err := NewChain(newTestStatic(t), remote, DefaultChainConfig())
	require.NoError(t, err)

	_, err = c.Geocode(context.Background(), "", "")
	assert.True(t, IsInvalidRequestError(err))
	assert.Equal(t, 0, remote.callCount())
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, cacheKey("zurich", "osterreich"), cacheKey(" Zürich! ", " Österreich "))
	assert.NotEqual(t, cacheKey("paris", "France"), cacheKey("paris", "USA"))
}
