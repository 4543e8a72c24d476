// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package geocoder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sony/gobreaker"
	"github.com/teamicebreaker/locator/resolver"
	"github.com/teamicebreaker/locator/utils/textutils"
)

// ChainConfig tunes the cache and the circuit breaker placed in front of
// the remote provider.
type ChainConfig struct {
	// CacheSize is the number of remote results kept in memory.
	CacheSize int
	// BreakerFailures consecutive remote failures open the breaker.
	BreakerFailures uint32
	// BreakerTimeout is how long the breaker stays open.
	BreakerTimeout time.Duration
}

// DefaultChainConfig returns the stock chain configuration.
func DefaultChainConfig() ChainConfig {
	return ChainConfig{
		CacheSize:       1024,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

// Chain geocodes with the gazetteer first and asks the remote provider only
// for answers the gazetteer could not place confidently. A failing remote
// never fails the chain: the gazetteer answer is returned instead.
type Chain struct {
	static  *Static
	remote  Geocoder
	cache   *lru.Cache[string, *Result]
	breaker *gobreaker.CircuitBreaker
}

// NewChain builds a chain. remote may be nil, in which case the chain only
// uses the gazetteer.
func NewChain(static *Static, remote Geocoder, cfg ChainConfig) (*Chain, error) {
	if static == nil {
		return nil, errors.New("geocoder: static geocoder is required")
	}

	c := &Chain{static: static, remote: remote}
	if remote == nil {
		return c, nil
	}

	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultChainConfig().CacheSize
	}

	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = DefaultChainConfig().BreakerFailures
	}

	cache, err := lru.New[string, *Result](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating geocoding cache: %w", err)
	}

	c.cache = cache
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "remote-geocoder",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		// Unknown places are answers, not provider failures.
		IsSuccessful: func(err error) bool {
			return err == nil || IsNotFoundError(err) || IsInvalidRequestError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("⚠️ circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return c, nil
}

// needsRemote reports whether a gazetteer answer is worth a remote lookup.
func needsRemote(r *Result) bool {
	switch r.MatchType {
	case resolver.MatchTypeCountryFallback, resolver.MatchTypeDefaultFallback, resolver.MatchTypePostalCode:
		return true
	default:
		return r.Confidence == resolver.ConfidenceLow
	}
}

func cacheKey(location, country string) string {
	return resolver.Normalize(strings.TrimSpace(location)) + "|" + textutils.LowerASCIIFolding(country)
}

// Geocode implements Geocoder.
func (c *Chain) Geocode(ctx context.Context, location, country string) (*Result, error) {
	res, err := c.static.Geocode(ctx, location, country)
	if err != nil {
		return nil, err
	}

	if c.remote == nil || !needsRemote(res) {
		return res, nil
	}

	key := cacheKey(location, country)
	if cached, ok := c.cache.Get(key); ok {
		return cached, nil
	}

	out, err := c.breaker.Execute(func() (any, error) {
		return c.remote.Geocode(ctx, location, country)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}

		if !IsNotFoundError(err) && !errors.Is(err, gobreaker.ErrOpenState) && !errors.Is(err, gobreaker.ErrTooManyRequests) {
			log.Printf("⚠️ Remote geocoding of %q failed, keeping %s match: %v", location, res.MatchType, err)
		}

		return res, nil
	}

	remote, ok := out.(*Result)
	if !ok || remote == nil {
		return res, nil
	}

	c.cache.Add(key, remote)

	return remote, nil
}
