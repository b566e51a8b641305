// Package cache provides a Redis-backed read-through decorator for
// records.Store. Results are stored as JSON under a key derived from the
// record kind and the filter, with a fixed TTL. Redis failures are logged
// and the call falls through to the wrapped store, so a cache outage never
// fails a query.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-dealer-assistant/internal/domain"
	"github.com/tbourn/go-dealer-assistant/internal/records"
)

// DefaultPrefix namespaces all keys written by Records.
const DefaultPrefix = "dealerassist:records:"

// Records wraps a records.Store with cache-aside reads.
type Records struct {
	Next   records.Store
	Client redis.UniversalClient
	TTL    time.Duration
	Prefix string
}

var _ records.Store = (*Records)(nil)

// NewRecords returns a decorator over next. A non-positive ttl disables
// writes (reads still hit whatever is already cached).
func NewRecords(next records.Store, client redis.UniversalClient, ttl time.Duration) *Records {
	return &Records{Next: next, Client: client, TTL: ttl, Prefix: DefaultPrefix}
}

// NewClient opens a Redis client with conservative timeouts.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

// Key returns the cache key used for kind and f.
func (r *Records) Key(kind records.Kind, f records.Filter) string {
	return r.Prefix + string(kind) + ":" + f.Key()
}

// SearchSKUs implements records.Store, reading through the cache.
func (r *Records) SearchSKUs(ctx context.Context, f records.Filter) ([]domain.SKU, error) {
	return through(ctx, r, records.KindSKU, f, r.Next.SearchSKUs)
}

// SearchClaims implements records.Store.
func (r *Records) SearchClaims(ctx context.Context, f records.Filter) ([]domain.Claim, error) {
	return through(ctx, r, records.KindClaim, f, r.Next.SearchClaims)
}

// SearchSales implements records.Store.
func (r *Records) SearchSales(ctx context.Context, f records.Filter) ([]domain.Sale, error) {
	return through(ctx, r, records.KindSale, f, r.Next.SearchSales)
}

// SearchDealers implements records.Store.
func (r *Records) SearchDealers(ctx context.Context, f records.Filter) ([]domain.Dealer, error) {
	return through(ctx, r, records.KindDealer, f, r.Next.SearchDealers)
}

// Flush drops every key under the prefix. App.Seed calls it after inserting
// records.
func (r *Records) Flush(ctx context.Context) error {
	iter := r.Client.Scan(ctx, 0, r.Prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.Client.Del(ctx, keys...).Err()
}

func through[T any](ctx context.Context, r *Records, kind records.Kind, f records.Filter, load func(context.Context, records.Filter) ([]T, error)) ([]T, error) {
	key := r.Key(kind, f)
	lg := zerolog.Ctx(ctx)

	raw, err := r.Client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var out []T
		if jerr := json.Unmarshal(raw, &out); jerr == nil {
			lg.Debug().Str("key", key).Msg("records cache hit")
			return out, nil
		}
		lg.Warn().Str("key", key).Msg("records cache: undecodable entry, reloading")
	case !errors.Is(err, redis.Nil):
		lg.Warn().Err(err).Str("key", key).Msg("records cache: get failed")
	}

	out, err := load(ctx, f)
	if err != nil {
		return nil, err
	}
	if r.TTL <= 0 {
		return out, nil
	}
	data, err := json.Marshal(out)
	if err != nil {
		return out, nil
	}
	if err := r.Client.Set(ctx, key, data, r.TTL).Err(); err != nil {
		lg.Warn().Err(err).Str("key", key).Msg("records cache: set failed")
	}
	return out, nil
}
