package insights

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// cacheKeyVersion changes whenever the prompt or schema changes so stale
// answers are never served for a different contract.
const cacheKeyVersion = "v1"

// Cache stores successful responses in Redis keyed by model and request.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper. A nil client or non-positive ttl
// yields a nil Cache, which disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if client == nil || ttl <= 0 {
		return nil
	}
	return &Cache{client: client, ttl: ttl}
}

// BuildKey derives the cache key for req under model.
func (c *Cache) BuildKey(model string, req Request) (string, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return strings.Join([]string{"insights", cacheKeyVersion, model, hex.EncodeToString(sum[:])}, ":"), nil
}

// Get loads a cached response. The boolean is false on a miss.
func (c *Cache) Get(ctx context.Context, key string) (Response, bool, error) {
	if c == nil || c.client == nil {
		return Response{}, false, nil
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Response{}, false, nil
	}
	if err != nil {
		return Response{}, false, err
	}
	resp, problems := ParseResponse(string(payload))
	if resp.IsEmpty() {
		return Response{}, false, fmt.Errorf("insights: unreadable cache entry %s: %s", key, strings.Join(problems, "; "))
	}
	return resp, true, nil
}

// Set stores resp under key with the configured ttl.
func (c *Cache) Set(ctx context.Context, key string, resp Response) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}
