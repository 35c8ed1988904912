// Package rediscache fronts the classification engine's per-scan output
// with a shared Redis cache, so identical scans issued by different
// server instances don't recompute a ScanReport from scratch.
package rediscache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/apicrafter/metacrafter/classifier/engine"
)

// ReportCache wraps a go-redis client with the get/set pair the scan
// surface needs; it never holds a scan's records, only the report.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to addr (host:port). An empty addr means caching is
// disabled; callers still get a usable, always-miss ReportCache back
// rather than needing a separate nil check at every call site.
func New(addr string, ttl time.Duration) *ReportCache {
	if addr == "" {
		return &ReportCache{ttl: ttl}
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return &ReportCache{client: client, ttl: ttl}
}

// Key derives a stable cache key from the scan's inputs: the raw record
// payload and the option set that would affect its output.
func Key(payload []byte, optsFingerprint string) string {
	h := sha256.Sum256(append(payload, []byte(optsFingerprint)...))
	return "metacrafter:scan:" + hex.EncodeToString(h[:])
}

// Get returns a cached report for key, or (nil, false) on a miss or a
// disabled cache. A Redis error is treated as a miss: caching is an
// optimization, never a correctness requirement for the scan surface.
func (c *ReportCache) Get(ctx context.Context, key string) (*engine.ScanReport, bool) {
	if c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var report engine.ScanReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, false
	}
	return &report, true
}

// Set stores report under key with the cache's configured TTL. Errors
// are swallowed for the same reason Get treats them as a miss.
func (c *ReportCache) Set(ctx context.Context, key string, report *engine.ScanReport) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, raw, c.ttl).Err()
}

// Close releases the underlying Redis connection pool, if any.
func (c *ReportCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
