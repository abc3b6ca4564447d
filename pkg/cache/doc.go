// Package cache remembers column probe verdicts in Redis.
//
// Negotiating a schema costs one scan request per desired column, and the set
// of columns the endpoint supports changes rarely. Caching the verdict for
// each probed column list lets repeated runs negotiate without touching the
// endpoint, while a TTL bounds how long a stale verdict can survive.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient)
//	prober := cache.NewCachingProber(scanClient, manager, scanClient.Endpoint(), 24*time.Hour)
//
//	validator := schema.NewValidator(prober, schema.DefaultConfig())
//
// Only verdicts are cached. Transport failures are never stored, and a Redis
// failure degrades to probing the endpoint directly.
//
// # Metrics
//
//   - scan_probe_cache_hits_total - verdicts served from Redis
//   - scan_probe_cache_misses_total - probes sent to the endpoint
//   - scan_probe_cache_errors_total{operation} - Redis failures by operation
package cache
