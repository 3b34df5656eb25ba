package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/venue-seat-layout/internal/config"
)

// tokenBucketScript refills continuously at ARGV[3] tokens per millisecond
// and takes one token if a whole one is available.  It returns
// {allowed, whole tokens left, ms until the next token}.
var tokenBucketScript = redis.NewScript(`
local capacity = tonumber(ARGV[2])
local per_ms = tonumber(ARGV[3])
local now = tonumber(ARGV[1])
local b = redis.call('HMGET', KEYS[1], 'level', 'at')
local level = tonumber(b[1]) or capacity
local at = tonumber(b[2]) or now
if now > at then
	level = math.min(capacity, level + (now - at) * per_ms)
end
local ok = 0
local wait = 0
if level >= 1 then
	ok = 1
	level = level - 1
else
	wait = math.ceil((1 - level) / per_ms)
end
redis.call('HSET', KEYS[1], 'level', tostring(level), 'at', now)
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return { ok, math.floor(level), wait }
`)

// NewTokenBucket limits requests per key with a Redis token bucket.  With
// the limiter disabled or no Redis client it is a pass-through, and Redis
// errors let the request through rather than failing it.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			interval := cfg.RefillInterval.Milliseconds()
			if interval < 1 {
				interval = 1
			}
			perMs := float64(cfg.RefillTokens) / float64(interval)
			args := []interface{}{
				time.Now().UnixMilli(),
				cfg.Capacity,
				strconv.FormatFloat(perMs, 'g', -1, 64),
				cfg.TTL.Milliseconds(),
			}
			vals, err := tokenBucketScript.Run(c.Request().Context(), rdb, []string{key}, args...).Int64Slice()
			if err != nil || len(vals) != 3 {
				if cfg.Debug {
					c.Logger().Warnf("[ratelimit] key=%s result=%v err=%v", key, vals, err)
				}
				return next(c)
			}
			allowed, remaining, retryMs := vals[0] == 1, vals[1], vals[2]

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if !allowed {
				secs := int(math.Ceil(float64(retryMs) / 1000.0))
				h.Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, map[string]any{
					"error":       "too_many_requests",
					"message":     "rate limit exceeded",
					"retry_after": secs,
				})
			}
			return next(c)
		}
	}
}

// buildRateKey joins the parts named by cfg.KeyStrategy, an underscore
// separated list of ip, user, role and route.  Unknown parts are skipped;
// a strategy naming none of them keys on user and route.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	key := []string{cfg.Prefix}
	for _, part := range strings.Split(strings.ToLower(cfg.KeyStrategy), "_") {
		if v, ok := ratePart(part, c); ok {
			key = append(key, part, v)
		}
	}
	if len(key) == 1 {
		key = append(key, "user", Editor(c), "route", c.Request().Method+" "+c.Path())
	}
	return strings.Join(key, ":")
}

func ratePart(part string, c echo.Context) (string, bool) {
	switch part {
	case "ip":
		if ip := c.RealIP(); ip != "" {
			return ip, true
		}
		return "unknown", true
	case "user":
		return Editor(c), true
	case "role":
		if r := Role(c); r != "" {
			return r, true
		}
		return Anonymous, true
	case "route":
		return c.Request().Method + " " + c.Path(), true
	}
	return "", false
}
