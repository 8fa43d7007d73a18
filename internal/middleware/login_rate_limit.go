package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const (
	loginRateKeyPrefix = "rl:login:"
	maxLocalLimiters   = 1024
)

// LoginRateLimit limits login attempts per login key or IP. Redis counters are
// used when available; otherwise an in-process token bucket applies.
func LoginRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	local := newLocalLimiter(maxPerMin)
	return func(c *fiber.Ctx) error {
		key := loginRateKey(c)
		if cache == nil {
			if !local.allow(key) {
				return tooManyLogins()
			}
			return c.Next()
		}
		cnt, err := cache.Incr(c.UserContext(), loginRateKeyPrefix+key).Result()
		if err == nil && cnt == 1 {
			cache.Expire(c.UserContext(), loginRateKeyPrefix+key, time.Minute)
		}
		if err != nil {
			return c.Next() // fail-open on cache errors
		}
		if cnt > int64(maxPerMin) {
			return tooManyLogins()
		}
		return c.Next()
	}
}

func loginRateKey(c *fiber.Ctx) string {
	var req struct {
		Email string `json:"email"`
	}
	_ = c.BodyParser(&req)
	if key := strings.TrimSpace(req.Email); key != "" {
		return key
	}
	return c.IP()
}

func tooManyLogins() error {
	return fiber.NewError(http.StatusTooManyRequests, "too many login attempts, try again later")
}

type localLimiter struct {
	mu      sync.Mutex
	perMin  int
	buckets map[string]*rate.Limiter
}

func newLocalLimiter(perMin int) *localLimiter {
	return &localLimiter{perMin: perMin, buckets: make(map[string]*rate.Limiter)}
}

func (l *localLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= maxLocalLimiters {
			l.buckets = make(map[string]*rate.Limiter)
		}
		lim = rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMin)), l.perMin)
		l.buckets[key] = lim
	}
	return lim.Allow()
}
