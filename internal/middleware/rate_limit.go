package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const transferRatePrefix = "rl:transfer:"

// TransferRateLimit caps transfer submissions per authenticated user in a
// fixed one-minute window held in Redis. Without Redis, or when Redis fails,
// requests pass through.
func TransferRateLimit(cache *redis.Client, maxPerMin int, logger *slog.Logger) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 10
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		subject, _ := c.Locals("user_id").(string)
		if subject == "" {
			subject = c.IP()
		}
		window := time.Now().UTC().Truncate(time.Minute).Unix()
		key := fmt.Sprintf("%s%s:%d", transferRatePrefix, subject, window)

		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			logger.Warn("transfer rate limit lookup failed", slog.String("user_id", subject), slog.Any("error", err))
			return c.Next()
		}
		if cnt == 1 {
			cache.Expire(c.UserContext(), key, time.Minute)
		}
		if cnt > int64(maxPerMin) {
			c.Set(fiber.HeaderRetryAfter, "60")
			return fiber.NewError(http.StatusTooManyRequests, "too many transfer requests, try again later")
		}
		return c.Next()
	}
}
