package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrNoRateLimitStore redis 未配置
var ErrNoRateLimitStore = errors.New("redis client is nil")

// CheckRateLimit checks if a resource has exceeded its rate limit.
// Returns true if allowed, false if limit exceeded.
func CheckRateLimit(ctx context.Context, rdb redis.Cmdable, resource, id string, limit int, window time.Duration) (bool, error) {
	if rdb == nil {
		return false, ErrNoRateLimitStore
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	// INCR and set EXPIRE if new
	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, fmt.Errorf("set rate limit window: %w", err)
		}
	}
	if cnt <= int64(limit) {
		return true, nil
	}

	// 超限的 key 没有过期时间（EXPIRE 曾失败）时补上，否则会永久封禁
	ttl, err := rdb.TTL(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if ttl < 0 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, fmt.Errorf("set rate limit window: %w", err)
		}
	}
	return false, nil
}

// RateLimiter 按客户端 IP 限制公开写接口。redis 不可用时放行
type RateLimiter struct {
	rdb     redis.Cmdable
	enabled bool
	log     *zap.Logger
}

func NewRateLimiter(rdb redis.Cmdable, enabled bool, log *zap.Logger) *RateLimiter {
	return &RateLimiter{rdb: rdb, enabled: enabled, log: log}
}

// Limit returns a gin middleware enforcing `limit` requests per `window` for resource.
func (l *RateLimiter) Limit(resource string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.enabled || l.rdb == nil {
			c.Next()
			return
		}

		allowed, err := CheckRateLimit(c.Request.Context(), l.rdb, resource, "ip:"+c.ClientIP(), limit, window)
		if err != nil {
			l.log.Warn("rate limit check failed, allowing request",
				zap.String("resource", resource),
				zap.Error(err),
			)
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
