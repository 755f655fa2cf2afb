package httpapi

import (
	"net/http"
	"time"

	"incall-control/internal/auth"
	"incall-control/pkg/logger"
	"incall-control/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// CommandCap limits concurrent in-flight commands per device. A stuck
// collaborator must not let one device pile up requests on the serving pool;
// excess commands are shed with 429 before they reach the dispatcher.
//
// Fail-open: if Redis is unavailable the command goes through. Shedding
// commands because the cap store is down would be worse than briefly losing
// the cap.
func CommandCap(rdb *redis.Client, limit int, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || limit <= 0 {
			c.Next()
			return
		}
		deviceID, err := auth.DeviceID(c.Request.Context())
		if err != nil || deviceID == "" {
			c.Next()
			return
		}
		key := "cmdcap:" + deviceID

		ok, err := utils.AcquireConcurrencyCap(c.Request.Context(), rdb, key, limit, ttl)
		if err != nil {
			logger.FromGin(c).Warn("command cap acquire failed", "err", err)
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many in-flight commands"})
			return
		}
		defer func() {
			if err := utils.ReleaseConcurrencyCap(c.Request.Context(), rdb, key); err != nil {
				logger.FromGin(c).Warn("command cap release failed", "err", err)
			}
		}()
		c.Next()
	}
}
