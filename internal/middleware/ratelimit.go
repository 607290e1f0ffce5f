package middleware

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	domrepo "CreditScore/internal/domain/repository"
	"CreditScore/internal/service/ratelimit"
	xhttp "CreditScore/pkg/http"
	applogger "CreditScore/pkg/logger"
)

// RateLimit throttles requests per client IP. Rejected requests get 429
// with a Retry-After header.
func RateLimit(limiter *ratelimit.Limiter, metrics domrepo.Metrics, l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if limiter == nil {
				return next(c)
			}
			key := c.RealIP()
			if limiter.Allow(key) {
				return next(c)
			}

			wait := limiter.RetryAfter(key)
			c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			if metrics != nil {
				metrics.RecordError("rate_limited")
			}
			if l != nil {
				l.Warn("request rate limited",
					applogger.String("remote", key),
					applogger.String("route", c.Path()),
				)
			}
			return xhttp.TooManyRequestsResponse(c)
		}
	}
}
