package middleware

import (
	"FaceGate/internal/entity"
	"sync"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

type rateLimiter struct {
	bucket    map[string]*rate.Limiter
	rate      rate.Limit
	burstSize int
	mutex     *sync.RWMutex
}

func newRateLimiter(reqRate rate.Limit, burstSize int) *rateLimiter {
	return &rateLimiter{
		bucket:    make(map[string]*rate.Limiter),
		rate:      reqRate,
		burstSize: burstSize,
		mutex:     &sync.RWMutex{},
	}
}

func (r *rateLimiter) GetLimiterFrom(key string) *rate.Limiter {
	r.mutex.RLock()
	limiter, exist := r.bucket[key]
	r.mutex.RUnlock()
	if exist {
		return limiter
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exist := r.bucket[key]; !exist {
		r.bucket[key] = rate.NewLimiter(r.rate, r.burstSize)
	}

	return r.bucket[key]
}

func (m *middleware) NewRateLimiter(ctx *fiber.Ctx) error {
	clientIP := ctx.IP()
	limiter := m.rateLimitter.GetLimiterFrom(clientIP)

	if !limiter.Allow() {
		m.log.Warnf("too many requests for IP %s", clientIP)
		return ctx.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "Too many requests",
			"code":  "TOO_MANY_REQUESTS",
		})
	}

	return ctx.Next()
}

// NewVerificationRateLimiter throttles capture attempts per authenticated
// user, falling back to the client IP before authentication.
func (m *middleware) NewVerificationRateLimiter(ctx *fiber.Ctx) error {
	key := "ip:" + ctx.IP()
	if user, ok := ctx.Locals("user").(entity.UserLoginData); ok && user.ID != "" {
		key = "user:" + user.ID
	}

	if !m.verifyLimiter.GetLimiterFrom(key).Allow() {
		m.log.WithField("key", key).Warn("Too many verification attempts")
		return ctx.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "Too many verification attempts, try again shortly",
			"code":  "TOO_MANY_REQUESTS",
		})
	}

	return ctx.Next()
}
