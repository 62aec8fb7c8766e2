package api

import (
	"context"

	domainerrors "github.com/coursedeck/coursedeck-server/internal/errors"
)

const msgRateLimited = "Too many requests. Please try again later."

// checkAuthRateLimit throttles credential endpoints per client IP.
// Returns a 429 error when the caller's bucket is empty.
func (s *Server) checkAuthRateLimit(ctx context.Context) error {
	if s.authRateLimiter == nil {
		return nil
	}

	client := clientFromContext(ctx)
	if s.authRateLimiter.Allow(client.IPAddress) {
		return nil
	}

	s.logger.WarnContext(ctx, "Rate limit exceeded", "ip", client.IPAddress)
	return domainerrors.RateLimited(msgRateLimited)
}
