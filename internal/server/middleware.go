package server

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// VoteRateLimit throttles vote submissions per voter. The voter key is the
// X-User-Id header when present, otherwise the client address, so anonymous
// voters share one bucket per source address.
func (s *Server) VoteRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.voteLimiter.Enabled() {
			c.Next()
			return
		}

		voter := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if voter == "" {
			voter = c.ClientIP()
		}

		if !s.voteLimiter.AllowVoter(c.Request.Context(), voter) {
			AbortWithError(c, ErrRateLimited)
			return
		}

		c.Next()
	}
}
