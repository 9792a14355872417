package api

import "github.com/okian/bookability/pkg/logger"

const (
	defaultMaxLeaderboardLimit = 100
	defaultMaxHistoryLimit     = 500
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxLeaderboardLimit caps the limit accepted by GET /leaderboard.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLeaderboardLimit = n
		}
	}
}

// WithMaxHistoryLimit caps the limit accepted by GET /djs/{id}/history.
func WithMaxHistoryLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxHistoryLimit = n
		}
	}
}

// WithRateLimiter throttles snapshot intake per client.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(s *Server) {
		s.limiter = rl
	}
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
