package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/trailquest/trailquest-backend/api/responses"
	"github.com/trailquest/trailquest-backend/api/validators"
	"github.com/trailquest/trailquest-backend/pkg/config"
	pkgerrors "github.com/trailquest/trailquest-backend/pkg/errors"
	"github.com/trailquest/trailquest-backend/pkg/logger"
	"github.com/trailquest/trailquest-backend/pkg/redis"
)

// RateStore is the slice of the redis client the limiter needs.
type RateStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RateLimitPolicy is a fixed-window counter keyed per client IP and, when the
// body carries one, per submitted email.
type RateLimitPolicy struct {
	Scope  string
	Limit  int64
	Window time.Duration
}

// AuthRateLimit throttles credential endpoints. The store failing open is
// deliberate: a redis outage must not lock everyone out of login.
func AuthRateLimit(cfg *config.Config, store RateStore, logg *logger.Logger, policy RateLimitPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil || policy.Limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			keys := []string{redis.RateLimitKey(policy.Scope, "ip", clientIP(r))}
			if email := peekEmail(r); email != "" {
				keys = append(keys, redis.RateLimitKey(policy.Scope, "email", email))
			}

			for _, key := range keys {
				count, err := store.IncrWithTTL(r.Context(), key, policy.Window)
				if err != nil {
					if logg != nil {
						logg.Warn(r.Context(), "rate_limit.store_unavailable")
					}
					continue
				}
				if count > policy.Limit {
					responses.WriteError(r.Context(), cfg.App, logg, w, r,
						pkgerrors.New(pkgerrors.CodeRateLimit, "Too many requests. Please try again later"))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// peekEmail reads the email field out of a JSON body without consuming it for
// downstream handlers.
func peekEmail(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var probe struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	return validators.NormalizeEmail(probe.Email)
}
