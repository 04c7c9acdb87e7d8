package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/marketloop/storefront-backend/api/responses"
	pkgerrors "github.com/marketloop/storefront-backend/pkg/errors"
	"github.com/marketloop/storefront-backend/pkg/logger"
	"github.com/marketloop/storefront-backend/pkg/redis"
)

// AuthRateLimitPolicy describes the fixed windows applied to one auth
// surface: an IP ceiling against spray attacks and an email ceiling against
// targeted credential stuffing.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

// NewAuthRateLimitPolicy builds a policy. A zero window or all-zero limits
// disable it entirely.
func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	policy := AuthRateLimitPolicy{
		name:       strings.ToLower(strings.TrimSpace(name)),
		window:     window,
		ipLimit:    ipLimit,
		emailLimit: emailLimit,
	}
	if policy.name == "" {
		policy.name = "auth"
	}
	return policy
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

// AuthRateLimit throttles an auth endpoint with per-IP and per-email fixed
// windows backed by the shared rate limiter. The request body is restored
// after the email is read so the downstream handler can decode it again.
func AuthRateLimit(policy AuthRateLimitPolicy, limiter redis.RateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if policy.ipLimit > 0 {
				ip := clientIP(r)
				if ip != "" {
					scope := fmt.Sprintf("ip:%s:%s", policy.name, ip)
					blocked, err := overLimit(ctx, limiter, scope, policy.window, policy.ipLimit)
					if err != nil {
						responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
						return
					}
					if blocked {
						logLimitHit(ctx, logg, policy, "ip", ip)
						responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
						return
					}
				}
			}

			if policy.emailLimit > 0 {
				email, restoreErr := peekEmail(r)
				if restoreErr != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, restoreErr, "read request"))
					return
				}
				if email != "" {
					digest := sha256.Sum256([]byte(email))
					scope := fmt.Sprintf("email:%s:%s", policy.name, hex.EncodeToString(digest[:]))
					blocked, err := overLimit(ctx, limiter, scope, policy.window, policy.emailLimit)
					if err != nil {
						responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
						return
					}
					if blocked {
						logLimitHit(ctx, logg, policy, "email", hex.EncodeToString(digest[:8]))
						responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func overLimit(ctx context.Context, limiter redis.RateLimiter, scope string, window time.Duration, limit int) (bool, error) {
	allowed, _, err := limiter.FixedWindowAllow(ctx, scope, int64(limit), window)
	if err != nil {
		return false, err
	}
	return !allowed, nil
}

// peekEmail reads the body far enough to extract a lowercase email and then
// rewinds it for the real handler.
func peekEmail(r *http.Request) (string, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))

	var payload struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", nil
	}
	return strings.ToLower(strings.TrimSpace(payload.Email)), nil
}

func logLimitHit(ctx context.Context, logg *logger.Logger, policy AuthRateLimitPolicy, scope, subject string) {
	if logg == nil {
		return
	}
	ctx = logg.WithFields(ctx, map[string]any{
		"policy":         policy.name,
		"scope":          scope,
		"subject":        subject,
		"window_seconds": int(policy.window.Seconds()),
	})
	logg.Warn(ctx, "auth.rate_limit.blocked")
}

// clientIP prefers proxy-forwarded addresses over the socket peer.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		for _, hop := range strings.Split(forwarded, ",") {
			if ip := strings.TrimSpace(hop); ip != "" {
				return ip
			}
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
