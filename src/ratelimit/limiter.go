// Package ratelimit implements a fixed-window limiter over a pluggable counter store.
package ratelimit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"tradepulse/src/apperr"
	"tradepulse/src/response"
)

// Store counts hits per key inside a window that starts at the first hit.
type Store interface {
	// Increment adds one hit and returns the count and the time left in the window.
	Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Limiter struct {
	store   Store
	prefix  string
	limit   int
	window  time.Duration
	proxies []*net.IPNet
}

func NewLimiter(store Store, prefix string, limit int, window time.Duration) *Limiter {
	return &Limiter{store: store, prefix: prefix, limit: limit, window: window}
}

// WithTrustedProxies makes the limiter read forwarding headers, but only on
// requests whose direct peer is inside one of nets.
func (l *Limiter) WithTrustedProxies(nets []*net.IPNet) *Limiter {
	l.proxies = nets
	return l
}

// Allow records a hit for key and reports whether it is within the limit.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	count, ttl, err := l.store.Increment(ctx, l.prefix+key, l.window)
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit store: %w", err)
	}

	if count > int64(l.limit) {
		return Decision{Allowed: false, RetryAfter: ttl}, nil
	}
	return Decision{Allowed: true, Remaining: l.limit - int(count)}, nil
}

// Middleware rejects requests over the limit with 429, keyed by client IP.
// A failing store lets the request through.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r, l.proxies)

		decision, err := l.Allow(r.Context(), ip)
		if err != nil {
			logger.WithError(err).WithField("ip", ip).Error("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

		if !decision.Allowed {
			secs := int(decision.RetryAfter.Round(time.Second) / time.Second)
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			logger.WithField("ip", ip).Warn("rate limit exceeded")
			response.Fail(w, apperr.RateLimited("Too many requests, please try again later"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ParseTrustedProxies accepts bare IPs and CIDR ranges.
func ParseTrustedProxies(entries []string) ([]*net.IPNet, error) {
	var nets []*net.IPNet
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", entry)
			}
			bits := 8 * net.IPv6len
			if v4 := ip.To4(); v4 != nil {
				ip, bits = v4, 8*net.IPv4len
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

// ClientIP returns the socket peer address. Forwarding headers are read only
// when that peer is a trusted proxy; X-Forwarded-For is then walked from the
// right and the first hop outside the trusted set wins.
func ClientIP(r *http.Request, trusted []*net.IPNet) string {
	peer := remoteHost(r.RemoteAddr)
	if !isTrusted(peer, trusted) {
		return peer
	}

	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		hops := strings.Split(fwd, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if net.ParseIP(hop) == nil {
				break
			}
			if !isTrusted(hop, trusted) {
				return hop
			}
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(realIP) != nil {
		return realIP
	}
	return peer
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

func isTrusted(host string, trusted []*net.IPNet) bool {
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	for _, n := range trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
