package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// visitor is a per-IP limiter with its last access time
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter holds rate limiters for each client IP address
type IPRateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	rps      rate.Limit
	burst    int
	idle     time.Duration
	trusted  []netip.Prefix
	onReject func()
	now      func() time.Time
	done     chan struct{}
	stopOnce sync.Once
}

// NewIPRateLimiter creates a new IP-based rate limiter and starts its cleanup loop.
// rps: requests per second allowed per IP
// burst: maximum burst size
// Call Stop to end the cleanup loop.
func NewIPRateLimiter(rps float64, burst int) *IPRateLimiter {
	limiter := &IPRateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		idle:     5 * time.Minute,
		now:      time.Now,
		done:     make(chan struct{}),
	}

	go limiter.cleanupRoutine()

	return limiter
}

// OnReject registers a hook called for every rejected request (e.g. a metrics counter)
func (i *IPRateLimiter) OnReject(fn func()) *IPRateLimiter {
	i.onReject = fn
	return i
}

// TrustProxies sets the peers whose X-Forwarded-For and X-Real-IP headers are honoured.
// Requests from any other peer are limited by their RemoteAddr.
func (i *IPRateLimiter) TrustProxies(prefixes []netip.Prefix) *IPRateLimiter {
	i.trusted = prefixes
	return i
}

// Stop ends the cleanup loop; it is safe to call more than once
func (i *IPRateLimiter) Stop() {
	i.stopOnce.Do(func() { close(i.done) })
}

// getLimiter returns the rate limiter for an IP address
func (i *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	v, exists := i.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(i.rps, i.burst)}
		i.visitors[ip] = v
	}
	v.lastSeen = i.now()

	return v.limiter
}

func (i *IPRateLimiter) cleanupRoutine() {
	ticker := time.NewTicker(i.idle)
	defer ticker.Stop()

	for {
		select {
		case <-i.done:
			return
		case <-ticker.C:
			i.evictIdle()
		}
	}
}

// evictIdle drops limiters not used for longer than the idle interval
func (i *IPRateLimiter) evictIdle() int {
	i.mu.Lock()
	defer i.mu.Unlock()

	cutoff := i.now().Add(-i.idle)
	evicted := 0
	for ip, v := range i.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(i.visitors, ip)
			evicted++
		}
	}
	return evicted
}

// clientIP resolves the address a request is limited by.
// Forwarding headers count only when the peer is a trusted proxy; the
// X-Forwarded-For chain is walked from the right, skipping trusted hops.
func (i *IPRateLimiter) clientIP(r *http.Request) string {
	peer := remoteHost(r)
	if !i.isTrusted(peer) {
		return peer
	}

	if forwarded := r.Header.Values("X-Forwarded-For"); len(forwarded) > 0 {
		hops := strings.Split(strings.Join(forwarded, ","), ",")
		for idx := len(hops) - 1; idx >= 0; idx-- {
			hop := strings.TrimSpace(hops[idx])
			addr, err := netip.ParseAddr(hop)
			if err != nil {
				break
			}
			if !i.isTrusted(hop) || idx == 0 {
				return addr.Unmap().String()
			}
		}
	}
	if realIP, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return realIP.Unmap().String()
	}
	return peer
}

func (i *IPRateLimiter) isTrusted(ip string) bool {
	if len(i.trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range i.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// RateLimit middleware limits requests per client IP address
func RateLimit(limiter *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := limiter.clientIP(r)

			if !limiter.getLimiter(ip).Allow() {
				if limiter.onReject != nil {
					limiter.onReject()
				}
				WriteJSON(w, http.StatusTooManyRequests, map[string]string{"error": "Rate limit exceeded. Please try again later."})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// remoteHost returns the host part of RemoteAddr
func remoteHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
