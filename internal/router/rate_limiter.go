package router

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter throttles POSTs to a fixed set of paths per client address.
// A client that exceeds its budget is blocked for the block duration.
type RateLimiter struct {
	ips        map[string]*rate.Limiter
	blockedIPs map[string]time.Time
	mu         sync.RWMutex
	limit      rate.Limit
	burst      int
	blockFor   time.Duration
	paths      map[string]struct{}
	trusted    []*net.IPNet
	nowF       func() time.Time
}

// NewRateLimiter allows perMinute requests per client across paths, with
// bursts of burst requests.
func NewRateLimiter(perMinute, burst int, blockFor time.Duration, paths ...string) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	if burst <= 0 {
		burst = perMinute
	}
	rl := &RateLimiter{
		ips:        make(map[string]*rate.Limiter),
		blockedIPs: make(map[string]time.Time),
		limit:      rate.Every(time.Minute / time.Duration(perMinute)),
		burst:      burst,
		blockFor:   blockFor,
		paths:      make(map[string]struct{}, len(paths)),
		nowF:       time.Now,
	}
	for _, p := range paths {
		rl.paths[p] = struct{}{}
	}
	return rl
}

// TrustProxies sets the proxy addresses (CIDRs or bare IPs) whose forwarding
// headers are honoured. Without any, the peer address is always the client.
func (rl *RateLimiter) TrustProxies(cidrs ...string) error {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if !strings.Contains(c, "/") {
			ip := net.ParseIP(c)
			if ip == nil {
				return fmt.Errorf("trusted proxy %q: invalid address", c)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			return fmt.Errorf("trusted proxy %q: %w", c, err)
		}
		nets = append(nets, n)
	}
	rl.trusted = nets
	return nil
}

func (rl *RateLimiter) isTrusted(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, n := range rl.trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// Cleanup drops expired blocks together with their limiters.
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.nowF()
	n := 0
	for ip, until := range rl.blockedIPs {
		if now.After(until) {
			delete(rl.blockedIPs, ip)
			delete(rl.ips, ip)
			n++
		}
	}
	return n
}

// Run calls Cleanup every interval until stop is closed.
func (rl *RateLimiter) Run(interval time.Duration, stop <-chan struct{}) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			rl.Cleanup()
		}
	}
}

func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.RLock()
	l, ok := rl.ips[ip]
	rl.mu.RUnlock()
	if ok {
		return l
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if l, ok = rl.ips[ip]; !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
		rl.ips[ip] = l
	}
	return l
}

// allow reports whether ip may proceed, and until when it is blocked if not.
func (rl *RateLimiter) allow(ip string) (bool, time.Time) {
	now := rl.nowF()
	rl.mu.Lock()
	if until, blocked := rl.blockedIPs[ip]; blocked {
		if now.Before(until) {
			rl.mu.Unlock()
			return false, until
		}
		delete(rl.blockedIPs, ip)
		delete(rl.ips, ip)
	}
	rl.mu.Unlock()

	if rl.getLimiter(ip).AllowN(now, 1) {
		return true, time.Time{}
	}
	until := now.Add(rl.blockFor)
	if rl.blockFor > 0 {
		rl.mu.Lock()
		rl.blockedIPs[ip] = until
		rl.mu.Unlock()
	}
	return false, until
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}
		if _, ok := rl.paths[r.URL.Path]; !ok {
			next.ServeHTTP(w, r)
			return
		}
		ok, until := rl.allow(rl.clientIP(r))
		if ok {
			next.ServeHTTP(w, r)
			return
		}
		wait := int(until.Sub(rl.nowF()).Seconds())
		if wait < 1 {
			wait = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(wait))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":      "Too many requests. Try again later.",
			"retryAfter": until.UTC().Format(time.RFC3339),
		})
	})
}

// clientIP is the peer address unless the peer is a trusted proxy. Behind
// one, X-Forwarded-For is read right to left and the first untrusted hop
// wins; X-Real-IP is the fallback.
func (rl *RateLimiter) clientIP(r *http.Request) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	if !rl.isTrusted(peer) {
		return peer
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" || rl.isTrusted(hop) {
				continue
			}
			return hop
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return peer
}
