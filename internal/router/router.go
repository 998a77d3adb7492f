package router

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-login-go/internal/login"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/oidc"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/setting"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-login-go/pkg/utilities"
)

// APIPrefix is the base path of the JSON API.
const APIPrefix = "/pitchfork-login"

const requestIDHeader = "X-Request-ID"

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// Hijack lets websocket upgrades pass through the logger.
func (lrw *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := lrw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	lrw.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (lrw *loggingResponseWriter) Unwrap() http.ResponseWriter {
	return lrw.ResponseWriter
}

// LoggingMiddleware returns a middleware that logs requests at debug level using the provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			// ensure status is set
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"request_id", r.Header.Get(requestIDHeader),
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// RequestIDMiddleware keeps a caller-supplied X-Request-ID or assigns a
// snowflake id from node, and echoes it on the response.
func RequestIDMiddleware(node int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" || len(id) > 64 {
				id = utilities.NewSnowflakeIDWithNode(node)
				r.Header.Set(requestIDHeader, id)
			}
			w.Header().Set(requestIDHeader, id)
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
// The login page loads its script and stylesheet from /login/static and opens a
// websocket back to this host; nothing inline is allowed.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Clickjacking protection
			w.Header().Set("X-Frame-Options", "DENY")

			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy",
					"default-src 'self'; connect-src 'self' ws: wss:; img-src 'self' data:; object-src 'none'; base-uri 'self'; frame-ancestors 'none';")
			}

			// HSTS only over TLS, 30 days
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Deps are the handlers mounted by RegisterRoutes. Nil handlers are skipped.
type Deps struct {
	Login    *login.Handler
	Users    *user.Handler
	OIDC     *oidc.Handler
	Settings *setting.Handler
	// Limiter throttles credential and OTP endpoints when set.
	Limiter *RateLimiter
	// Node is the snowflake node of generated request ids.
	Node int64
}

// RegisterRoutes mounts HTTP handlers using the standard library's http.ServeMux.
func RegisterRoutes(logger *zap.SugaredLogger, d Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+APIPrefix+"/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if d.Login != nil {
		d.Login.Register(mux)
	}

	if d.Settings != nil {
		mux.HandleFunc("GET "+APIPrefix+"/settings", d.Settings.List)
	}

	if d.Users != nil {
		mux.HandleFunc("POST "+APIPrefix+"/users/signup", d.Users.Signup)
		mux.HandleFunc("POST "+APIPrefix+"/users/login", d.Users.Login)
	}

	if d.OIDC != nil {
		base := APIPrefix + "/oidc"
		mux.HandleFunc("GET "+base+"/.well-known/openid-configuration", d.OIDC.Discovery)
		mux.HandleFunc("GET "+base+"/jwks.json", d.OIDC.JWKS)
		mux.HandleFunc("POST "+base+"/token", d.OIDC.Token)
		mux.HandleFunc("GET "+base+"/userinfo", d.OIDC.Userinfo)
		mux.HandleFunc("POST "+base+"/revoke", d.OIDC.Revoke)
		mux.HandleFunc("POST "+base+"/introspect", d.OIDC.Introspect)
	}

	var handler http.Handler = mux
	if d.Limiter != nil {
		handler = d.Limiter.Middleware(handler)
	}
	handler = SecurityHeadersMiddleware()(handler)
	handler = LoggingMiddleware(logger)(handler)
	return RequestIDMiddleware(d.Node)(handler)
}
