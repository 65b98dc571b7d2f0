package handler

import (
	"context"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type ctxKey int

const principalKey ctxKey = iota

// principalHeader carries the principal this request is authorized as. It
// is set by the upstream authentication proxy, which owns signature
// verification; this service only compares it against the principal each
// operation requires.
const principalHeader = "X-Authorized-Principal"

// WithPrincipal copies the authorized principal from the request header
// into the context for the gate to consult.
func WithPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), principalKey, r.Header.Get(principalHeader))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// HeaderGate is the production authorization gate: a principal has
// authorized the call iff it is the one the upstream proxy authenticated.
type HeaderGate struct{}

func (HeaderGate) Authorized(ctx context.Context, principal string) bool {
	p, _ := ctx.Value(principalKey).(string)
	return p != "" && p == principal
}

// ContextWithPrincipal is used by tests to simulate an authenticated
// request without going through the middleware.
func ContextWithPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// AccessLog returns a middleware writing one structured line per request.
func AccessLog(log *zap.Logger) func(http.Handler) http.Handler {
	log = log.Named("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			)
		})
	}
}

// CORS is a permissive CORS middleware for browser clients.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+principalHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
