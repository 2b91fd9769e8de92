package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"example.com/rocketshoes/app/internal/infra/security"
)

// ScopeCatalogRead grants read access to products and stock.
const ScopeCatalogRead = "catalog:read"

var (
	ctxServiceKey      = struct{}{}
	errUnauthenticated = errors.New("unauthenticated")
	errForbidden       = errors.New("forbidden")
)

type TokenParser interface {
	ParseToken(token string) (*security.Claims, error)
}

func requestLogger(logger *log.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			entry := logger.WithFields(log.Fields{
				"request_id": chimw.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
			})
			if ww.Status() >= http.StatusInternalServerError {
				entry.Warn("request failed")
				return
			}
			entry.Debug("request served")
		})
	}
}

// serviceAuth admits requests carrying a valid service token with scope.
// A nil parser disables the check.
func serviceAuth(tokens TokenParser, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if tokens == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				respondError(w, http.StatusUnauthorized, errUnauthenticated)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			claims, err := tokens.ParseToken(token)
			if err != nil {
				respondError(w, http.StatusUnauthorized, errUnauthenticated)
				return
			}
			if claims.Scope != scope {
				respondError(w, http.StatusForbidden, errForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), ctxServiceKey, claims.Service)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func callerService(ctx context.Context) string {
	service, _ := ctx.Value(ctxServiceKey).(string)
	return service
}
