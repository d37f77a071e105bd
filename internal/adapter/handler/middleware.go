package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/srgjo27/event_escrow/internal/platform/logging"
)

// CallerHeader carries the authenticated identity of the caller. It is set
// by the gateway in front of this service.
const CallerHeader = "X-Caller-ID"

type callerKey struct{}

// Identify parses CallerHeader into the request context. A malformed value
// is rejected outright; a missing one is left for handlers that need a
// caller.
func Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(CallerHeader))
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		caller, err := uuid.Parse(raw)
		if err != nil || caller == uuid.Nil {
			writeError(w, http.StatusUnauthorized, "invalid "+CallerHeader+" header")
			return
		}

		ctx := context.WithValue(r.Context(), callerKey{}, caller)
		ctx = logging.WithFields(ctx, logrus.Fields{"caller_id": caller.String()})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func callerFrom(ctx context.Context) (uuid.UUID, bool) {
	caller, ok := ctx.Value(callerKey{}).(uuid.UUID)
	return caller, ok
}

// requireCaller writes 401 and returns false when the request is anonymous.
func requireCaller(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	caller, ok := callerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing "+CallerHeader+" header")
		return uuid.Nil, false
	}
	return caller, true
}

// Logger stores a request scoped entry in the context and writes one access
// line per request.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		entry := logrus.WithFields(logrus.Fields{
			"request_id": chimiddleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		})

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(logging.ToContext(r.Context(), entry)))

		entry.WithFields(logrus.Fields{
			"status":   ww.Status(),
			"bytes":    ww.BytesWritten(),
			"duration": time.Since(start).String(),
		}).Info("Request handled")
	})
}
