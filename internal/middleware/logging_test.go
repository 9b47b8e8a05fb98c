package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// Feature: kitchen-store, Property 16: Every request produces one log entry carrying its request id and status
func TestProperty_RequestLogsCarryRequestIDAndStatus(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("log level follows the status class", prop.ForAll(
		func(status int) bool {
			core, logs := observer.New(zapcore.DebugLevel)
			handler := middleware.RequestID(LoggingMiddleware(zap.New(core))(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(status)
				}),
			))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/products", nil))

			entries := logs.All()
			if len(entries) != 1 {
				return false
			}
			entry := entries[0]
			fields := entry.ContextMap()
			if fields["request_id"] == "" || fields["status"] != int64(status) {
				return false
			}

			switch {
			case status >= 500:
				return entry.Level == zapcore.ErrorLevel
			case status >= 400:
				return entry.Level == zapcore.WarnLevel
			default:
				return entry.Level == zapcore.InfoLevel
			}
		},
		gen.OneConstOf(200, 201, 204, 400, 401, 404, 409, 429, 500, 502, 503),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
