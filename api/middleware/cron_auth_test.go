package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jmcastellanos/tienda-backend/pkg/logger"
)

func TestCronSecret(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("matching secret passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/cleanup", nil)
		req.Header.Set("X-Cron-Secret", "s3cret")
		rec := httptest.NewRecorder()
		CronSecret("s3cret", logg)(next).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/cleanup", nil)
		req.Header.Set("X-Cron-Secret", "wrong")
		rec := httptest.NewRecorder()
		CronSecret("s3cret", logg)(next).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("missing header rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/cleanup", nil)
		rec := httptest.NewRecorder()
		CronSecret("s3cret", logg)(next).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("unset secret disables endpoint", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/cleanup", nil)
		req.Header.Set("X-Cron-Secret", "")
		rec := httptest.NewRecorder()
		CronSecret("", logg)(next).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 when secret unset, got %d", rec.Code)
		}
	})
}
