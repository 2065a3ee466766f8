package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
)

type recordingObserver struct {
	route  string
	method string
	status int
}

func (o *recordingObserver) Observe(route, method string, status int, _ time.Duration) {
	o.route, o.method, o.status = route, method, status
}

func TestLoggingObservesRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Level: "info", Output: &buf})
	observer := &recordingObserver{}

	r := chi.NewRouter()
	r.Use(RequestID(logg), Logging(logg, observer))
	r.Post("/api/v1/orders/{orderId}/claim", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/orders/9/claim", nil))

	if observer.route != "/api/v1/orders/{orderId}/claim" {
		t.Fatalf("unexpected route %q", observer.route)
	}
	if observer.status != http.StatusAccepted || observer.method != http.MethodPost {
		t.Fatalf("unexpected observation %+v", observer)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}
	out := buf.String()
	if !strings.Contains(out, "request.complete") || !strings.Contains(out, `"bytes":2`) {
		t.Fatalf("unexpected log output %s", out)
	}
}
