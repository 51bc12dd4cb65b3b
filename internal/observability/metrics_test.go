package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "success"},
		{204, "success"},
		{429, "rate_limited"},
		{400, "client_error"},
		{404, "client_error"},
		{500, "server_error"},
		{502, "server_error"},
		{0, "error"},
	}
	for _, tt := range tests {
		if got := StatusLabel(tt.code); got != tt.want {
			t.Errorf("StatusLabel(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestMetricsHandler(t *testing.T) {
	ErddapRequestsTotal.WithLabelValues("tabledap", "success").Inc()

	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "erddapRequestsTotal") {
		t.Error("application metric missing from exposition")
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Error("runtime collector missing from exposition")
	}
}
