package observe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func TestInitProvider_ServesScrape(t *testing.T) {
	tel, err := InitProvider(ProviderConfig{ServiceName: "voiceclone-test", ServiceVersion: "1.2.3"})
	if err != nil {
		t.Fatalf("InitProvider: %v", err)
	}
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	tel.Metrics.ProviderRequests.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("operation", "list_voices"),
		attribute.String("status", "ok"),
	))

	rec := httptest.NewRecorder()
	tel.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"voiceclone_provider_requests_total",
		`service_name="voiceclone-test"`,
		`service_version="1.2.3"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape output missing %q", want)
		}
	}
}

func TestInitProvider_DefaultServiceName(t *testing.T) {
	tel, err := InitProvider(ProviderConfig{})
	if err != nil {
		t.Fatalf("InitProvider: %v", err)
	}
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })
	tel.Metrics.BillableCharacters.Add(context.Background(), 10)

	rec := httptest.NewRecorder()
	tel.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `service_name="voiceclone"`) {
		t.Error("scrape output missing default service name")
	}
}
