package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing service name", func(c *Config) { c.ServiceName = "" }},
		{"missing version", func(c *Config) { c.ServiceVersion = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"bad exporter", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = "jaeger"
		}},
		{"bad sampling rate", func(c *Config) { c.Tracing.SamplingRate = 2.0 }},
		{"otlp without endpoint", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = "otlp"
			c.Tracing.Endpoint = ""
		}},
		{"metrics without address", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.ListenAddress = ""
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoggerFields(t *testing.T) {
	l, err := NewLogger(LoggingConfig{Level: "debug", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	scoped := l.WithRunID("r1").WithDeployment("prod").WithComponent("api").WithPhase("deploy")
	if scoped == l {
		t.Error("expected a derived logger")
	}
	scoped.Debug("scoped message")
}

func TestMetricsDisabledIsNoop(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	if m.Enabled() {
		t.Error("expected disabled metrics")
	}

	// None of these should panic.
	m.RecordRunStarted("deploy")
	m.RecordRunCompleted("deploy", "success", time.Second)
	m.RecordStep("deploy", "succeeded", time.Second)
	m.RecordProvisionerCall("apply", "failed", time.Second)
	m.RecordError("execution", "HOOK_FAILED")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 from disabled handler, got %d", rec.Code)
	}
}

func TestMetricsRecordAndExpose(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{
		Enabled:       true,
		ListenAddress: ":0",
		Path:          "/metrics",
		Namespace:     "bosun",
	})
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	if !m.Enabled() {
		t.Fatal("expected enabled metrics")
	}

	m.RecordRunStarted("deploy")
	m.RecordRunCompleted("deploy", "success", 2*time.Second)
	m.RecordStep("deploy", "succeeded", time.Second)
	m.RecordStep("deploy", "skipped", 0)
	m.RecordProvisionerCall("apply", "succeeded", 5*time.Second)
	m.RecordProvisionerCall("destroy", "failed", time.Second)
	m.RecordError("execution", "HOOK_FAILED")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, metric := range []string{
		"bosun_runs_started_total",
		"bosun_runs_completed_total",
		"bosun_steps_executed_total",
		"bosun_provisioner_calls_total",
		"bosun_provisioner_errors_total",
		"bosun_errors_by_class_total",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("expected %s in scrape output", metric)
		}
	}
}

func TestTracerDisabled(t *testing.T) {
	tr, err := NewTracer(TracingConfig{Enabled: false}, "bosun", "test", "test")
	if err != nil {
		t.Fatalf("NewTracer failed: %v", err)
	}

	ctx, span := tr.StartRunSpan(context.Background(), "r1", "prod", "deploy")
	RecordSuccess(span)
	span.End()

	_, stepSpan := tr.StartStepSpan(ctx, "api", "deploy")
	RecordError(stepSpan, context.Canceled)
	stepSpan.End()

	if err := tr.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestTracerUnknownExporter(t *testing.T) {
	if _, err := NewTracer(TracingConfig{Enabled: true, Exporter: "zipkin"}, "bosun", "test", "test"); err == nil {
		t.Error("expected error for unknown exporter")
	}
}
