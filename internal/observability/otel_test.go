package observability

import "testing"

func TestTracingSettingsFromEnv(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "yes")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", " collector:4318 ")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "x-token=abc, broken ,=v")
	t.Setenv("OTEL_SAMPLER_RATIO", "3")

	s := TracingSettingsFromEnv()
	if !s.Enabled || s.Insecure {
		t.Fatalf("flags: enabled=%v insecure=%v", s.Enabled, s.Insecure)
	}
	if s.Endpoint != "collector:4318" {
		t.Fatalf("endpoint: got=%q", s.Endpoint)
	}
	if len(s.Headers) != 1 || s.Headers["x-token"] != "abc" {
		t.Fatalf("headers: got=%v", s.Headers)
	}
	if s.SampleRatio != 1 {
		t.Fatalf("ratio clamp: got=%v", s.SampleRatio)
	}
}

func TestParseRatioFallback(t *testing.T) {
	if got := parseRatio("nope", 0.1); got != 0.1 {
		t.Fatalf("parseRatio: got=%v", got)
	}
	if got := parseRatio("-1", 0.1); got != 0 {
		t.Fatalf("parseRatio negative: got=%v", got)
	}
}
