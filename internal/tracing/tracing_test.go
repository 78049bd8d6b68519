package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/torosent/cqlfire/internal/config"
)

func TestInitDisabled(t *testing.T) {
	p, err := Init(context.Background(), config.TracingConfig{Enabled: false})
	if err != nil {
		t.Fatalf("disabled tracing must not fail: %v", err)
	}
	if p.Active() {
		t.Error("provider active while disabled")
	}
	if p.Tracer() == nil {
		t.Error("no fallback tracer")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("shutdown of inactive provider: %v", err)
	}
}

func TestInitEnabledWithoutEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	p, err := Init(context.Background(), config.TracingConfig{Enabled: true, SampleRate: 1})
	if err != nil {
		t.Fatalf("enabled tracing with no endpoint must degrade, not fail: %v", err)
	}
	if p.Active() {
		t.Error("provider active without an endpoint to export to")
	}
}

func TestInitRejectsBadSampleRate(t *testing.T) {
	_, err := Init(context.Background(), config.TracingConfig{
		Enabled:    true,
		Endpoint:   "localhost:4317",
		Insecure:   true,
		SampleRate: 2.0,
	})
	if err == nil {
		t.Fatal("accepted sample rate outside [0, 1]")
	}
}

func TestInitRejectsBadProtocol(t *testing.T) {
	_, err := Init(context.Background(), config.TracingConfig{
		Enabled:    true,
		Endpoint:   "localhost:4317",
		Protocol:   "udp",
		SampleRate: 1,
	})
	if err == nil {
		t.Fatal("accepted unsupported OTLP protocol")
	}
}

func TestNilProviderIsSafe(t *testing.T) {
	var p *Provider
	if p.Active() {
		t.Error("nil provider reported active")
	}
	if p.Tracer() == nil {
		t.Error("nil provider returned nil tracer")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("nil provider shutdown: %v", err)
	}
}

func TestSpanLifecycle(t *testing.T) {
	p := &Provider{}
	ctx, span := StartOpSpan(context.Background(), p.Tracer(), "WRITE", "test_scaling")
	if ctx == nil || span == nil {
		t.Fatal("no span returned")
	}
	EndSpan(span, nil)

	_, span = StartOpSpan(context.Background(), p.Tracer(), "READ", "test_scaling")
	EndSpan(span, errors.New("replica timeout"))
}
