package telemetry

import (
	"context"
	"testing"

	"github.com/cortexlinux/cortex-patch-go/internal/config"
)

func TestInitDisabledReturnsNoopShutdown(t *testing.T) {
	shutdown, err := Init(context.Background(), &config.TelemetryConfig{Enabled: false}, false)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if shutdown == nil {
		t.Fatal("shutdown func is nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestInitEnabledWithoutEndpointFallsBackToNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), &config.TelemetryConfig{Enabled: true}, false)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestTracerIsNonNil(t *testing.T) {
	if Tracer() == nil {
		t.Fatal("Tracer() returned nil")
	}
}
