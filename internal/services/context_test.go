package services_test

import (
	"context"
	"testing"

	"physica/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithCartridge(ctx, "3f8e8f0a-7f33-4f21-9752-14c8afaa9c21")
	ctx = services.WithComponent(ctx, "savesync")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.CartridgeFromContext(ctx); !ok || id != "3f8e8f0a-7f33-4f21-9752-14c8afaa9c21" {
		t.Fatalf("unexpected cartridge uuid: %v %v", id, ok)
	}
	if component, ok := services.ComponentFromContext(ctx); !ok || component != "savesync" {
		t.Fatalf("unexpected component: %v %v", component, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithCartridge(ctx, "")
	ctx = services.WithComponent(ctx, "")
	if _, ok := services.CartridgeFromContext(ctx); ok {
		t.Fatal("expected no cartridge value")
	}
	if _, ok := services.ComponentFromContext(ctx); ok {
		t.Fatal("expected no component value")
	}
}
