package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestNew_Levels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		if New(level, "text") == nil {
			t.Fatalf("New(%q) returned nil", level)
		}
	}
	if New("info", "json") == nil {
		t.Fatal("New with json format returned nil")
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := RequestID(ctx); got != "" {
		t.Errorf("expected empty request ID on fresh context, got %q", got)
	}

	ctx = WithRequestID(ctx, "req-123")
	if got := RequestID(ctx); got != "req-123" {
		t.Errorf("expected req-123, got %q", got)
	}
}

func TestFromContext_Fallback(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected default logger when none set on context")
	}

	logger := New("info", "text")
	ctx := WithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Error("expected logger from context")
	}
}

func TestL_AttachesRequestID(t *testing.T) {
	logger := New("info", "text")
	ctx := WithLogger(context.Background(), logger)
	ctx = WithRequestID(ctx, "req-456")

	// L must not return the bare context logger once a request ID is present.
	if L(ctx) == logger {
		t.Error("expected request-scoped logger, got base logger")
	}
}
