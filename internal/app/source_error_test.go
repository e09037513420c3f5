package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSourceErrorMetaFromDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := annotateSourceError(ctx, "source.load", context.DeadlineExceeded)
	meta := sourceErrorMeta(err)
	if meta == nil {
		t.Fatalf("expected metadata for annotated timeout")
	}
	if meta["phase"] != "source.load" || meta["kind"] != "timeout" {
		t.Fatalf("unexpected meta: %+v", meta)
	}
	if _, ok := meta["deadline"]; !ok {
		t.Fatalf("expected deadline in metadata: %+v", meta)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("annotated error should unwrap to DeadlineExceeded: %v", err)
	}
}

func TestSourceErrorMetaNilForGenericError(t *testing.T) {
	if meta := sourceErrorMeta(context.Canceled); meta != nil {
		t.Fatalf("did not expect metadata for unannotated error: %+v", meta)
	}
	if err := annotateSourceError(context.Background(), "source.load", nil); err != nil {
		t.Fatalf("nil error should stay nil, got %v", err)
	}
}

func TestSourceContextErrorMessageContainsPhase(t *testing.T) {
	err := annotateSourceError(context.Background(), "source.doctor", context.Canceled)
	if !strings.Contains(err.Error(), "source.doctor canceled") {
		t.Fatalf("expected phase-aware message, got: %q", err.Error())
	}
}
