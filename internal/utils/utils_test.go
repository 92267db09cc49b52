package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitForReturnsAfterSleep(t *testing.T) {
	original := sleep
	sleep = func(time.Duration) {}
	defer func() { sleep = original }()

	if err := WaitFor(context.Background(), time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitForHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WaitFor(ctx, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWaitForNonPositive(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := WaitFor(ctx, 0); err != nil {
		t.Fatalf("expected nil for zero duration, got %v", err)
	}
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()

	if got := TruncateRunes("привет мир", 6); got != "привет" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := TruncateRunes("short", 10); got != "short" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := TruncateRunes("anything", 0); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestSanitizeUTF8(t *testing.T) {
	t.Parallel()

	if got := SanitizeUTF8("ok"); got != "ok" {
		t.Fatalf("valid input changed: %q", got)
	}
	if got := SanitizeUTF8("a\xffb"); got != "a�b" {
		t.Fatalf("unexpected sanitised value: %q", got)
	}
}
