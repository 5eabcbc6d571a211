package handler

import (
	"testing"
	"time"
)

func TestClientBuckets_separateClients(t *testing.T) {
	cb := newClientBuckets(1, 1)
	if !cb.allow("10.0.0.1") {
		t.Fatal("first request from 10.0.0.1 rejected")
	}
	if cb.allow("10.0.0.1") {
		t.Error("second request from 10.0.0.1 should exceed a burst of 1")
	}
	if !cb.allow("10.0.0.2") {
		t.Error("10.0.0.2 throttled by another client's traffic")
	}
}

func TestClientBuckets_sweepDropsIdleClients(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := newClientBuckets(1, 1)
	cb.now = func() time.Time { return now }

	cb.allow("idle")
	now = now.Add(bucketIdle - time.Second)
	cb.allow("active")

	now = now.Add(2 * time.Second)
	cb.sweep()

	if got := cb.size(); got != 1 {
		t.Fatalf("expected 1 client after sweep, got %d", got)
	}
	if _, ok := cb.buckets["active"]; !ok {
		t.Error("active client was swept")
	}
}
