package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestSumIsDeterministic(t *testing.T) {
	h := New()
	first := h.Sum("project structure listing")
	second := h.Sum("project structure listing")
	if first != second {
		t.Fatalf("Sum() not deterministic: %s != %s", first, second)
	}
}

func TestSumMatchesSHA256(t *testing.T) {
	h := New()
	want := sha256.Sum256([]byte("file content"))
	if got := h.Sum("file content"); got != hex.EncodeToString(want[:]) {
		t.Fatalf("Sum() = %s, want sha256 hex digest", got)
	}
}

func TestSumDiffersForDifferentInput(t *testing.T) {
	h := New()
	if h.Sum("a") == h.Sum("b") {
		t.Fatalf("Sum() collided for distinct inputs")
	}
}

func TestFallbackSumIsStableHex(t *testing.T) {
	first := fallbackSum("content")
	second := fallbackSum("content")
	if first != second {
		t.Fatalf("fallbackSum() not deterministic: %s != %s", first, second)
	}
	if len(first) != 16 {
		t.Fatalf("fallbackSum() length = %d, want 16 hex chars", len(first))
	}
	if fallbackSum("content") == fallbackSum("other") {
		t.Fatalf("fallbackSum() collided for distinct inputs")
	}
}
