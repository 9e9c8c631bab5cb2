// Package hashing provides the content-addressed cache keys used by the
// documentation pipeline. Identical input text always maps to the same key,
// regardless of which repository or job produced it.
package hashing

import (
	"crypto"
	"crypto/sha256"
	"encoding/hex"
	"hash/fnv"
)

type Hasher struct{}

func New() Hasher {
	return Hasher{}
}

// Sum returns a deterministic hex digest of text. SHA-256 is used when the
// binary links it in; otherwise the key space degrades to FNV-64 rather than
// failing the pipeline.
func (Hasher) Sum(text string) string {
	if !crypto.SHA256.Available() {
		return fallbackSum(text)
	}
	digest := sha256.Sum256([]byte(text))
	return hex.EncodeToString(digest[:])
}

func fallbackSum(text string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
