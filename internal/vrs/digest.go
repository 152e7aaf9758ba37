package vrs

import (
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// digestLength is the number of leading SHA-512 bytes retained, per the
// VRS identifier convention (spec.md §3: "base64url-unpadded
// SHA-512/truncated-24-byte digest").
const digestLength = 24

// Digest computes the deterministic VRS identifier suffix for a value:
// canonical JSON encoding, SHA-512, truncate to the first 24 bytes,
// base64url encode without padding.
//
// encoding/json marshals map[string]any keys in sorted order, which is
// exactly the canonicalization spec.md §3 requires: two SequenceLocations
// (or Alleles) with equal attributes produce byte-identical encodings and
// therefore equal digests (invariant 1, spec.md §3).
func Digest(v any) (string, error) {
	canonical, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("canonicalize: %w", err)
	}

	sum := sha512.Sum512(canonical)
	truncated := sum[:digestLength]

	return base64.RawURLEncoding.EncodeToString(truncated), nil
}
