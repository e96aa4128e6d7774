package ir

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// addressBytes is the truncated digest length (128 bits).
const addressBytes = 16

// ContentAddressOf computes the content address of a canonical signature.
// Format: base64url(SHA256(utf8(signature))[:16]) with no padding (22 chars).
//
// The digest covers the signature bytes exactly as supplied. Whitespace is
// only inspected to reject empty input; it is never stripped before hashing,
// because the signature is evidence and any rewrite would break parity with
// other implementations of the same algorithm.
//
// Returns a ValidationError if the signature is empty or whitespace-only.
func ContentAddressOf(sig CanonicalSignature) (ContentAddress, error) {
	if strings.TrimSpace(string(sig)) == "" {
		return "", NewValidationError("canonical_signature", "canonical signature is required")
	}

	sum := sha256.Sum256([]byte(sig))
	return ContentAddress(base64.RawURLEncoding.EncodeToString(sum[:addressBytes])), nil
}

// MustContentAddress is like ContentAddressOf but panics on error.
// Use only in tests or when the signature is known to be non-empty.
func MustContentAddress(sig CanonicalSignature) ContentAddress {
	addr, err := ContentAddressOf(sig)
	if err != nil {
		panic(err)
	}
	return addr
}
