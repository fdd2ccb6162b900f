package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainCall = "mpilower/call/v1"
	DomainRun  = "mpilower/run/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CallID computes the content-addressed ID of a lowered call.
// Lowering the same operation twice yields the same ID.
func CallID(c Call) (string, error) {
	canonical, err := MarshalCanonical(c.Canonical())
	if err != nil {
		return "", fmt.Errorf("CallID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCall, canonical), nil
}

// RunDigest computes a digest over an ordered sequence of call IDs.
// Two lowering runs that emit the same calls in the same order share a digest.
func RunDigest(callIDs []string) (string, error) {
	canonical, err := MarshalCanonical(callIDs)
	if err != nil {
		return "", fmt.Errorf("RunDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRun, canonical), nil
}

// MustCallID is like CallID but panics on error.
// Use only in tests or when the call is known to be well formed.
func MustCallID(c Call) string {
	id, err := CallID(c)
	if err != nil {
		panic(err)
	}
	return id
}
