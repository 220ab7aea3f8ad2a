package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes.
// The version suffix leaves room for algorithm migration.
const (
	DomainRequest  = "presenter/request/v1"
	DomainResponse = "presenter/response/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RequestHash identifies a StateRequest by content. Two cycles that send
// the same views and actions produce the same hash, which lets the cycle
// journal spot redundant round trips.
func RequestHash(req *StateRequest) (string, error) {
	canonical, err := MarshalCanonical(req.ToIR())
	if err != nil {
		return "", fmt.Errorf("RequestHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRequest, canonical), nil
}

// ResponseHash identifies a StateResponse by content.
func ResponseHash(resp *StateResponse) (string, error) {
	canonical, err := MarshalCanonical(resp.ToIR())
	if err != nil {
		return "", fmt.Errorf("ResponseHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainResponse, canonical), nil
}
