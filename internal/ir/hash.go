package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainRecord   = "comptonseq/record/v1"
	DomainOrdering = "comptonseq/ordering/v1"
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

// RecordHash computes the content address of a record within a run. The
// store uses it to make repeated writes of the same record idempotent.
func RecordHash(runID string, r InteractionRecord) (string, error) {
	obj := map[string]any{
		"run_id": runID,
		"record": CanonicalRecord(r),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("RecordHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRecord, canonical), nil
}

// OrderingHash computes the content address of a reconstructed ordering of
// one event.
func OrderingHash(runID, eventID string, order []int) (string, error) {
	idx := make([]any, len(order))
	for i, o := range order {
		idx[i] = o
	}
	obj := map[string]any{
		"run_id":   runID,
		"event_id": eventID,
		"order":    idx,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("OrderingHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainOrdering, canonical), nil
}

// MustRecordHash is like RecordHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRecordHash(runID string, r InteractionRecord) string {
	h, err := RecordHash(runID, r)
	if err != nil {
		panic(err)
	}
	return h
}
