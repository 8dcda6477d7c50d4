package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/comptonseq/internal/ir"
	"github.com/roach88/comptonseq/internal/session"
)

// marshalJSON encodes v without HTML escaping and without the trailing
// newline json.Encoder adds.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// marshalRecord converts a record to JSON TEXT for storage.
func marshalRecord(r ir.InteractionRecord) (string, error) {
	data, err := marshalJSON(r)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	return data, nil
}

func unmarshalRecord(data string) (ir.InteractionRecord, error) {
	var r ir.InteractionRecord
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return ir.InteractionRecord{}, fmt.Errorf("unmarshal record: %w", err)
	}
	return r, nil
}

// marshalSequence stores an ordering as a JSON array; rejected events
// store "[]".
func marshalSequence(order []int) (string, error) {
	if order == nil {
		order = []int{}
	}
	data, err := marshalJSON(order)
	if err != nil {
		return "", fmt.Errorf("marshal sequence: %w", err)
	}
	return data, nil
}

func unmarshalSequence(data string) ([]int, error) {
	var order []int
	if err := json.Unmarshal([]byte(data), &order); err != nil {
		return nil, fmt.Errorf("unmarshal sequence: %w", err)
	}
	if len(order) == 0 {
		return nil, nil
	}
	return order, nil
}

func marshalFutureEvent(ev session.FutureEvent) (string, error) {
	data, err := marshalJSON(ev)
	if err != nil {
		return "", fmt.Errorf("marshal future event: %w", err)
	}
	return data, nil
}

func unmarshalFutureEvent(data string) (session.FutureEvent, error) {
	var ev session.FutureEvent
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		return session.FutureEvent{}, fmt.Errorf("unmarshal future event: %w", err)
	}
	return ev, nil
}
