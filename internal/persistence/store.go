package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lowaak/circuit-timer/internal/workout"
)

// MergeMode selects how Set treats a value already stored under the key
type MergeMode int

const (
	// MergeReplace overwrites the stored value
	MergeReplace MergeMode = iota
	// MergeShallow overwrites only the top-level fields present in the new
	// value and keeps the others
	MergeShallow
)

func (m MergeMode) String() string {
	switch m {
	case MergeReplace:
		return "replace"
	case MergeShallow:
		return "merge"
	default:
		return fmt.Sprintf("MergeMode(%d)", int(m))
	}
}

// KeyedStore persists session records under a key
type KeyedStore interface {
	Get(ctx context.Context, key string) (workout.Record, bool, error)
	Set(ctx context.Context, key string, rec workout.Record, mode MergeMode) error
}

// encodeRecord returns the record as a JSON object
func encodeRecord(rec workout.Record) ([]byte, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding session record: %w", err)
	}
	return raw, nil
}

// decodeRecord parses a stored document. A document without an
// activeWorkout field holds no session.
func decodeRecord(raw []byte) (workout.Record, bool, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return workout.Record{}, false, fmt.Errorf("decoding session record: %w", err)
	}
	if _, ok := fields["activeWorkout"]; !ok {
		return workout.Record{}, false, nil
	}

	var rec workout.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return workout.Record{}, false, fmt.Errorf("decoding session record: %w", err)
	}
	return rec, true, nil
}

// mergeDocuments overlays the top-level fields of update onto existing
func mergeDocuments(existing, update []byte) ([]byte, error) {
	merged := map[string]json.RawMessage{}
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &merged); err != nil {
			return nil, fmt.Errorf("decoding stored document: %w", err)
		}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(update, &fields); err != nil {
		return nil, fmt.Errorf("decoding update: %w", err)
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}
