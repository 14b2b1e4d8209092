package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/harvest/internal/ir"
)

// marshalStacks converts a stack list to canonical JSON TEXT for storage.
func marshalStacks(stacks []ir.Stack) (string, error) {
	data, err := ir.MarshalCanonical(ir.CanonicalStacks(stacks))
	if err != nil {
		return "", fmt.Errorf("marshal stacks: %w", err)
	}
	return string(data), nil
}

// unmarshalStacks parses a stored stack list. Empty TEXT reads as no stacks.
func unmarshalStacks(data string) ([]ir.Stack, error) {
	stacks := []ir.Stack{}
	if data == "" {
		return stacks, nil
	}
	if err := json.Unmarshal([]byte(data), &stacks); err != nil {
		return nil, fmt.Errorf("unmarshal stacks: %w", err)
	}
	return stacks, nil
}
