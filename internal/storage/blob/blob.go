// Package blob defines the persistence gateway contract: the whole application
// state is loaded and saved as one opaque JSON document.
package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gravadigital/urna-api/internal/domain/profile"
	"github.com/gravadigital/urna-api/internal/domain/workspace"
)

// ErrMalformedState wraps any payload that cannot be decoded into an AppState
var ErrMalformedState = errors.New("malformed application state")

// Gateway loads and saves the encoded root. Load returns (nil, nil) on first run.
// Save must replace the stored blob atomically.
type Gateway interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// Encode renders state as indented JSON
func Encode(state *workspace.AppState) ([]byte, error) {
	if state == nil {
		return nil, fmt.Errorf("cannot encode nil state")
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return data, nil
}

// Decode parses a stored or imported document. Unknown fields are ignored and
// missing ones default; anything else wrong is reported as ErrMalformedState.
func Decode(data []byte, seed profile.Profile) (*workspace.AppState, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedState)
	}

	var state workspace.AppState
	if err := json.Unmarshal(trimmed, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}

	state.Normalize(seed)
	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	if err := state.Upgrade(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	return &state, nil
}
