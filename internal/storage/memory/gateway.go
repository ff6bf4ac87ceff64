// Package memory keeps the state blob in process memory. Used in tests and
// for throwaway demo runs.
package memory

import (
	"context"
	"sync"
)

// Gateway is an in-memory blob.Gateway
type Gateway struct {
	mu      sync.Mutex
	data    []byte
	saves   int
	failErr error
}

// NewGateway creates an empty gateway
func NewGateway() *Gateway {
	return &Gateway{}
}

// NewGatewayWithData creates a gateway pre-loaded with a stored blob
func NewGatewayWithData(data []byte) *Gateway {
	return &Gateway{data: append([]byte(nil), data...)}
}

// Load returns a copy of the stored blob, or nil on first run
func (g *Gateway) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failErr != nil {
		return nil, g.failErr
	}
	if g.data == nil {
		return nil, nil
	}
	return append([]byte(nil), g.data...), nil
}

// Save replaces the stored blob
func (g *Gateway) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failErr != nil {
		return g.failErr
	}
	g.data = append([]byte(nil), data...)
	g.saves++
	return nil
}

// Saves reports how many successful saves have been made
func (g *Gateway) Saves() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.saves
}

// Data returns a copy of the last saved blob
func (g *Gateway) Data() []byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]byte(nil), g.data...)
}

// FailWith makes every subsequent call return err; nil restores normal operation
func (g *Gateway) FailWith(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failErr = err
}
