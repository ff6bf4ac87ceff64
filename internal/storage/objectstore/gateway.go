package objectstore

import "context"

// Gateway is a blob.Gateway storing the state as one object; PutObject replaces it whole
type Gateway struct {
	client *Client
	key    string
}

// Load fetches the state object; a missing object is a first run
func (g *Gateway) Load(ctx context.Context) ([]byte, error) {
	return g.client.get(ctx, g.key)
}

// Save uploads the state object
func (g *Gateway) Save(ctx context.Context, data []byte) error {
	if err := g.client.put(ctx, g.key, data); err != nil {
		return err
	}
	g.client.log.Debug("State saved", "key", g.key, "bytes", len(data))
	return nil
}
