package backloggery

import (
	"context"
	"encoding/json"
)

// API defines the remote operations the service supports
type API interface {
	// FetchLibrary returns the raw game objects tracked by username
	FetchLibrary(ctx context.Context, username string) ([]json.RawMessage, error)

	// FetchGameInfo returns the raw object for one game instance
	FetchGameInfo(ctx context.Context, id int64) (json.RawMessage, error)
}

var _ API = (*Client)(nil)
