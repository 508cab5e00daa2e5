package library

import (
	"context"
	"encoding/json"

	"github.com/s0up4200/backloggery/filter"
	"github.com/s0up4200/backloggery/game"
)

// Fetcher retrieves raw records from the remote service
type Fetcher interface {
	FetchLibrary(ctx context.Context, username string) ([]json.RawMessage, error)
	FetchGameInfo(ctx context.Context, id int64) (json.RawMessage, error)
}

// Formatter renders libraries and games for display
type Formatter interface {
	FormatLibrary(lib Library, options FormatOptions) string
	FormatGame(g game.Record, options FormatOptions) string
	FormatTitleMatches(username string, matches []filter.TitleMatch) string
	FormatCached(libs []Library) string
}
