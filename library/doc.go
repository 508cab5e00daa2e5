// Package library caches Backloggery game libraries per user and searches them.
//
// A Client wraps a Fetcher (normally *backloggery.Client). The first
// GetLibrary call for a username fetches and decodes the user's games; later
// calls are served from memory until Refresh or Invalidate is called.
//
//	client := library.NewClient(api, logger)
//	lib, err := client.SearchLibrary(ctx, "Drumble", map[string]string{
//		"abbr":  "(?i)gcn",
//		"title": "(?i)mario",
//	}, false)
package library
