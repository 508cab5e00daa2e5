package library

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// GetLibraries gets or fetches several libraries with bounded concurrency.
// The first failure stops waiting on the remaining fetches; libraries that
// finish fetching still get cached.
func (c *Client) GetLibraries(ctx context.Context, usernames []string) (map[string]Library, error) {
	libs := make(map[string]Library, len(usernames))
	if len(usernames) == 0 {
		return libs, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	var mu sync.Mutex
	seen := make(map[string]struct{}, len(usernames))

	for _, username := range usernames {
		if _, dup := seen[username]; dup {
			continue
		}
		seen[username] = struct{}{}

		g.Go(func() error {
			lib, err := c.GetLibrary(ctx, username)
			if err != nil {
				return err
			}

			mu.Lock()
			libs[username] = lib
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return libs, nil
}
