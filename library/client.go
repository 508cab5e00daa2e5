package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/s0up4200/backloggery/backloggery"
	"github.com/s0up4200/backloggery/filter"
	"github.com/s0up4200/backloggery/game"
)

var (
	// ErrEmptyUsername is returned for operations that need a username
	ErrEmptyUsername = errors.New("username is required")
	// ErrInvalidGameID is returned for non-positive game instance ids
	ErrInvalidGameID = errors.New("game instance id must be positive")
)

// DefaultConcurrency bounds GetLibraries when no concurrency is configured
const DefaultConcurrency = 4

// Client fetches, caches and searches game libraries
type Client struct {
	fetcher     Fetcher
	store       *Store
	now         func() time.Time
	compiler    *filter.Compiler
	evaluator   *filter.ConcurrentEvaluator
	concurrency int
	group       singleflight.Group
	logger      zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithStore shares a cache store between clients
func WithStore(store *Store) Option {
	return func(c *Client) {
		if store != nil {
			c.store = store
		}
	}
}

// WithClock sets the time source used for FetchedAt
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithCompiler sets the compiler used for searches
func WithCompiler(compiler *filter.Compiler) Option {
	return func(c *Client) {
		if compiler != nil {
			c.compiler = compiler
		}
	}
}

// WithEvaluator sets the evaluator used for searches
func WithEvaluator(evaluator *filter.ConcurrentEvaluator) Option {
	return func(c *Client) {
		if evaluator != nil {
			c.evaluator = evaluator
		}
	}
}

// WithConcurrency bounds how many libraries GetLibraries fetches at once
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewClient creates a client backed by fetcher with an empty cache
func NewClient(fetcher Fetcher, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		fetcher:     fetcher,
		store:       NewStore(),
		now:         time.Now,
		compiler:    filter.NewCompiler(),
		evaluator:   filter.NewConcurrentEvaluator(),
		concurrency: DefaultConcurrency,
		logger:      logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetLibrary returns the cached library for username, fetching it first if
// it is not cached. Concurrent calls for the same username share one fetch.
func (c *Client) GetLibrary(ctx context.Context, username string) (Library, error) {
	if username == "" {
		return Library{}, ErrEmptyUsername
	}

	if lib, ok := c.store.Get(username); ok {
		return lib, nil
	}

	return c.shared(ctx, "get:"+username, func(ctx context.Context) (Library, error) {
		if lib, ok := c.store.Get(username); ok {
			return lib, nil
		}
		return c.fetchAndStore(ctx, username)
	})
}

// Refresh fetches username's library unconditionally and replaces the cached
// entry. On failure the previous entry, if any, is left as it was.
func (c *Client) Refresh(ctx context.Context, username string) (Library, error) {
	if username == "" {
		return Library{}, ErrEmptyUsername
	}

	return c.shared(ctx, "refresh:"+username, func(ctx context.Context) (Library, error) {
		return c.fetchAndStore(ctx, username)
	})
}

// shared runs fn once per key for all concurrent callers. The fetch is
// detached from the cancellation of the caller that started it; each caller
// stops waiting when its own ctx is done.
func (c *Client) shared(ctx context.Context, key string, fn func(context.Context) (Library, error)) (Library, error) {
	if err := ctx.Err(); err != nil {
		return Library{}, err
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return fn(detached)
	})

	select {
	case <-ctx.Done():
		return Library{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Library{}, res.Err
		}
		if res.Shared {
			c.logger.Trace().Str("key", key).Msg("Shared in-flight library fetch")
		}
		return res.Val.(Library).clone(), nil
	}
}

// Invalidate drops the cached library for username
func (c *Client) Invalidate(username string) bool {
	return c.store.Delete(username)
}

// Cached returns the cached library without fetching
func (c *Client) Cached(username string) (Library, bool) {
	return c.store.Get(username)
}

// Usernames returns the usernames with a cached library, sorted
func (c *Client) Usernames() []string {
	return c.store.Usernames()
}

// GetGame fetches a single game instance. The result is not cached.
func (c *Client) GetGame(ctx context.Context, id int64) (game.Record, error) {
	if id <= 0 {
		return game.Record{}, fmt.Errorf("%w: %d", ErrInvalidGameID, id)
	}

	raw, err := c.fetcher.FetchGameInfo(ctx, id)
	if err != nil {
		return game.Record{}, fmt.Errorf("failed to get game %d: %w", id, err)
	}

	rec, err := decodeRecord(raw)
	if err != nil {
		return game.Record{}, fmt.Errorf("failed to decode game %d: %w", id, err)
	}

	return rec, nil
}

// SearchLibrary returns the games in username's library matching every
// predicate, or any predicate when matchAny is set. Order is preserved and
// FetchedAt is that of the cached library.
func (c *Client) SearchLibrary(ctx context.Context, username string, predicates map[string]string, matchAny bool) (Library, error) {
	f, err := c.compiler.CompilePredicates(predicates, filter.ModeFor(matchAny))
	if err != nil {
		return Library{}, err
	}
	return c.SearchLibraryWith(ctx, username, f)
}

// SearchLibraryExpr is SearchLibrary with an expression filter
func (c *Client) SearchLibraryExpr(ctx context.Context, username, expression string) (Library, error) {
	f, err := c.compiler.Compile(expression)
	if err != nil {
		return Library{}, err
	}
	return c.SearchLibraryWith(ctx, username, f)
}

// SearchLibraryWith filters username's library with f
func (c *Client) SearchLibraryWith(ctx context.Context, username string, f filter.Filter) (Library, error) {
	lib, err := c.GetLibrary(ctx, username)
	if err != nil {
		return Library{}, err
	}

	matches, err := c.evaluator.Evaluate(ctx, f, lib.Games)
	if err != nil {
		return Library{}, err
	}

	c.logger.Debug().
		Str("username", username).
		Int("total", len(lib.Games)).
		Int("matched", len(matches)).
		Msg("Searched library")

	return Library{
		Username:  lib.Username,
		FetchedAt: lib.FetchedAt,
		Games:     matches,
	}, nil
}

// FindTitles ranks username's games by a fuzzy match of query against their
// titles. It returns the library's FetchedAt alongside the matches.
func (c *Client) FindTitles(ctx context.Context, username, query string) (time.Time, []filter.TitleMatch, error) {
	lib, err := c.GetLibrary(ctx, username)
	if err != nil {
		return time.Time{}, nil, err
	}
	return lib.FetchedAt, filter.FindTitles(query, lib.Games), nil
}

// fetchAndStore fetches and decodes a library and caches it on success,
// unless a newer fetch, Invalidate or Clear landed while it was in flight
func (c *Client) fetchAndStore(ctx context.Context, username string) (Library, error) {
	ticket := c.store.Begin()

	raws, err := c.fetcher.FetchLibrary(ctx, username)
	if err != nil {
		return Library{}, fmt.Errorf("failed to get library for %s: %w", username, err)
	}
	if len(raws) == 0 {
		return Library{}, fmt.Errorf("failed to get library for %s: %w", username, &backloggery.NoDataError{Key: username})
	}

	games := make([]game.Record, 0, len(raws))
	for i, raw := range raws {
		rec, err := decodeRecord(raw)
		if err != nil {
			return Library{}, fmt.Errorf("failed to decode game %d of %s's library: %w", i, username, err)
		}
		games = append(games, rec)
	}

	lib := Library{
		Username:  username,
		FetchedAt: c.now(),
		Games:     games,
	}
	if !c.store.PutIfNewer(lib, ticket) {
		c.logger.Debug().
			Str("username", username).
			Msg("Discarded stale library fetch")
		if current, ok := c.store.Get(username); ok {
			return current, nil
		}
		return lib, nil
	}

	c.logger.Debug().
		Str("username", username).
		Int("games", len(games)).
		Time("fetched_at", lib.FetchedAt).
		Msg("Fetched library from Backloggery")

	return lib, nil
}

func decodeRecord(raw json.RawMessage) (game.Record, error) {
	rec, err := game.ParseRawRecord(raw)
	if err != nil {
		return game.Record{}, err
	}
	return game.Decorate(rec), nil
}
