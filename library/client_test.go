package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/backloggery/backloggery"
	"github.com/s0up4200/backloggery/filter"
	"github.com/s0up4200/backloggery/game"
)

// mockFetcher implements Fetcher for testing
type mockFetcher struct {
	mu        sync.Mutex
	libraries map[string][]string
	games     map[int64]string
	err       error
	delay     time.Duration

	// call number whose response waits for release to close
	heldCall int32
	release  chan struct{}

	// Track calls for verification
	libraryCalls atomic.Int32
	gameCalls    atomic.Int32
}

func (m *mockFetcher) FetchLibrary(ctx context.Context, username string) ([]json.RawMessage, error) {
	n := m.libraryCalls.Add(1)

	// snapshot the response before any wait, like a server answering late
	m.mu.Lock()
	err := m.err
	objs, ok := m.libraries[username]
	var release chan struct{}
	if n == m.heldCall {
		release = m.release
	}
	m.mu.Unlock()

	var wait <-chan time.Time
	if m.delay > 0 {
		wait = time.After(m.delay)
	}
	if release != nil || wait != nil {
		select {
		case <-wait:
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &backloggery.NoDataError{Key: username}
	}
	raws := make([]json.RawMessage, len(objs))
	for i, o := range objs {
		raws[i] = json.RawMessage(o)
	}
	return raws, nil
}

func (m *mockFetcher) FetchGameInfo(ctx context.Context, id int64) (json.RawMessage, error) {
	m.gameCalls.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	obj, ok := m.games[id]
	if !ok {
		return nil, &backloggery.NoDataError{Key: fmt.Sprint(id)}
	}
	return json.RawMessage(obj), nil
}

func (m *mockFetcher) setLibrary(username string, objs ...string) {
	m.mu.Lock()
	m.libraries[username] = objs
	m.mu.Unlock()
}

// holdCall makes the nth FetchLibrary call wait until the returned channel
// is closed
func (m *mockFetcher) holdCall(n int32) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.heldCall = n
	m.release = make(chan struct{})
	return m.release
}

func (m *mockFetcher) setErr(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// fakeClock advances one minute per call
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

func drumbleLibrary() []string {
	return []string{
		`{"game_inst_id": 1, "abbr": "GCN", "title": "Mario Kart: Double Dash!!", "status": 30, "priority": 40}`,
		`{"game_inst_id": 2, "abbr": "GCN", "title": "Metroid Prime", "status": 40, "priority": 50}`,
		`{"game_inst_id": 3, "abbr": "PS2", "title": "Mario Party?", "status": 20, "priority": 10}`,
		`{"game_inst_id": 4, "abbr": "GCN", "title": "Super Mario Sunshine", "status": 10, "priority": 80}`,
		`{"game_inst_id": 5, "abbr": "gcn", "title": "mario golf", "status": null}`,
	}
}

func newTestClient(t *testing.T, opts ...Option) (*Client, *mockFetcher) {
	t.Helper()

	fetcher := &mockFetcher{
		libraries: map[string][]string{"Drumble": drumbleLibrary()},
		games: map[int64]string{
			4021: `{"game_inst_id": 4021, "title": "F-Zero GX", "abbr": "GCN", "status": 30, "rating": 2, "notes": null}`,
		},
	}
	clock := &fakeClock{now: time.Date(2025, 6, 5, 4, 14, 34, 0, time.UTC)}

	logger := zerolog.New(nil).Level(zerolog.Disabled)
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return NewClient(fetcher, logger, opts...), fetcher
}

func titles(games []game.Record) []string {
	out := make([]string, len(games))
	for i, g := range games {
		out[i] = g.Title()
	}
	return out
}

func TestGetLibrary_Caching(t *testing.T) {
	client, fetcher := newTestClient(t)
	ctx := context.Background()

	first, err := client.GetLibrary(ctx, "Drumble")
	require.NoError(t, err)
	assert.Len(t, first.Games, 5)
	assert.Equal(t, "Drumble", first.Username)
	assert.Equal(t, int32(1), fetcher.libraryCalls.Load())

	second, err := client.GetLibrary(ctx, "Drumble")
	require.NoError(t, err)
	assert.Equal(t, int32(1), fetcher.libraryCalls.Load())
	assert.Equal(t, first.FetchedAt, second.FetchedAt)
	assert.Equal(t, titles(first.Games), titles(second.Games))
}

func TestGetLibrary_DecodesCategoricals(t *testing.T) {
	client, _ := newTestClient(t)

	lib, err := client.GetLibrary(context.Background(), "Drumble")
	require.NoError(t, err)

	assert.Equal(t, "Beaten", lib.Games[0].Label("status"))
	assert.Equal(t, "Normal", lib.Games[0].Label("priority"))
	assert.Equal(t, "High", lib.Games[1].Label("priority"))
	assert.Equal(t, "Now Playing", lib.Games[3].Label("priority"))

	// null categorical decodes to the empty label, absent stays absent
	status, ok := lib.Games[4].Get("status")
	require.True(t, ok)
	assert.Equal(t, game.StringValue(""), status)
	assert.False(t, lib.Games[4].Has("priority"))
}

func TestGetLibrary_CallerIsolation(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	lib, err := client.GetLibrary(ctx, "Drumble")
	require.NoError(t, err)
	lib.Games[0] = game.Record{}
	lib.Games = lib.Games[:1]

	again, err := client.GetLibrary(ctx, "Drumble")
	require.NoError(t, err)
	require.Len(t, again.Games, 5)
	assert.Equal(t, "Mario Kart: Double Dash!!", again.Games[0].Title())
}

func TestGetLibrary_Errors(t *testing.T) {
	client, fetcher := newTestClient(t)
	ctx := context.Background()

	_, err := client.GetLibrary(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyUsername)
	assert.Equal(t, int32(0), fetcher.libraryCalls.Load())

	_, err = client.GetLibrary(ctx, "nobody")
	require.Error(t, err)
	assert.ErrorIs(t, err, backloggery.ErrNoData)
	_, cached := client.Cached("nobody")
	assert.False(t, cached)

	// usernames are case sensitive
	_, err = client.GetLibrary(ctx, "drumble")
	assert.ErrorIs(t, err, backloggery.ErrNoData)
	assert.Empty(t, client.Usernames())
}

func TestGetLibrary_EmptyPayload(t *testing.T) {
	client, fetcher := newTestClient(t)
	fetcher.setLibrary("empty")

	_, err := client.GetLibrary(context.Background(), "empty")
	require.Error(t, err)
	assert.ErrorIs(t, err, backloggery.ErrNoData)

	_, cached := client.Cached("empty")
	assert.False(t, cached)
}

func TestGetLibrary_MalformedRecord(t *testing.T) {
	client, fetcher := newTestClient(t)
	fetcher.setLibrary("broken", `{"title": "ok"}`, `["not", "an", "object"]`)

	_, err := client.GetLibrary(context.Background(), "broken")
	require.Error(t, err)
	assert.ErrorIs(t, err, game.ErrMalformedRecord)

	_, cached := client.Cached("broken")
	assert.False(t, cached)
}

func TestGetLibrary_ConcurrentCallsShareFetch(t *testing.T) {
	client, fetcher := newTestClient(t)
	fetcher.delay = 50 * time.Millisecond

	ctx := context.Background()
	var wg sync.WaitGroup
	results := make([]Library, 8)
	errs := make([]error, 8)

	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = client.GetLibrary(ctx, "Drumble")
		}()
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Len(t, results[i].Games, 5)
		assert.Equal(t, results[0].FetchedAt, results[i].FetchedAt)
	}
	assert.Equal(t, int32(1), fetcher.libraryCalls.Load())
}

func TestSharedFetchSurvivesCallerTimeout(t *testing.T) {
	ops := map[string]func(*Client, context.Context) (Library, error){
		"get": func(c *Client, ctx context.Context) (Library, error) {
			return c.GetLibrary(ctx, "Drumble")
		},
		"refresh": func(c *Client, ctx context.Context) (Library, error) {
			return c.Refresh(ctx, "Drumble")
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			client, fetcher := newTestClient(t)
			fetcher.delay = 150 * time.Millisecond

			var wg sync.WaitGroup
			var impatientErr, patientErr error
			var patient Library

			wg.Add(2)
			go func() {
				defer wg.Done()
				ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
				defer cancel()
				_, impatientErr = op(client, ctx)
			}()
			require.Eventually(t, func() bool {
				return fetcher.libraryCalls.Load() == 1
			}, time.Second, time.Millisecond)
			go func() {
				defer wg.Done()
				patient, patientErr = op(client, context.Background())
			}()
			wg.Wait()

			assert.ErrorIs(t, impatientErr, context.DeadlineExceeded)
			require.NoError(t, patientErr)
			assert.Len(t, patient.Games, 5)
			assert.Equal(t, int32(1), fetcher.libraryCalls.Load())

			_, ok := client.Cached("Drumble")
			assert.True(t, ok)
		})
	}
}

func TestGetLibrary_CancelledBeforeCall(t *testing.T) {
	client, fetcher := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetLibrary(ctx, "Drumble")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), fetcher.libraryCalls.Load())
}

func TestGetLibrary_StaleFetchLosesToRefresh(t *testing.T) {
	client, fetcher := newTestClient(t)
	release := fetcher.holdCall(1)
	ctx := context.Background()

	done := make(chan Library, 1)
	go func() {
		lib, err := client.GetLibrary(ctx, "Drumble")
		assert.NoError(t, err)
		done <- lib
	}()
	require.Eventually(t, func() bool {
		return fetcher.libraryCalls.Load() == 1
	}, time.Second, time.Millisecond)

	fetcher.setLibrary("Drumble", `{"title": "Pikmin", "abbr": "GCN"}`)
	refreshed, err := client.Refresh(ctx, "Drumble")
	require.NoError(t, err)

	close(release)
	stale := <-done

	// the slow get answers with the newer entry instead of overwriting it
	assert.Equal(t, []string{"Pikmin"}, titles(stale.Games))
	cached, ok := client.Cached("Drumble")
	require.True(t, ok)
	assert.Equal(t, []string{"Pikmin"}, titles(cached.Games))
	assert.Equal(t, refreshed.FetchedAt, cached.FetchedAt)
}

func TestGetLibrary_InvalidateDuringFetch(t *testing.T) {
	client, fetcher := newTestClient(t)
	release := fetcher.holdCall(1)

	done := make(chan Library, 1)
	go func() {
		lib, err := client.GetLibrary(context.Background(), "Drumble")
		assert.NoError(t, err)
		done <- lib
	}()
	require.Eventually(t, func() bool {
		return fetcher.libraryCalls.Load() == 1
	}, time.Second, time.Millisecond)

	assert.False(t, client.Invalidate("Drumble"))
	close(release)

	lib := <-done
	assert.Len(t, lib.Games, 5)
	_, ok := client.Cached("Drumble")
	assert.False(t, ok)
}

func TestRefresh(t *testing.T) {
	client, fetcher := newTestClient(t)
	ctx := context.Background()

	before, err := client.GetLibrary(ctx, "Drumble")
	require.NoError(t, err)

	fetcher.setLibrary("Drumble", `{"title": "Pikmin", "abbr": "GCN"}`)

	after, err := client.Refresh(ctx, "Drumble")
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetcher.libraryCalls.Load())
	assert.True(t, after.FetchedAt.After(before.FetchedAt))
	assert.Equal(t, []string{"Pikmin"}, titles(after.Games))

	cached, ok := client.Cached("Drumble")
	require.True(t, ok)
	assert.Equal(t, after.FetchedAt, cached.FetchedAt)
	assert.Equal(t, []string{"Pikmin"}, titles(cached.Games))
}

func TestRefresh_FailureKeepsEntry(t *testing.T) {
	client, fetcher := newTestClient(t)
	ctx := context.Background()

	before, err := client.GetLibrary(ctx, "Drumble")
	require.NoError(t, err)

	fetcher.setErr(fmt.Errorf("%w: connection reset", backloggery.ErrTransport))

	_, err = client.Refresh(ctx, "Drumble")
	require.Error(t, err)
	assert.ErrorIs(t, err, backloggery.ErrTransport)

	cached, ok := client.Cached("Drumble")
	require.True(t, ok)
	assert.Equal(t, before.FetchedAt, cached.FetchedAt)
	assert.Len(t, cached.Games, 5)

	// an absent user stays absent
	_, err = client.Refresh(ctx, "someone")
	require.Error(t, err)
	_, ok = client.Cached("someone")
	assert.False(t, ok)
}

func TestInvalidate(t *testing.T) {
	client, fetcher := newTestClient(t)
	ctx := context.Background()

	_, err := client.GetLibrary(ctx, "Drumble")
	require.NoError(t, err)
	assert.Equal(t, []string{"Drumble"}, client.Usernames())

	assert.True(t, client.Invalidate("Drumble"))
	assert.False(t, client.Invalidate("Drumble"))
	assert.Empty(t, client.Usernames())

	_, err = client.GetLibrary(ctx, "Drumble")
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetcher.libraryCalls.Load())
}

func TestGetGame(t *testing.T) {
	client, fetcher := newTestClient(t)
	ctx := context.Background()

	rec, err := client.GetGame(ctx, 4021)
	require.NoError(t, err)
	assert.Equal(t, "F-Zero GX", rec.Title())
	assert.Equal(t, "Beaten", rec.Label("status"))
	assert.Equal(t, "1.0 Star", rec.Label("rating"))

	_, err = client.GetGame(ctx, 4021)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetcher.gameCalls.Load(), "single games are never cached")
	assert.Empty(t, client.Usernames())

	_, err = client.GetGame(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidGameID)

	_, err = client.GetGame(ctx, 99)
	assert.ErrorIs(t, err, backloggery.ErrNoData)
}

func TestSearchLibrary(t *testing.T) {
	client, fetcher := newTestClient(t)
	ctx := context.Background()
	predicates := map[string]string{"abbr": "(?i)gcn", "title": "(?i)mario"}

	all, err := client.SearchLibrary(ctx, "Drumble", predicates, false)
	require.NoError(t, err)
	// the title pattern is anchored at the start, so "Super Mario Sunshine" is out
	assert.Equal(t, []string{"Mario Kart: Double Dash!!", "mario golf"}, titles(all.Games))

	anyMatch, err := client.SearchLibrary(ctx, "Drumble", predicates, true)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Mario Kart: Double Dash!!",
		"Metroid Prime",
		"Mario Party?",
		"Super Mario Sunshine",
		"mario golf",
	}, titles(anyMatch.Games))

	lib, _ := client.Cached("Drumble")
	assert.Equal(t, lib.FetchedAt, all.FetchedAt)
	assert.Equal(t, int32(1), fetcher.libraryCalls.Load())
}

func TestSearchLibrary_EdgeCases(t *testing.T) {
	client, fetcher := newTestClient(t)
	ctx := context.Background()

	everything, err := client.SearchLibrary(ctx, "Drumble", map[string]string{}, false)
	require.NoError(t, err)
	assert.Len(t, everything.Games, 5)

	nothing, err := client.SearchLibrary(ctx, "Drumble", map[string]string{}, true)
	require.NoError(t, err)
	assert.Empty(t, nothing.Games)

	missing, err := client.SearchLibrary(ctx, "Drumble", map[string]string{"sub_abbr": ".*"}, false)
	require.NoError(t, err)
	assert.Empty(t, missing.Games)

	byLabel, err := client.SearchLibrary(ctx, "Drumble", map[string]string{"status": "Beaten|Completed"}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mario Kart: Double Dash!!", "Metroid Prime"}, titles(byLabel.Games))

	// a bad pattern fails before anything is fetched
	_, err = client.SearchLibrary(ctx, "someone", map[string]string{"title": "("}, false)
	var compErr *filter.CompilationError
	assert.ErrorAs(t, err, &compErr)
	assert.Equal(t, int32(1), fetcher.libraryCalls.Load())
}

func TestSearchLibraryExpr(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	lib, err := client.SearchLibraryExpr(ctx, "Drumble", `abbr == "GCN" and priority in ["High", "Now Playing"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Metroid Prime", "Super Mario Sunshine"}, titles(lib.Games))

	_, err = client.SearchLibraryExpr(ctx, "Drumble", "")
	assert.Error(t, err)
}

func TestSearchLibraryWith(t *testing.T) {
	client, _ := newTestClient(t)

	lib, err := client.SearchLibraryWith(context.Background(), "Drumble", filter.FilterFunc(func(g game.Record) bool {
		return strings.HasSuffix(g.Title(), "?")
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Mario Party?"}, titles(lib.Games))
}

func TestFindTitles(t *testing.T) {
	client, _ := newTestClient(t)

	fetchedAt, matches, err := client.FindTitles(context.Background(), "Drumble", "metroid")
	require.NoError(t, err)
	assert.False(t, fetchedAt.IsZero())
	require.NotEmpty(t, matches)
	assert.Equal(t, "Metroid Prime", matches[0].Game.Title())
}

func TestGetLibraries(t *testing.T) {
	client, fetcher := newTestClient(t, WithConcurrency(2))
	fetcher.setLibrary("transgwender", `{"title": "Celeste", "abbr": "PC"}`)
	ctx := context.Background()

	libs, err := client.GetLibraries(ctx, []string{"Drumble", "transgwender", "Drumble"})
	require.NoError(t, err)
	require.Len(t, libs, 2)
	assert.Len(t, libs["Drumble"].Games, 5)
	assert.Equal(t, []string{"Celeste"}, titles(libs["transgwender"].Games))
	assert.Equal(t, int32(2), fetcher.libraryCalls.Load())
	assert.Equal(t, []string{"Drumble", "transgwender"}, client.Usernames())

	_, err = client.GetLibraries(ctx, []string{"Drumble", "nobody"})
	assert.ErrorIs(t, err, backloggery.ErrNoData)

	empty, err := client.GetLibraries(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStore(t *testing.T) {
	store := NewStore()
	assert.Equal(t, 0, store.Len())

	rec, err := game.ParseRecord([]byte(`{"title": "Ico"}`))
	require.NoError(t, err)

	games := []game.Record{rec}
	store.Put(Library{Username: "b", Games: games})
	store.Put(Library{Username: "a"})
	games[0] = game.Record{}

	lib, ok := store.Get("b")
	require.True(t, ok)
	assert.Equal(t, "Ico", lib.Games[0].Title())
	assert.Equal(t, []string{"a", "b"}, store.Usernames())
	assert.Equal(t, 2, store.Len())

	assert.True(t, store.Delete("a"))
	store.Clear()
	assert.Equal(t, 0, store.Len())
}

func TestStorePutIfNewer(t *testing.T) {
	store := NewStore()
	at := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)

	older, newer := store.Begin(), store.Begin()
	assert.True(t, store.PutIfNewer(Library{Username: "a", FetchedAt: at.Add(time.Hour)}, newer))
	assert.False(t, store.PutIfNewer(Library{Username: "a", FetchedAt: at}, older))
	lib, _ := store.Get("a")
	assert.Equal(t, at.Add(time.Hour), lib.FetchedAt)

	pending := store.Begin()
	store.Delete("a")
	assert.False(t, store.PutIfNewer(Library{Username: "a"}, pending))
	assert.True(t, store.PutIfNewer(Library{Username: "a"}, store.Begin()))

	pending = store.Begin()
	store.Put(Library{Username: "b"})
	assert.False(t, store.PutIfNewer(Library{Username: "b", FetchedAt: at}, pending))

	pending = store.Begin()
	store.Clear()
	assert.False(t, store.PutIfNewer(Library{Username: "c"}, pending))
	assert.True(t, store.PutIfNewer(Library{Username: "c"}, store.Begin()))
	assert.Equal(t, []string{"c"}, store.Usernames())
}

func TestSharedStore(t *testing.T) {
	store := NewStore()
	first, fetcher := newTestClient(t, WithStore(store))
	second := NewClient(fetcher, zerolog.Nop(), WithStore(store))

	_, err := first.GetLibrary(context.Background(), "Drumble")
	require.NoError(t, err)

	_, ok := second.Cached("Drumble")
	assert.True(t, ok)
}

func TestClientErrorsWrapCause(t *testing.T) {
	client, fetcher := newTestClient(t)
	cause := errors.New("boom")
	fetcher.setErr(cause)

	_, err := client.GetLibrary(context.Background(), "Drumble")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "Drumble")
}
