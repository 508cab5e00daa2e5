package filter

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/s0up4200/backloggery/game"
)

// TitleMatch is a game whose title fuzzily matched a query
type TitleMatch struct {
	Game           game.Record
	Score          int   // higher is better
	MatchedIndexes []int // byte positions in the title that matched
}

// titleIndex implements fuzzy.Source over game titles
type titleIndex struct {
	games       []game.Record
	lowerTitles []string
}

func newTitleIndex(games []game.Record) *titleIndex {
	idx := &titleIndex{
		games:       games,
		lowerTitles: make([]string, len(games)),
	}
	for i, g := range games {
		idx.lowerTitles[i] = strings.ToLower(g.Title())
	}
	return idx
}

// String returns the lowercase title at index i (implements fuzzy.Source)
func (idx *titleIndex) String(i int) string { return idx.lowerTitles[i] }

// Len returns the number of games (implements fuzzy.Source)
func (idx *titleIndex) Len() int { return len(idx.games) }

// FindTitles ranks games whose titles contain the characters of query in
// order. Matching is case-insensitive; best matches come first.
func FindTitles(query string, games []game.Record) []TitleMatch {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || len(games) == 0 {
		return nil
	}

	found := fuzzy.FindFrom(query, newTitleIndex(games))
	matches := make([]TitleMatch, 0, len(found))
	for _, m := range found {
		matches = append(matches, TitleMatch{
			Game:           games[m.Index],
			Score:          m.Score,
			MatchedIndexes: m.MatchedIndexes,
		})
	}
	return matches
}
