// Package memory ranks stored user facts by relevance to a query and
// retrieves them for prompt assembly.
package memory

import (
	"sort"
	"strings"
	"unicode"

	"github.com/hrygo/weathersense/store"
)

const (
	// MaxRetrieved bounds how many facts a single retrieval may return.
	MaxRetrieved = 20

	minTokenLen = 3
)

// typeBoosts weights fact kinds by how useful they are for weather queries.
var typeBoosts = map[string]float64{
	"preferred_city":      2.0,
	"location_preference": 1.8,
	"activity_interest":   1.4,
	"schedule_pattern":    1.2,
	"weather_preference":  1.0,
}

// Tokenize lowercases the text and splits it into letter or digit runs of
// at least three characters. Classification is unicode-aware so accented
// city names stay whole.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)

	var tokens []string
	var current []rune
	flush := func() {
		if len(current) >= minTokenLen {
			tokens = append(tokens, string(current))
		}
		current = current[:0]
	}
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current = append(current, r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

// Score computes the relevance of a fact to the query tokens. Token overlap
// with the fact value counts double against overlap with the source message;
// importance and a per-kind boost are added on top. A fact sharing no token
// with a non-empty query keeps only half its score.
func Score(queryTokens []string, fact *store.MemoryFact) float64 {
	valueOverlap := overlapCount(queryTokens, Tokenize(fact.Value))
	sourceOverlap := overlapCount(queryTokens, Tokenize(fact.SourceMessage))

	score := float64(valueOverlap)*2 + float64(sourceOverlap) + fact.Importance + typeBoost(fact.MemoryType)
	if len(queryTokens) > 0 && valueOverlap == 0 && sourceOverlap == 0 {
		score /= 2
	}
	return score
}

// Rank orders facts by descending relevance to the query, breaking ties by
// recency of use, and returns at most limit facts (clamped to [1, MaxRetrieved]).
func Rank(query string, facts []*store.MemoryFact, limit int) []*store.MemoryFact {
	if limit < 1 {
		limit = 1
	}
	if limit > MaxRetrieved {
		limit = MaxRetrieved
	}

	queryTokens := Tokenize(query)

	type scored struct {
		fact  *store.MemoryFact
		score float64
	}
	ranked := make([]scored, 0, len(facts))
	for _, fact := range facts {
		if fact == nil {
			continue
		}
		ranked = append(ranked, scored{fact: fact, score: Score(queryTokens, fact)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].fact.LastUsedTs > ranked[j].fact.LastUsedTs
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	selected := make([]*store.MemoryFact, len(ranked))
	for i, item := range ranked {
		selected[i] = item.fact
	}
	return selected
}

func typeBoost(memoryType string) float64 {
	if boost, ok := typeBoosts[memoryType]; ok {
		return boost
	}
	return 1.0
}

func overlapCount(queryTokens, factTokens []string) int {
	if len(queryTokens) == 0 || len(factTokens) == 0 {
		return 0
	}
	factSet := make(map[string]struct{}, len(factTokens))
	for _, token := range factTokens {
		factSet[token] = struct{}{}
	}
	count := 0
	seen := make(map[string]struct{}, len(queryTokens))
	for _, token := range queryTokens {
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		if _, ok := factSet[token]; ok {
			count++
		}
	}
	return count
}
