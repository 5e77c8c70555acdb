package memory

import (
	"context"
	"log/slog"

	"github.com/hrygo/weathersense/store"
)

// maxCandidateFacts caps how many stored facts one ranking pass considers.
const maxCandidateFacts = 500

// Service retrieves ranked memory facts for a user and marks them used.
type Service struct {
	store *store.Store
}

// NewService creates a memory retrieval service over the store.
func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// RetrieveRelevant loads the user's facts, ranks them against the query and
// touches the last-used timestamp of every returned fact.
func (s *Service) RetrieveRelevant(ctx context.Context, userID, query string, limit int) ([]*store.MemoryFact, error) {
	facts, err := s.store.ListMemoryFacts(ctx, userID, nil, maxCandidateFacts)
	if err != nil {
		return nil, err
	}
	if len(facts) == 0 {
		return nil, nil
	}

	selected := Rank(query, facts, limit)
	if len(selected) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(selected))
	for _, fact := range selected {
		ids = append(ids, fact.ID)
	}
	if err := s.store.TouchMemoryFacts(ctx, userID, ids); err != nil {
		// Retrieval already succeeded; a failed touch only skews future ranking.
		slog.Warn("failed to touch memory facts", "user_id", userID, "err", err)
	}
	return selected, nil
}

// PreferredCity returns the highest-ranked preferred_city fact value, or ""
// when the user has none.
func (s *Service) PreferredCity(ctx context.Context, userID string) (string, error) {
	facts, err := s.store.ListMemoryFacts(ctx, userID, []string{"preferred_city"}, maxCandidateFacts)
	if err != nil {
		return "", err
	}
	if len(facts) == 0 {
		return "", nil
	}
	ranked := Rank("", facts, 1)
	if len(ranked) == 0 {
		return "", nil
	}
	return ranked[0].Value, nil
}
