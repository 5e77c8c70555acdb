package store

import (
	"context"
	"strings"
	"time"

	"github.com/hrygo/weathersense/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// GetUserProfile returns the stored profile for a user, or the default
// profile when no row exists. It never returns nil on success.
func (s *Store) GetUserProfile(ctx context.Context, userID string) (*UserProfile, error) {
	uid := NormalizeUserID(userID)
	stored, err := s.driver.GetUserProfile(ctx, uid)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return DefaultUserProfile(uid), nil
	}
	if stored.PersonaID == "" {
		stored.PersonaID = DefaultPersonaID
	}
	stored.Units = ValidUnits(string(stored.Units))
	stored.ResponseStyle = ValidResponseStyle(string(stored.ResponseStyle))
	return stored, nil
}

// UpsertUserProfile merges the given fields over the stored row and writes
// the result. Nil fields keep the stored value; last write wins on the row.
func (s *Store) UpsertUserProfile(ctx context.Context, upsert *UpsertUserProfile) (*UserProfile, error) {
	existing, err := s.GetUserProfile(ctx, upsert.UserID)
	if err != nil {
		return nil, err
	}

	merged := *existing
	if upsert.PersonaID != nil && strings.TrimSpace(*upsert.PersonaID) != "" {
		merged.PersonaID = NormalizeText(*upsert.PersonaID)
	}
	if upsert.PreferredCity != nil {
		merged.PreferredCity = strings.TrimSpace(*upsert.PreferredCity)
	}
	if upsert.Units != nil {
		merged.Units = ValidUnits(string(*upsert.Units))
	}
	if upsert.ResponseStyle != nil {
		merged.ResponseStyle = ValidResponseStyle(string(*upsert.ResponseStyle))
	}
	merged.UpdatedTs = time.Now().Unix()

	return s.driver.UpsertUserProfile(ctx, &merged)
}

// AppendConversationTurn appends one turn to the per-user log. Blank
// messages are dropped and reported as turn id 0.
func (s *Store) AppendConversationTurn(ctx context.Context, userID string, role Role, message string) (int64, error) {
	payload := strings.TrimSpace(message)
	if payload == "" {
		return 0, nil
	}
	turn := &ConversationTurn{
		UserID:    NormalizeUserID(userID),
		Role:      ValidRole(string(role)),
		Message:   clipRunes(payload, maxTurnMessageLen),
		CreatedTs: time.Now().Unix(),
	}
	return s.driver.AppendConversationTurn(ctx, turn)
}

// ListConversationTurns returns the most recent turns in display order
// (oldest first). The limit is bounded to [1, 50].
func (s *Store) ListConversationTurns(ctx context.Context, userID string, limit int) ([]*ConversationTurn, error) {
	find := &FindConversationTurns{
		UserID: NormalizeUserID(userID),
		Limit:  boundLimit(limit, 50),
	}
	turns, err := s.driver.ListConversationTurns(ctx, find)
	if err != nil {
		return nil, err
	}
	// The driver reads reverse-chronologically; flip for display.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// UpsertMemoryFact writes a deduplicated fact. Facts with a blank type or
// value after normalization are dropped and reported as nil.
func (s *Store) UpsertMemoryFact(ctx context.Context, upsert *UpsertMemoryFact) (*MemoryFact, error) {
	kind := NormalizeText(upsert.MemoryType)
	value := strings.TrimSpace(upsert.Value)
	normalized := NormalizeText(value)
	if kind == "" || normalized == "" {
		return nil, nil
	}

	prepared := &UpsertMemoryFact{
		UserID:        NormalizeUserID(upsert.UserID),
		MemoryType:    kind,
		Value:         clipRunes(value, maxFactValueLen),
		Importance:    ClampImportance(upsert.Importance),
		SourceTurn:    strings.TrimSpace(upsert.SourceTurn),
		SourceMessage: clipRunes(strings.TrimSpace(upsert.SourceMessage), maxSourceMessageLen),
	}
	return s.driver.UpsertMemoryFact(ctx, prepared)
}

// ListMemoryFacts returns facts ordered by importance then recency.
// The limit is bounded to [1, 500].
func (s *Store) ListMemoryFacts(ctx context.Context, userID string, memoryTypes []string, limit int) ([]*MemoryFact, error) {
	cleaned := make([]string, 0, len(memoryTypes))
	for _, item := range memoryTypes {
		if normalized := NormalizeText(item); normalized != "" {
			cleaned = append(cleaned, normalized)
		}
	}
	find := &FindMemoryFacts{
		UserID:      NormalizeUserID(userID),
		MemoryTypes: cleaned,
		Limit:       boundLimit(limit, 500),
	}
	return s.driver.ListMemoryFacts(ctx, find)
}

// TouchMemoryFacts refreshes last_used_at on the given facts.
func (s *Store) TouchMemoryFacts(ctx context.Context, userID string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return s.driver.TouchMemoryFacts(ctx, NormalizeUserID(userID), ids, time.Now().Unix())
}

// ClearUserMemory deletes a user's facts and conversation log. The profile
// row is deleted only when clearProfile is set; otherwise its preferred city
// is reset.
func (s *Store) ClearUserMemory(ctx context.Context, userID string, clearProfile bool) (*ClearMemoryResult, error) {
	return s.driver.ClearUserMemory(ctx, NormalizeUserID(userID), clearProfile)
}

func boundLimit(limit, max int) int {
	if limit < 1 {
		return 1
	}
	if limit > max {
		return max
	}
	return limit
}
