package agent

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/weathersense/plugin/weather"
	"github.com/hrygo/weathersense/store"
)

// memDriver is an in-memory store.Driver for orchestration tests.
type memDriver struct {
	mu       sync.Mutex
	profiles map[string]*store.UserProfile
	turns    []*store.ConversationTurn
	facts    map[string]*store.MemoryFact
	nextID   int64
}

func newMemDriver() *memDriver {
	return &memDriver{
		profiles: map[string]*store.UserProfile{},
		facts:    map[string]*store.MemoryFact{},
	}
}

func (d *memDriver) Migrate(context.Context) error { return nil }
func (d *memDriver) Close() error                  { return nil }

func (d *memDriver) GetUserProfile(_ context.Context, userID string) (*store.UserProfile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if profile, ok := d.profiles[userID]; ok {
		copied := *profile
		return &copied, nil
	}
	return nil, nil
}

func (d *memDriver) UpsertUserProfile(_ context.Context, profile *store.UserProfile) (*store.UserProfile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	copied := *profile
	d.profiles[profile.UserID] = &copied
	returned := copied
	return &returned, nil
}

func (d *memDriver) AppendConversationTurn(_ context.Context, turn *store.ConversationTurn) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	turn.ID = d.nextID
	d.turns = append(d.turns, turn)
	return turn.ID, nil
}

func (d *memDriver) ListConversationTurns(_ context.Context, find *store.FindConversationTurns) ([]*store.ConversationTurn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var selected []*store.ConversationTurn
	for i := len(d.turns) - 1; i >= 0 && len(selected) < find.Limit; i-- {
		if d.turns[i].UserID == find.UserID {
			selected = append(selected, d.turns[i])
		}
	}
	return selected, nil
}

func (d *memDriver) UpsertMemoryFact(_ context.Context, upsert *store.UpsertMemoryFact) (*store.MemoryFact, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := upsert.UserID + "|" + upsert.MemoryType + "|" + strings.ToLower(upsert.Value)
	fact, ok := d.facts[key]
	if !ok {
		d.nextID++
		fact = &store.MemoryFact{
			ID:              d.nextID,
			UserID:          upsert.UserID,
			MemoryType:      upsert.MemoryType,
			Value:           upsert.Value,
			NormalizedValue: strings.ToLower(upsert.Value),
		}
		d.facts[key] = fact
	}
	if upsert.Importance > fact.Importance {
		fact.Importance = upsert.Importance
	}
	fact.SourceMessage = upsert.SourceMessage
	copied := *fact
	return &copied, nil
}

func (d *memDriver) ListMemoryFacts(_ context.Context, find *store.FindMemoryFacts) ([]*store.MemoryFact, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var selected []*store.MemoryFact
	for _, fact := range d.facts {
		if fact.UserID != find.UserID {
			continue
		}
		if len(find.MemoryTypes) > 0 && !containsString(find.MemoryTypes, fact.MemoryType) {
			continue
		}
		copied := *fact
		selected = append(selected, &copied)
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].ID < selected[j].ID })
	if find.Limit > 0 && len(selected) > find.Limit {
		selected = selected[:find.Limit]
	}
	return selected, nil
}

func (d *memDriver) TouchMemoryFacts(_ context.Context, userID string, ids []int64, ts int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, fact := range d.facts {
		if fact.UserID != userID {
			continue
		}
		for _, id := range ids {
			if fact.ID == id {
				fact.LastUsedTs = ts
			}
		}
	}
	return nil
}

func (d *memDriver) ClearUserMemory(_ context.Context, userID string, clearProfile bool) (*store.ClearMemoryResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := &store.ClearMemoryResult{}
	var kept []*store.ConversationTurn
	for _, turn := range d.turns {
		if turn.UserID == userID {
			result.ConversationDeleted++
			continue
		}
		kept = append(kept, turn)
	}
	d.turns = kept
	for key, fact := range d.facts {
		if fact.UserID == userID {
			delete(d.facts, key)
			result.FactsDeleted++
		}
	}
	if clearProfile {
		if _, ok := d.profiles[userID]; ok {
			delete(d.profiles, userID)
			result.ProfileDeleted = 1
		}
	}
	return result, nil
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}

// scriptedFetcher returns canned payloads in order, repeating the last one.
type scriptedFetcher struct {
	payloads []*weather.Payload
	queries  []string
	calls    int
}

func (f *scriptedFetcher) Fetch(_ context.Context, toolInput string, _ time.Time) *weather.Payload {
	f.queries = append(f.queries, toolInput)
	idx := f.calls
	if idx >= len(f.payloads) {
		idx = len(f.payloads) - 1
	}
	f.calls++
	return f.payloads[idx]
}

func okPayload(location string, rain int) *weather.Payload {
	temp := 24.5
	humidity := 60
	wind := 3.0
	return &weather.Payload{
		Status:   weather.StatusOK,
		Source:   "openweather",
		Location: location,
		Current: &weather.CurrentConditions{
			TemperatureC:    &temp,
			HumidityPercent: &humidity,
			WindSpeedMps:    &wind,
			Description:     "scattered clouds",
		},
		RainProbabilityPercent: &rain,
		SevereAlerts:           []weather.Alert{},
	}
}

func newTestStore() *store.Store {
	return store.New(newMemDriver(), nil)
}

func TestRun_MemoryCityRetry(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()

	city := "Chennai"
	_, err := st.UpsertUserProfile(ctx, &store.UpsertUserProfile{
		UserID:        "amit",
		PreferredCity: &city,
	})
	require.NoError(t, err)

	fetcher := &scriptedFetcher{payloads: []*weather.Payload{
		{Status: weather.StatusNeedsLocation, Message: weather.NeedsLocationMessage},
		okPayload("Chennai", 70),
	}}
	orc := NewOrchestrator(st, fetcher, nil, 0)

	result := orc.Run(ctx, &Request{
		UserID:   "amit",
		Message:  "Should I carry an umbrella?",
		Remember: true,
	})

	require.Equal(t, weather.StatusOK, result.Payload.Status)
	assert.Equal(t, 2, fetcher.calls)
	assert.Contains(t, fetcher.queries[1], "Chennai")
	assert.Equal(t, "Chennai", result.ResolvedCity)

	reasons := reflectReasons(result.Trace)
	assert.Contains(t, reasons, "retry_with_memory_city")
	assert.Contains(t, reasons, "data_sufficient")
}

func TestRun_AmbiguousStopsImmediately(t *testing.T) {
	ctx := context.Background()
	fetcher := &scriptedFetcher{payloads: []*weather.Payload{{
		Status:   weather.StatusAmbiguousLocation,
		Message:  "Please clarify the location: 'Georgia or Florida'.",
		Location: "Georgia or Florida",
	}}}
	orc := NewOrchestrator(newTestStore(), fetcher, nil, 0)

	result := orc.Run(ctx, &Request{
		UserID:  "guest",
		Message: "weather in Georgia or Florida",
	})

	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, "Please clarify the location: 'Georgia or Florida'.", result.ResponseText)

	reasons := reflectReasons(result.Trace)
	assert.Contains(t, reasons, "ambiguous_location")
}

func TestRun_BoundedByMaxSteps(t *testing.T) {
	ctx := context.Background()
	fetcher := &scriptedFetcher{payloads: []*weather.Payload{{
		Status:  weather.StatusServiceUnavailable,
		Message: weather.LiveDataUnavailable,
	}}}
	orc := NewOrchestrator(newTestStore(), fetcher, nil, 0)

	result := orc.Run(ctx, &Request{
		UserID:   "guest",
		Message:  "weather in Paris",
		MaxSteps: 2,
	})

	assert.Equal(t, 2, fetcher.calls)
	assert.Equal(t, weather.LiveDataUnavailable, result.ResponseText)

	reasons := reflectReasons(result.Trace)
	assert.Contains(t, reasons, "status_service_unavailable_retry")
	assert.Contains(t, reasons, "status_service_unavailable")
}

func TestRun_AlwaysEndsWithStopDecision(t *testing.T) {
	ctx := context.Background()
	scenarios := []*weather.Payload{
		okPayload("Paris", 10),
		{Status: weather.StatusNeedsLocation},
		{Status: weather.StatusAmbiguousLocation, Message: "which one?"},
		{Status: weather.StatusServiceUnavailable},
	}
	for _, payload := range scenarios {
		fetcher := &scriptedFetcher{payloads: []*weather.Payload{payload}}
		orc := NewOrchestrator(newTestStore(), fetcher, nil, 0)
		result := orc.Run(ctx, &Request{UserID: "guest", Message: "weather in Paris"})

		require.LessOrEqual(t, fetcher.calls, DefaultMaxSteps)
		var lastStop bool
		for _, step := range result.Trace {
			if step.Phase == PhaseReflect {
				lastStop = step.Detail["decision"] == "stop"
			}
		}
		assert.True(t, lastStop, "status %s must end with a stop decision", payload.Status)
	}
}

func TestRun_WritesBackMemory(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	fetcher := &scriptedFetcher{payloads: []*weather.Payload{okPayload("Paris", 20)}}
	orc := NewOrchestrator(st, fetcher, nil, 0)

	result := orc.Run(ctx, &Request{
		UserID:   "sam",
		Message:  "What's the weather in Paris tomorrow?",
		Remember: true,
	})

	require.NotNil(t, result.Profile)
	assert.Equal(t, "Paris", result.Profile.PreferredCity)

	turns, err := st.ListConversationTurns(ctx, "sam", 10)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, store.RoleUser, turns[0].Role)
	assert.Equal(t, store.RoleAssistant, turns[1].Role)

	facts, err := st.ListMemoryFacts(ctx, "sam", []string{"preferred_city"}, 10)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "Paris", facts[0].Value)
	assert.Equal(t, 2.0, facts[0].Importance)
}

func TestRun_ClearMemoryAfterWriteBack(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	fetcher := &scriptedFetcher{payloads: []*weather.Payload{okPayload("Paris", 20)}}
	orc := NewOrchestrator(st, fetcher, nil, 0)

	orc.Run(ctx, &Request{
		UserID:   "sam",
		Message:  "What's the weather in Paris tomorrow?",
		Remember: true,
	})

	cleared, err := st.ClearUserMemory(ctx, "sam", true)
	require.NoError(t, err)
	assert.Equal(t, 2, cleared.ConversationDeleted)
	assert.Equal(t, 1, cleared.FactsDeleted)
	assert.Equal(t, 1, cleared.ProfileDeleted)

	profile, err := st.GetUserProfile(ctx, "sam")
	require.NoError(t, err)
	assert.Equal(t, store.DefaultPersonaID, profile.PersonaID)
	assert.Empty(t, profile.PreferredCity)
}

func TestRun_NoMemoryWritesWhenDisabled(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	fetcher := &scriptedFetcher{payloads: []*weather.Payload{okPayload("Paris", 20)}}
	orc := NewOrchestrator(st, fetcher, nil, 0)

	result := orc.Run(ctx, &Request{
		UserID:  "sam",
		Message: "What's the weather in Paris?",
	})

	assert.Nil(t, result.Profile)
	turns, err := st.ListConversationTurns(ctx, "sam", 10)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func reflectReasons(steps []Step) []string {
	var reasons []string
	for _, step := range steps {
		if step.Phase != PhaseReflect {
			continue
		}
		if reason, ok := step.Detail["reason"].(string); ok {
			reasons = append(reasons, reason)
		}
	}
	return reasons
}
