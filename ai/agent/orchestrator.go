package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/weathersense/ai/memory"
	"github.com/hrygo/weathersense/plugin/weather"
	"github.com/hrygo/weathersense/server/queryengine"
	"github.com/hrygo/weathersense/store"
)

// DefaultMaxSteps bounds the deterministic retry loop.
const DefaultMaxSteps = 4

const retrievedFactLimit = 5

// Request is one weather question with its per-turn overrides.
type Request struct {
	UserID        string
	Message       string
	CityHint      string
	PersonaID     string
	Units         string
	ResponseStyle string
	Remember      bool
	MaxSteps      int
}

// Result is the caller-facing outcome of one orchestration run.
type Result struct {
	ResponseText  string
	Payload       *weather.Payload
	ResolvedCity  string
	Trace         []Step
	Profile       *store.UserProfile // nil when remembering was disabled
	PersonaID     string
	Units         store.Units
	ResponseStyle store.ResponseStyle
}

// Orchestrator runs the full question-answering flow: plan, memory
// retrieval, a generative attempt, the deterministic retry loop, the quality
// gate and persona styling, plus the memory write-back.
type Orchestrator struct {
	store      *store.Store
	memory     *memory.Service
	fetcher    Fetcher
	generative *Generative
	maxSteps   int

	now func() time.Time
}

// NewOrchestrator wires the orchestrator. generative may be nil to run
// deterministically only.
func NewOrchestrator(st *store.Store, fetcher Fetcher, generative *Generative, maxSteps int) *Orchestrator {
	if maxSteps < 1 {
		maxSteps = DefaultMaxSteps
	}
	return &Orchestrator{
		store:      st,
		memory:     memory.NewService(st),
		fetcher:    fetcher,
		generative: generative,
		maxSteps:   maxSteps,
		now:        time.Now,
	}
}

// Run processes one request end to end. It never fails hard: every branch
// terminates with a best-effort textual answer.
func (o *Orchestrator) Run(ctx context.Context, req *Request) *Result {
	trace := &Trace{}
	userID := store.NormalizeUserID(req.UserID)

	profile := o.loadProfile(ctx, userID, req.Remember)
	persona := ResolvePersona(firstNonBlank(req.PersonaID, profile.PersonaID))
	units := profile.Units
	if req.Units != "" {
		units = store.ValidUnits(req.Units)
	}
	style := profile.ResponseStyle
	if req.ResponseStyle != "" {
		style = store.ValidResponseStyle(req.ResponseStyle)
	}

	memoryCity := ""
	if req.Remember {
		memoryCity = profile.PreferredCity
	}
	preferredCity := firstNonBlank(req.CityHint, memoryCity)
	inferredCity := queryengine.InferCity(req.Message)
	planCity := firstNonBlank(inferredCity, preferredCity)

	maxSteps := req.MaxSteps
	if maxSteps < 1 {
		maxSteps = o.maxSteps
	}

	trace.Append(PhasePlan, map[string]any{
		"user_id":          userID,
		"persona_id":       persona.ID,
		"units":            units,
		"response_style":   style,
		"city_from_memory": memoryCity,
		"city_for_plan":    planCity,
		"max_steps":        maxSteps,
	})

	query := strings.TrimSpace(req.Message)
	if planCity != "" {
		query = ensureCityInInput(query, planCity)
	}

	snippets := o.retrieveMemories(ctx, trace, userID, req.Message, req.Remember)

	llmOutput, llmPayload := o.generativeAttempt(ctx, trace, PromptInput{
		UserInput:      query,
		Persona:        persona,
		ResponseStyle:  style,
		MemoryCity:     memoryCity,
		Profile:        profileForPrompt(profile, req.Remember),
		MemorySnippets: snippets,
	})

	toolPayload := llmPayload
	if toolPayload == nil {
		trace.Append(PhaseReflect, map[string]any{
			"decision": "continue",
			"reason":   "llm_missing_tool_payload_fallback_to_direct_tool",
		})
		toolPayload = o.retryLoop(ctx, trace, query, req.Message, memoryCity, maxSteps)
	}

	resolvedCity := firstNonBlank(req.CityHint, inferredCity, toolPayload.Location, memoryCity, "unknown")

	baseAnswer := BuildAnswer(req.Message, toolPayload, units)
	useLLM := llmOutput != "" && AcceptGenerative(llmOutput, toolPayload.Status)
	selected := baseAnswer
	answerSource := "tool-fallback"
	if useLLM {
		selected = llmOutput
		answerSource = "llm"
	}

	contextNote := ""
	if req.Remember && len(snippets) > 0 {
		contextNote = strings.Join(snippets[:minInt(3, len(snippets))], "; ")
	}
	finalAnswer := ApplyStyle(selected, persona, style, contextNote)

	trace.Append(PhaseFinalAnswer, map[string]any{
		"persona_id":     persona.ID,
		"response_style": style,
		"units":          units,
		"source":         answerSource,
	})

	var resultProfile *store.UserProfile
	if req.Remember {
		resultProfile = o.writeBack(ctx, userID, req.Message, finalAnswer, persona, units, style,
			toolPayload.Location, preferredCity, profile)
	}

	return &Result{
		ResponseText:  finalAnswer,
		Payload:       toolPayload,
		ResolvedCity:  resolvedCity,
		Trace:         trace.Steps(),
		Profile:       resultProfile,
		PersonaID:     persona.ID,
		Units:         units,
		ResponseStyle: style,
	}
}

func (o *Orchestrator) loadProfile(ctx context.Context, userID string, remember bool) *store.UserProfile {
	if !remember {
		return store.DefaultUserProfile(userID)
	}
	profile, err := o.store.GetUserProfile(ctx, userID)
	if err != nil {
		slog.Warn("failed to load profile, using defaults", "user_id", userID, "err", err)
		return store.DefaultUserProfile(userID)
	}
	return profile
}

// retrieveMemories ranks the user's stored facts against the message and
// renders them as prompt snippets.
func (o *Orchestrator) retrieveMemories(ctx context.Context, trace *Trace, userID, message string, remember bool) []string {
	if !remember {
		return nil
	}
	facts, err := o.memory.RetrieveRelevant(ctx, userID, message, retrievedFactLimit)
	if err != nil {
		slog.Warn("memory retrieval failed", "user_id", userID, "err", err)
		trace.Append(PhaseMemoryRetrieval, map[string]any{"count": 0, "error": err.Error()})
		return nil
	}

	snippets := make([]string, 0, len(facts))
	kinds := make([]string, 0, len(facts))
	for _, fact := range facts {
		snippets = append(snippets, fact.MemoryType+": "+fact.Value)
		kinds = append(kinds, fact.MemoryType)
	}
	trace.Append(PhaseMemoryRetrieval, map[string]any{
		"count": len(facts),
		"types": kinds,
	})
	return snippets
}

// generativeAttempt invokes the generative source once and records its
// claimed tool trace. Errors are recorded, never propagated.
func (o *Orchestrator) generativeAttempt(ctx context.Context, trace *Trace, input PromptInput) (string, *weather.Payload) {
	if !o.generative.Enabled() {
		return "", nil
	}
	result := o.generative.Run(ctx, input)
	if result == nil {
		return "", nil
	}

	trace.Append(PhaseThought, map[string]any{
		"engine":         "llm-agent",
		"persona_id":     input.Persona.ID,
		"response_style": input.ResponseStyle,
	})
	if result.Err != "" {
		trace.Append(PhaseObservation, map[string]any{
			"engine": "llm-agent",
			"status": "error",
			"reason": clipRunes(result.Err, 180),
		})
	}
	for i, step := range result.Steps {
		trace.Append(PhaseAction, map[string]any{
			"engine": "llm-agent",
			"index":  i + 1,
			"tool":   step.Tool,
		})
		trace.Append(PhaseObservation, map[string]any{
			"engine":              "llm-agent",
			"index":               i + 1,
			"tool_status":         step.Status,
			"observation_preview": clipRunes(step.ObservationPreview, 140),
		})
	}
	return result.Output, result.Payload
}

// retryLoop is the deterministic state machine over fetch attempts. Every
// transition is derived from the payload status alone and recorded in the
// trace, so a run is reproducible from its statuses.
func (o *Orchestrator) retryLoop(ctx context.Context, trace *Trace, query, originalMessage, memoryCity string, maxSteps int) *weather.Payload {
	payload := &weather.Payload{
		Status:  weather.StatusServiceUnavailable,
		Message: weather.LiveDataUnavailable,
	}

	for attempt := 1; attempt <= maxSteps; attempt++ {
		trace.Append(PhaseToolCall, map[string]any{
			"attempt": attempt,
			"tool":    WeatherToolName,
			"query":   query,
		})

		if fetched := o.fetcher.Fetch(ctx, query, o.now()); fetched != nil {
			payload = fetched
		}

		trace.Append(PhaseObserve, map[string]any{
			"attempt":  attempt,
			"status":   payload.Status,
			"location": payload.Location,
		})

		switch payload.Status {
		case weather.StatusOK:
			trace.Append(PhaseReflect, map[string]any{
				"attempt":  attempt,
				"decision": "stop",
				"reason":   "data_sufficient",
			})
			return payload

		case weather.StatusNeedsLocation:
			if strings.TrimSpace(memoryCity) != "" {
				query = ensureCityInInput(originalMessage, strings.TrimSpace(memoryCity))
				trace.Append(PhaseReflect, map[string]any{
					"attempt":     attempt,
					"decision":    "continue",
					"reason":      "retry_with_memory_city",
					"memory_city": memoryCity,
				})
				continue
			}
			trace.Append(PhaseReflect, map[string]any{
				"attempt":  attempt,
				"decision": "stop",
				"reason":   "missing_city_and_no_memory_city",
			})
			return payload

		case weather.StatusAmbiguousLocation:
			// Never auto-resolved; the clarification goes back to the user.
			trace.Append(PhaseReflect, map[string]any{
				"attempt":  attempt,
				"decision": "stop",
				"reason":   string(weather.StatusAmbiguousLocation),
			})
			return payload

		default:
			if attempt < maxSteps {
				trace.Append(PhaseReflect, map[string]any{
					"attempt":  attempt,
					"decision": "continue",
					"reason":   fmt.Sprintf("status_%s_retry", payload.Status),
				})
				continue
			}
			trace.Append(PhaseReflect, map[string]any{
				"attempt":  attempt,
				"decision": "stop",
				"reason":   fmt.Sprintf("status_%s", payload.Status),
			})
			return payload
		}
	}
	return payload
}

// writeBack persists the remembered state of a turn: profile merge, both
// conversation turns and a preferred-city fact when the fetch discovered one.
func (o *Orchestrator) writeBack(
	ctx context.Context,
	userID, userMessage, finalAnswer string,
	persona Persona,
	units store.Units,
	style store.ResponseStyle,
	discoveredCity, preferredCity string,
	previous *store.UserProfile,
) *store.UserProfile {
	city := firstNonBlank(discoveredCity, preferredCity, previous.PreferredCity)

	upsert := &store.UpsertUserProfile{
		UserID:        userID,
		PersonaID:     &persona.ID,
		Units:         &units,
		ResponseStyle: &style,
	}
	if strings.TrimSpace(city) != "" {
		upsert.PreferredCity = &city
	}
	profile, err := o.store.UpsertUserProfile(ctx, upsert)
	if err != nil {
		slog.Warn("failed to persist profile", "user_id", userID, "err", err)
		profile = previous
	}

	if _, err := o.store.AppendConversationTurn(ctx, userID, store.RoleUser, userMessage); err != nil {
		slog.Warn("failed to append user turn", "user_id", userID, "err", err)
	}
	if _, err := o.store.AppendConversationTurn(ctx, userID, store.RoleAssistant, finalAnswer); err != nil {
		slog.Warn("failed to append assistant turn", "user_id", userID, "err", err)
	}

	if strings.TrimSpace(discoveredCity) != "" {
		_, err := o.store.UpsertMemoryFact(ctx, &store.UpsertMemoryFact{
			UserID:        userID,
			MemoryType:    "preferred_city",
			Value:         discoveredCity,
			Importance:    2.0,
			SourceMessage: userMessage,
		})
		if err != nil {
			slog.Warn("failed to persist city fact", "user_id", userID, "err", err)
		}
	}
	return profile
}

func profileForPrompt(profile *store.UserProfile, remember bool) *store.UserProfile {
	if !remember {
		return nil
	}
	return profile
}

func ensureCityInInput(userInput, cityName string) string {
	if strings.Contains(strings.ToLower(userInput), strings.ToLower(cityName)) {
		return userInput
	}
	return strings.TrimSpace(userInput + " in " + cityName)
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
