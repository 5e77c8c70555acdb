package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/weathersense/ai/agent"
	"github.com/hrygo/weathersense/internal/profile"
	"github.com/hrygo/weathersense/plugin/weather"
	"github.com/hrygo/weathersense/store"
)

type fakeRunner struct {
	lastReq *agent.Request
	result  *agent.Result
}

func (f *fakeRunner) Run(_ context.Context, req *agent.Request) *agent.Result {
	f.lastReq = req
	return f.result
}

// stubDriver satisfies store.Driver for routes that never reach the
// database; only ClearUserMemory returns data.
type stubDriver struct{}

func (stubDriver) Migrate(context.Context) error { return nil }
func (stubDriver) Close() error                  { return nil }
func (stubDriver) GetUserProfile(context.Context, string) (*store.UserProfile, error) {
	return nil, nil
}
func (stubDriver) UpsertUserProfile(_ context.Context, p *store.UserProfile) (*store.UserProfile, error) {
	return p, nil
}
func (stubDriver) AppendConversationTurn(context.Context, *store.ConversationTurn) (int64, error) {
	return 0, nil
}
func (stubDriver) ListConversationTurns(context.Context, *store.FindConversationTurns) ([]*store.ConversationTurn, error) {
	return nil, nil
}
func (stubDriver) UpsertMemoryFact(context.Context, *store.UpsertMemoryFact) (*store.MemoryFact, error) {
	return nil, nil
}
func (stubDriver) ListMemoryFacts(context.Context, *store.FindMemoryFacts) ([]*store.MemoryFact, error) {
	return nil, nil
}
func (stubDriver) TouchMemoryFacts(context.Context, string, []int64, int64) error { return nil }
func (stubDriver) ClearUserMemory(context.Context, string, bool) (*store.ClearMemoryResult, error) {
	return &store.ClearMemoryResult{ConversationDeleted: 4, FactsDeleted: 2, ProfileDeleted: 1}, nil
}

func float64Ptr(v float64) *float64 { return &v }
func intPtr(v int) *int             { return &v }

func okResult() *agent.Result {
	return &agent.Result{
		ResponseText:  "Current temperature in Paris: 24.5 C.",
		ResolvedCity:  "Paris",
		PersonaID:     "professional",
		Units:         store.UnitsMetric,
		ResponseStyle: store.StyleBalanced,
		Payload: &weather.Payload{
			Status:   weather.StatusOK,
			Location: "Paris",
			Current: &weather.CurrentConditions{
				TemperatureC:    float64Ptr(24.5),
				HumidityPercent: intPtr(60),
				WindSpeedMps:    float64Ptr(3.0),
				Description:     "scattered clouds",
			},
			DailyForecast: []weather.DailyPoint{
				{Date: "2025-06-04", TempMinC: float64Ptr(18.0), TempMaxC: float64Ptr(26.0), Description: "light rain"},
				{Date: "2025-06-05"}, // no temperature bounds, dropped
			},
		},
		Trace: []agent.Step{
			{Step: 1, Phase: agent.PhaseFinalAnswer, Detail: map[string]any{"source": "tool-fallback"}},
		},
	}
}

func newTestServer(t *testing.T, runner AgentRunner) *Server {
	t.Helper()
	s, err := NewServer(context.Background(), &profile.Profile{Mode: "dev"}, store.New(stubDriver{}, nil), runner)
	require.NoError(t, err)
	return s
}

func doRequest(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.echoServer.ServeHTTP(rec, req)
	return rec
}

func TestChatPost_RequiresMessageOrCity(t *testing.T) {
	s := newTestServer(t, &fakeRunner{result: okResult()})
	rec := doRequest(s, http.MethodPost, "/api/v1/chat", `{"message":"  ","city":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Provide message or city")
}

func TestChatPost_MessageTooLong(t *testing.T) {
	s := newTestServer(t, &fakeRunner{result: okResult()})
	long := strings.Repeat("x", maxMessageLen+1)
	rec := doRequest(s, http.MethodPost, "/api/v1/chat", `{"message":"`+long+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatPost_OK(t *testing.T) {
	runner := &fakeRunner{result: okResult()}
	s := newTestServer(t, runner)

	rec := doRequest(s, http.MethodPost, "/api/v1/chat",
		`{"message":"weather in Paris","city":"Paris","user_id":"alice","remember":false}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Paris", resp.City)
	assert.Equal(t, "Current temperature in Paris: 24.5 C.", resp.Response)
	require.NotNil(t, resp.TemperatureC)
	assert.Equal(t, 24.5, *resp.TemperatureC)
	require.NotNil(t, resp.HumidityPercent)
	assert.Equal(t, 60, *resp.HumidityPercent)
	require.Len(t, resp.Forecast, 1)
	assert.Equal(t, "2025-06-04", resp.Forecast[0].Date)
	assert.Equal(t, 18.0, resp.Forecast[0].TempMinC)
	assert.Equal(t, "light rain", resp.Forecast[0].Description)
	assert.Equal(t, "professional", resp.PersonaID)
	assert.NotEmpty(t, resp.Trace)

	require.NotNil(t, runner.lastReq)
	assert.Equal(t, "alice", runner.lastReq.UserID)
	assert.Equal(t, "weather in Paris", runner.lastReq.Message)
	assert.Equal(t, "Paris", runner.lastReq.CityHint)
	assert.False(t, runner.lastReq.Remember)
}

func TestChatPost_RememberDefaultsOn(t *testing.T) {
	runner := &fakeRunner{result: okResult()}
	s := newTestServer(t, runner)
	rec := doRequest(s, http.MethodPost, "/api/v1/chat", `{"message":"weather in Paris"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, runner.lastReq.Remember)
}

func TestChatGet_SynthesizesMessage(t *testing.T) {
	runner := &fakeRunner{result: okResult()}
	s := newTestServer(t, runner)

	rec := doRequest(s, http.MethodGet, "/api/v1/chat?city=Chennai", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, runner.lastReq)
	assert.Equal(t, "What is the weather in Chennai?", runner.lastReq.Message)
	assert.Equal(t, "Chennai", runner.lastReq.CityHint)
}

func TestChatGet_RequiresCity(t *testing.T) {
	s := newTestServer(t, &fakeRunner{result: okResult()})
	rec := doRequest(s, http.MethodGet, "/api/v1/chat", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatResponse_NonOKPayloadOmitsNumbers(t *testing.T) {
	result := okResult()
	result.Payload = &weather.Payload{Status: weather.StatusNeedsLocation, Message: weather.NeedsLocationMessage}
	result.ResolvedCity = ""

	resp := buildChatResponse(result)
	assert.Equal(t, "unknown", resp.City)
	assert.Nil(t, resp.TemperatureC)
	assert.Empty(t, resp.Forecast)
}

func TestListPersonas(t *testing.T) {
	s := newTestServer(t, &fakeRunner{result: okResult()})
	rec := doRequest(s, http.MethodGet, "/api/v1/personas", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var personas []agent.Persona
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &personas))
	assert.Len(t, personas, 3)
}

func TestClearMemory(t *testing.T) {
	s := newTestServer(t, &fakeRunner{result: okResult()})
	rec := doRequest(s, http.MethodDelete, "/api/v1/memory/alice?profile=true", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp clearMemoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.UserID)
	assert.Equal(t, 4, resp.ConversationDeleted)
	assert.Equal(t, 2, resp.FactsDeleted)
	assert.Equal(t, 1, resp.ProfileDeleted)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, &fakeRunner{result: okResult()})
	rec := doRequest(s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestAnswerSource(t *testing.T) {
	assert.Equal(t, "tool-fallback", answerSource(nil))
	assert.Equal(t, "llm", answerSource([]agent.Step{
		{Phase: agent.PhaseReflect, Detail: map[string]any{}},
		{Phase: agent.PhaseFinalAnswer, Detail: map[string]any{"source": "llm"}},
	}))
}
