package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/weathersense/ai/agent"
	"github.com/hrygo/weathersense/plugin/weather"
)

const (
	maxMessageLen = 500
	maxCityLen    = 100
)

type chatRequest struct {
	Message       string `json:"message"`
	City          string `json:"city"`
	UserID        string `json:"user_id"`
	PersonaID     string `json:"persona_id"`
	ResponseStyle string `json:"response_style"`
	Units         string `json:"units"`
	Remember      *bool  `json:"remember"`
}

type forecastDay struct {
	Date        string  `json:"date"`
	TempMinC    float64 `json:"temp_min_c"`
	TempMaxC    float64 `json:"temp_max_c"`
	Description string  `json:"description"`
}

type chatResponse struct {
	City            string        `json:"city"`
	Response        string        `json:"response"`
	TemperatureC    *float64      `json:"temperature_c"`
	HumidityPercent *int          `json:"humidity_percent"`
	WindSpeedMps    *float64      `json:"wind_speed_mps"`
	Forecast        []forecastDay `json:"forecast"`
	PersonaID       string        `json:"persona_id"`
	Units           string        `json:"units"`
	ResponseStyle   string        `json:"response_style"`
	Trace           []agent.Step  `json:"trace"`
}

type clearMemoryResponse struct {
	UserID              string `json:"user_id"`
	ConversationDeleted int    `json:"conversation_deleted"`
	FactsDeleted        int    `json:"facts_deleted"`
	ProfileDeleted      int    `json:"profile_deleted"`
}

func (s *Server) chatPost(c echo.Context) error {
	request := &chatRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	request.Message = strings.TrimSpace(request.Message)
	request.City = strings.TrimSpace(request.City)
	if request.Message == "" && request.City == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Provide message or city")
	}
	if utf8.RuneCountInString(request.Message) > maxMessageLen {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("message exceeds %d characters", maxMessageLen))
	}
	if utf8.RuneCountInString(request.City) > maxCityLen {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("city exceeds %d characters", maxCityLen))
	}
	return s.runChat(c, request)
}

// chatGet keeps the simple city-only form: ?city=Chennai.
func (s *Server) chatGet(c echo.Context) error {
	city := strings.TrimSpace(c.QueryParam("city"))
	if city == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Provide message or city")
	}
	if utf8.RuneCountInString(city) > maxCityLen {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("city exceeds %d characters", maxCityLen))
	}
	return s.runChat(c, &chatRequest{
		City:    city,
		Message: fmt.Sprintf("What is the weather in %s?", city),
	})
}

func (s *Server) runChat(c echo.Context, request *chatRequest) error {
	userInput := request.Message
	if userInput == "" {
		userInput = fmt.Sprintf("What is the weather in %s?", request.City)
	}
	remember := true
	if request.Remember != nil {
		remember = *request.Remember
	}

	ctx := c.Request().Context()
	if err := s.chatSemaphore.Acquire(ctx, 1); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "server busy").SetInternal(err)
	}
	defer s.chatSemaphore.Release(1)

	started := time.Now()
	result := s.Agent.Run(ctx, &agent.Request{
		UserID:        request.UserID,
		Message:       userInput,
		CityHint:      request.City,
		PersonaID:     request.PersonaID,
		Units:         request.Units,
		ResponseStyle: request.ResponseStyle,
		Remember:      remember,
	})
	chatDurationSeconds.Observe(time.Since(started).Seconds())
	chatRequestsTotal.WithLabelValues(payloadStatus(result.Payload)).Inc()
	chatAnswerSourceTotal.WithLabelValues(answerSource(result.Trace)).Inc()

	return c.JSON(http.StatusOK, buildChatResponse(result))
}

func (s *Server) listPersonas(c echo.Context) error {
	return c.JSON(http.StatusOK, agent.ListPersonas())
}

func (s *Server) clearMemory(c echo.Context) error {
	userID := c.Param("userID")
	clearProfile := false
	if raw := c.QueryParam("profile"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "profile must be a boolean")
		}
		clearProfile = parsed
	}

	cleared, err := s.Store.ClearUserMemory(c.Request().Context(), userID, clearProfile)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to clear memory").SetInternal(err)
	}
	memoryClearsTotal.Inc()
	return c.JSON(http.StatusOK, &clearMemoryResponse{
		UserID:              userID,
		ConversationDeleted: cleared.ConversationDeleted,
		FactsDeleted:        cleared.FactsDeleted,
		ProfileDeleted:      cleared.ProfileDeleted,
	})
}

// buildChatResponse flattens the orchestration result. The numeric fields are
// populated only from ok payloads; other statuses carry just the text.
func buildChatResponse(result *agent.Result) *chatResponse {
	response := &chatResponse{
		City:          result.ResolvedCity,
		Response:      result.ResponseText,
		Forecast:      []forecastDay{},
		PersonaID:     result.PersonaID,
		Units:         string(result.Units),
		ResponseStyle: string(result.ResponseStyle),
		Trace:         result.Trace,
	}
	if response.City == "" {
		response.City = "unknown"
	}
	payload := result.Payload
	if payload == nil || payload.Status != weather.StatusOK {
		return response
	}

	if payload.Current != nil {
		response.TemperatureC = payload.Current.TemperatureC
		response.HumidityPercent = payload.Current.HumidityPercent
		response.WindSpeedMps = payload.Current.WindSpeedMps
	}
	for _, day := range payload.DailyForecast {
		if len(response.Forecast) >= weather.MaxDailyPoints {
			break
		}
		// Days without both temperature bounds are dropped from the summary.
		if day.TempMinC == nil || day.TempMaxC == nil {
			continue
		}
		description := day.Description
		if description == "" {
			description = "No description"
		}
		date := day.Date
		if date == "" {
			date = "unknown"
		}
		response.Forecast = append(response.Forecast, forecastDay{
			Date:        date,
			TempMinC:    *day.TempMinC,
			TempMaxC:    *day.TempMaxC,
			Description: description,
		})
	}
	return response
}

func payloadStatus(payload *weather.Payload) string {
	if payload == nil {
		return string(weather.StatusServiceUnavailable)
	}
	return string(payload.Status)
}

// answerSource reads the final-answer trace entry written by the
// orchestrator: "llm" when the generated text passed the quality gate,
// "tool-fallback" otherwise.
func answerSource(steps []agent.Step) string {
	for i := len(steps) - 1; i >= 0; i-- {
		if steps[i].Phase != agent.PhaseFinalAnswer {
			continue
		}
		if source, ok := steps[i].Detail["source"].(string); ok && source != "" {
			return source
		}
		break
	}
	return "tool-fallback"
}
