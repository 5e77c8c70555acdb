package weather

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
)

// Default OpenWeather endpoints.
const (
	DefaultCurrentURL  = "https://api.openweathermap.org/data/2.5/weather"
	DefaultForecastURL = "https://api.openweathermap.org/data/2.5/forecast"
	DefaultOneCallURL  = "https://api.openweathermap.org/data/3.0/onecall"
)

// transientStatus lists upstream statuses worth one retry.
var transientStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Client talks to the OpenWeather HTTP API. A circuit breaker guards the
// upstream so a flapping provider fails fast instead of burning the retry
// budget on every request.
type Client struct {
	APIKey      string
	CurrentURL  string
	ForecastURL string
	OneCallURL  string

	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewClient builds a Client for the given API key. Empty URL fields fall back
// to the public OpenWeather endpoints.
func NewClient(apiKey, currentURL, forecastURL, oneCallURL string, timeout time.Duration) *Client {
	if currentURL == "" {
		currentURL = DefaultCurrentURL
	}
	if forecastURL == "" {
		forecastURL = DefaultForecastURL
	}
	if oneCallURL == "" {
		oneCallURL = DefaultOneCallURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		APIKey:      apiKey,
		CurrentURL:  currentURL,
		ForecastURL: forecastURL,
		OneCallURL:  oneCallURL,
		httpClient:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "openweather",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// owCondition is one entry of the "weather" array.
type owCondition struct {
	Description string `json:"description"`
}

// owWind carries wind speed and bearing.
type owWind struct {
	Speed *float64 `json:"speed"`
	Deg   *float64 `json:"deg"`
}

// owCurrentResponse is the current-weather endpoint body.
type owCurrentResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
	} `json:"main"`
	Weather []owCondition `json:"weather"`
	Wind    owWind        `json:"wind"`
	Coord   struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	} `json:"coord"`
}

// owForecastEntry is one 3-hour slot of the 5-day forecast.
type owForecastEntry struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
	} `json:"main"`
	Weather []owCondition `json:"weather"`
	Wind    owWind        `json:"wind"`
	Pop     *float64      `json:"pop"`
}

// owForecastResponse is the 5-day forecast endpoint body.
type owForecastResponse struct {
	List []owForecastEntry `json:"list"`
	City struct {
		Timezone int `json:"timezone"`
	} `json:"city"`
}

// owAlert is one entry of the one-call "alerts" array.
type owAlert struct {
	Event       string `json:"event"`
	Start       *int64 `json:"start"`
	End         *int64 `json:"end"`
	Description string `json:"description"`
}

// owOneCallResponse carries only the alert slice; everything else is
// excluded by the request.
type owOneCallResponse struct {
	Alerts []owAlert `json:"alerts"`
}

// fetchCurrent returns current conditions for the city. A non-200 final
// status surfaces as an error.
func (c *Client) fetchCurrent(ctx context.Context, city string) (*owCurrentResponse, error) {
	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", c.APIKey)
	params.Set("units", "metric")

	var parsed owCurrentResponse
	if err := c.getJSON(ctx, c.CurrentURL, params, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

// fetchForecast returns the 3-hourly forecast series for the city.
func (c *Client) fetchForecast(ctx context.Context, city string) (*owForecastResponse, error) {
	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", c.APIKey)
	params.Set("units", "metric")

	var parsed owForecastResponse
	if err := c.getJSON(ctx, c.ForecastURL, params, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

// fetchAlerts returns active severe-weather alerts for a coordinate pair.
// Alert lookup is best effort; callers treat an error as "no alerts".
func (c *Client) fetchAlerts(ctx context.Context, lat, lon float64) ([]Alert, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("appid", c.APIKey)
	params.Set("units", "metric")
	params.Set("exclude", "current,minutely,hourly,daily")

	var parsed owOneCallResponse
	if err := c.getJSON(ctx, c.OneCallURL, params, &parsed); err != nil {
		return nil, err
	}

	alerts := make([]Alert, 0, len(parsed.Alerts))
	for _, raw := range parsed.Alerts {
		event := raw.Event
		if event == "" {
			event = "Weather alert"
		}
		alert := Alert{
			Event:       event,
			Description: raw.Description,
		}
		if raw.Start != nil {
			alert.StartUTC = time.Unix(*raw.Start, 0).UTC().Format(time.RFC3339)
		}
		if raw.End != nil {
			alert.EndUTC = time.Unix(*raw.End, 0).UTC().Format(time.RFC3339)
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

// getJSON performs a GET with one retry on transient failures and decodes
// the 200 body into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	body, err := c.breaker.Execute(func() (any, error) {
		return c.getWithRetry(ctx, endpoint, params)
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body.([]byte), out); err != nil {
		return errors.Wrapf(err, "failed to decode response from %s", endpoint)
	}
	return nil
}

func (c *Client) getWithRetry(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	requestURL := endpoint + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to construct request to %s", endpoint)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			fetchAttemptsTotal.WithLabelValues("error").Inc()
			lastErr = errors.Wrapf(err, "failed to reach %s", endpoint)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = errors.Wrapf(readErr, "failed to read response from %s", endpoint)
			continue
		}

		if transientStatus[resp.StatusCode] {
			fetchAttemptsTotal.WithLabelValues("transient").Inc()
			lastErr = errors.Errorf("transient status %d from %s", resp.StatusCode, endpoint)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			fetchAttemptsTotal.WithLabelValues("error").Inc()
			return nil, errors.Errorf("status %d from %s", resp.StatusCode, endpoint)
		}
		fetchAttemptsTotal.WithLabelValues("ok").Inc()
		return body, nil
	}
	return nil, lastErr
}
