package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the main server.
type Profile struct {
	// LLM configuration (OpenAI-compatible protocol).
	// All providers (openai, deepseek, openrouter, ollama) use the same config.
	LLMProvider string // Provider identifier: openai, deepseek, openrouter, ollama
	LLMAPIKey   string // LLM API key; empty disables the generative path
	LLMBaseURL  string // LLM base URL (optional, has default per provider)
	LLMModel    string // Model name: gpt-4o, deepseek-chat, etc.
	LLMTimeout  int    // LLM request timeout in seconds (default: 120)

	// Weather provider configuration.
	WeatherAPIKey      string // OpenWeather API key; empty yields service_unavailable
	WeatherBaseURL     string
	WeatherForecastURL string
	WeatherOneCallURL  string
	WeatherTimeout     int // Weather request timeout in seconds (default: 10)

	// Agent configuration.
	AgentMaxSteps int // Bound on fetch attempts per request (default: 4)

	Mode    string
	Addr    string
	Port    int
	Data    string
	Driver  string
	DSN     string
	Version string
}

// Provider default configurations for LLM.
// Used when LLM_BASE_URL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "deepseek/deepseek-chat",
	},
	"ollama": {
		BaseURL: "http://localhost:11434",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsLLMEnabled returns true if a generative LLM API key is configured.
func (p *Profile) IsLLMEnabled() bool {
	return p.LLMAPIKey != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.LLMProvider = getEnvOrDefault("WEATHERSENSE_LLM_PROVIDER", "openai")
	p.LLMAPIKey = getEnvOrDefault("WEATHERSENSE_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("WEATHERSENSE_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("WEATHERSENSE_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("WEATHERSENSE_LLM_TIMEOUT_SECONDS", 120)

	if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
		slog.Warn("unknown LLM provider, using default: openai", "provider", p.LLMProvider)
		p.LLMProvider = "openai"
	}
	if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
		if p.LLMBaseURL == "" {
			p.LLMBaseURL = defaults.BaseURL
		}
		if p.LLMModel == "" {
			p.LLMModel = defaults.Model
		}
	}

	p.WeatherAPIKey = getEnvOrDefault("WEATHERSENSE_OPENWEATHER_API_KEY", os.Getenv("OPENWEATHER_API_KEY"))
	p.WeatherBaseURL = getEnvOrDefault("WEATHERSENSE_OPENWEATHER_URL", "https://api.openweathermap.org/data/2.5/weather")
	p.WeatherForecastURL = getEnvOrDefault("WEATHERSENSE_OPENWEATHER_FORECAST_URL", "https://api.openweathermap.org/data/2.5/forecast")
	p.WeatherOneCallURL = getEnvOrDefault("WEATHERSENSE_OPENWEATHER_ONECALL_URL", "https://api.openweathermap.org/data/3.0/onecall")
	p.WeatherTimeout = getEnvOrDefaultInt("WEATHERSENSE_OPENWEATHER_TIMEOUT_SECONDS", 10)

	p.AgentMaxSteps = getEnvOrDefaultInt("WEATHERSENSE_AGENT_MAX_STEPS", 4)
	if p.AgentMaxSteps <= 0 {
		p.AgentMaxSteps = 4
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies.
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		p.Data = "/var/opt/weathersense"
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("weathersense_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn required for postgres driver")
	}

	return nil
}
