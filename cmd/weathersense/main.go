package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/weathersense/ai/agent"
	"github.com/hrygo/weathersense/ai/llm"
	"github.com/hrygo/weathersense/internal/profile"
	"github.com/hrygo/weathersense/internal/version"
	"github.com/hrygo/weathersense/plugin/weather"
	"github.com/hrygo/weathersense/server"
	"github.com/hrygo/weathersense/store"
	"github.com/hrygo/weathersense/store/db"
)

var rootCmd = &cobra.Command{
	Use:   "weathersense",
	Short: `An LLM-assisted weather assistant with per-user memory. Ask about rain, storms, temperature or alerts in plain language.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// .env is convenience for direct binary execution only.
		_ = godotenv.Load()
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile := &profile.Profile{
			Mode:    viper.GetString("mode"),
			Addr:    viper.GetString("addr"),
			Port:    viper.GetInt("port"),
			Data:    viper.GetString("data"),
			Driver:  viper.GetString("driver"),
			DSN:     viper.GetString("dsn"),
			Version: version.GetCurrentVersion(viper.GetString("mode")),
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			panic(err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			cancel()
			slog.Error("failed to create db driver", "error", err)
			return
		}

		storeInstance := store.New(dbDriver, instanceProfile)
		if err := storeInstance.Migrate(ctx); err != nil {
			cancel()
			slog.Error("failed to migrate", "error", err)
			return
		}

		fetcher := weather.NewClient(
			instanceProfile.WeatherAPIKey,
			instanceProfile.WeatherBaseURL,
			instanceProfile.WeatherForecastURL,
			instanceProfile.WeatherOneCallURL,
			time.Duration(instanceProfile.WeatherTimeout)*time.Second,
		)

		var generative *agent.Generative
		if instanceProfile.IsLLMEnabled() {
			llmService, llmErr := llm.NewService(&llm.Config{
				Provider: instanceProfile.LLMProvider,
				Model:    instanceProfile.LLMModel,
				APIKey:   instanceProfile.LLMAPIKey,
				BaseURL:  instanceProfile.LLMBaseURL,
				Timeout:  time.Duration(instanceProfile.LLMTimeout) * time.Second,
			})
			if llmErr != nil {
				slog.Warn("failed to initialize LLM service, generative answers disabled",
					"provider", instanceProfile.LLMProvider,
					"error", llmErr,
				)
			} else {
				slog.Info("LLM service initialized",
					"provider", instanceProfile.LLMProvider,
					"model", instanceProfile.LLMModel,
				)
				generative = agent.NewGenerative(llmService, fetcher)
			}
		} else {
			slog.Info("generative answers disabled, no LLM API key configured")
		}

		orchestrator := agent.NewOrchestrator(storeInstance, fetcher, generative, instanceProfile.AgentMaxSteps)

		s, err := server.NewServer(ctx, instanceProfile, storeInstance, orchestrator)
		if err != nil {
			cancel()
			slog.Error("failed to create server", "error", err)
			return
		}

		c := make(chan os.Signal, 1)
		// SIGTERM is the graceful shutdown signal for most process managers.
		signal.Notify(c, terminationSignals...)

		if err := s.Start(ctx); err != nil {
			slog.Error("failed to start server", "error", err)
			cancel()
		}

		printGreetings(instanceProfile)

		go func() {
			<-c
			s.Shutdown(ctx)
			cancel()
		}()

		<-ctx.Done()
	},
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 28090)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 28090, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver (sqlite, postgres)")
	rootCmd.PersistentFlags().String("dsn", "", "database source name(aka. DSN)")

	for _, flag := range []string{"mode", "addr", "port", "data", "driver", "dsn"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("weathersense")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("WeatherSense %s started successfully!\n", profile.Version)
	fmt.Printf("Data directory: %s\n", profile.Data)
	fmt.Printf("Database driver: %s\n", profile.Driver)
	fmt.Printf("Mode: %s\n", profile.Mode)

	if len(profile.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", profile.Port)
		fmt.Printf("Try: curl http://localhost:%d/api/v1/chat?city=Chennai\n", profile.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", profile.Addr, profile.Port)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
