package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stayhub/availability-service/config"
	"github.com/stayhub/availability-service/internal/http/ratelimit"
	"github.com/stayhub/availability-service/internal/policyapi"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "availability",
	Short: "Availability Service CLI - room quote and policy inspection tool",
	Long: `A CLI tool for querying the room availability pipeline directly: fetch
per-day price policies from the policy backend, normalize them, and compute
bookability quotes for a date range without going through the HTTP API.`,
	PersistentPreRunE: persistentPreRun,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml or ./config.yaml)")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		// Config is optional for some commands, don't fail here
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
	}
}

// persistentPreRun runs before each command and initializes dependencies
func persistentPreRun(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}

	logger = initLogger()
	return nil
}

func initLogger() *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.WarnLevel
	if cfg != nil && cfg.Logging.Level != "" {
		if parsedLevel, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			level = parsedLevel
		}
	}

	// Always use console format for CLI
	var output io.Writer
	if cfg != nil && cfg.Logging.Format == "json" {
		output = os.Stdout
	} else {
		noColor := false
		if cfg != nil {
			noColor = cfg.Logging.NoColor
		}
		output = zerolog.ConsoleWriter{Out: os.Stderr, NoColor: noColor}
	}

	log := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &log
}

// newPolicyClient builds a policy backend client from config and environment.
func newPolicyClient() (*policyapi.Client, error) {
	baseURL := config.PolicyAPIURL()
	if baseURL == "" {
		return nil, fmt.Errorf("policy API URL not set (POLICY_API_URL or policy_api.base_url)")
	}

	apiKey := os.Getenv("POLICY_API_KEY")
	rl := ratelimit.DefaultConfig()
	if cfg != nil {
		if cfg.PolicyAPI.APIKey != "" {
			apiKey = cfg.PolicyAPI.APIKey
		}
		rl = ratelimit.Config{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			MaxRetries:        cfg.RateLimit.MaxRetries,
			InitialBackoffMs:  cfg.RateLimit.InitialBackoffMs,
			MaxBackoffMs:      cfg.RateLimit.MaxBackoffMs,
		}
	}

	return policyapi.New(policyapi.Config{
		BaseURL:   baseURL,
		APIKey:    apiKey,
		RateLimit: rl,
		Breaker:   policyapi.DefaultCircuitBreakerConfig(),
	}, nil, nil), nil
}

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
