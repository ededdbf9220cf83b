package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Default endpoint and file locations, overridable via config and flags.
const (
	DefaultAPIBaseURL   = "https://shoppingcontent.googleapis.com/content/v2.1"
	DefaultRulesFile    = "feed_rules.yaml"
	DefaultOutputDir    = "output"
	DefaultDatabasePath = "feeds.db"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	// Config file
	ConfigFile string

	// Merchant configuration
	MerchantID  string
	APIBaseURL  string
	AuthMethod  string
	AccessToken string

	// Run configuration
	RulesFile    string
	OutputDir    string
	DatabasePath string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.pricebooster.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	// Set up Viper for environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	bindMerchantEnv()

	// Try to read config file if it exists
	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		// Search for config in standard locations
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigType("yaml")
			viper.SetConfigName(".pricebooster")
		}
	}

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()

	config := &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),

		ConfigFile: viper.ConfigFileUsed(),

		MerchantID:  viper.GetString("merchant_id"),
		APIBaseURL:  viper.GetString("merchant_api_base_url"),
		AuthMethod:  viper.GetString("merchant_auth_method"),
		AccessToken: viper.GetString("merchant_access_token"),

		RulesFile:    viper.GetString("rules_file"),
		OutputDir:    viper.GetString("output_dir"),
		DatabasePath: viper.GetString("database_path"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	// Set defaults
	if config.APIBaseURL == "" {
		config.APIBaseURL = DefaultAPIBaseURL
	}
	if config.AuthMethod == "" {
		config.AuthMethod = "adc"
	}
	if config.RulesFile == "" {
		config.RulesFile = DefaultRulesFile
	}
	if config.OutputDir == "" {
		config.OutputDir = DefaultOutputDir
	}
	if config.DatabasePath == "" {
		config.DatabasePath = DefaultDatabasePath
	}

	return config, nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
func loadEnvFiles() {
	// .env.local overrides .env
	envFiles := []string{
		".env",
		".env.local",
	}

	for _, envFile := range envFiles {
		_ = godotenv.Load(envFile)
	}
}

// bindMerchantEnv explicitly binds the merchant environment variables to
// Viper so .env-provided values are visible even without a config file.
func bindMerchantEnv() {
	envKeys := []string{
		"MERCHANT_ID",
		"MERCHANT_API_BASE_URL",
		"MERCHANT_AUTH_METHOD",
		"MERCHANT_ACCESS_TOKEN",
		"GOOGLE_APPLICATION_CREDENTIALS",
	}

	for _, key := range envKeys {
		if err := viper.BindEnv(key); err != nil {
			// Log warning but continue - this isn't critical
			fmt.Fprintf(os.Stderr, "Warning: failed to bind environment variable %s: %v\n", key, err)
		}
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
