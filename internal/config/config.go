package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// RecognitionDefaults are the values used when a submission leaves an option unset
type RecognitionDefaults struct {
	Language    string `yaml:"language"`
	Model       string `yaml:"model"`
	Punctuation bool   `yaml:"punctuation"`
	Enhanced    bool   `yaml:"enhanced"`
}

// Config holds application configuration
type Config struct {
	ServerPort      string `yaml:"port"`
	Environment     string `yaml:"environment"`
	DatabaseType    string `yaml:"database_type"`
	DatabasePath    string `yaml:"db_path"`
	DatabaseURL     string `yaml:"database_url"`
	StaticFilesPath string `yaml:"static_path"`
	SeedFile        string `yaml:"seed_file"`
	UploadMaxSize   int64  `yaml:"upload_max_size"`

	GoogleAPIKey          string        `yaml:"google_api_key"`
	GoogleSpeechEndpoint  string        `yaml:"google_speech_endpoint"`
	GoogleCredentialsFile string        `yaml:"google_credentials_file"`
	SpeechTimeout         time.Duration `yaml:"speech_timeout"`

	Recognition RecognitionDefaults `yaml:"recognition"`

	OperatorPasswordHash string        `yaml:"operator_password_hash"`
	OperatorTokenSecret  string        `yaml:"operator_token_secret"`
	TokenTTL             time.Duration `yaml:"token_ttl"`

	AWSRegion    string `yaml:"aws_region"`
	SESFromEmail string `yaml:"ses_from_email"`
	SESFromName  string `yaml:"ses_from_name"`

	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`
}

// DefaultSpeechEndpoint is the Google Speech-to-Text v1 recognize URL
const DefaultSpeechEndpoint = "https://speech.googleapis.com/v1/speech:recognize"

// Defaults returns the configuration used before any file or environment overrides
func Defaults() *Config {
	return &Config{
		ServerPort:           "3000",
		Environment:          "development",
		DatabaseType:         "sqlite",
		DatabasePath:         "./speechcheck.db",
		StaticFilesPath:      "./static",
		UploadMaxSize:        10 * 1024 * 1024, // 10MB
		GoogleSpeechEndpoint: DefaultSpeechEndpoint,
		SpeechTimeout:        30 * time.Second,
		Recognition: RecognitionDefaults{
			Language:    "en-US",
			Model:       "latest_long",
			Punctuation: true,
			Enhanced:    true,
		},
		TokenTTL:     12 * time.Hour,
		AWSRegion:    "us-east-1",
		SESFromName:  "Speech Check",
		OTLPInsecure: true,
	}
}

// Load reads configuration from an optional YAML file, a .env file and
// environment variables, in increasing order of precedence
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.ServerPort = getEnv("PORT", c.ServerPort)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.DatabaseType = getEnv("DATABASE_TYPE", c.DatabaseType)
	c.DatabasePath = getEnv("DB_PATH", c.DatabasePath)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.StaticFilesPath = getEnv("STATIC_PATH", c.StaticFilesPath)
	c.SeedFile = getEnv("SEED_FILE", c.SeedFile)

	c.GoogleAPIKey = getEnv("GOOGLE_API_KEY", c.GoogleAPIKey)
	c.GoogleSpeechEndpoint = getEnv("GOOGLE_SPEECH_ENDPOINT", c.GoogleSpeechEndpoint)
	c.GoogleCredentialsFile = getEnv("GOOGLE_CREDENTIALS_FILE", c.GoogleCredentialsFile)

	c.Recognition.Language = getEnv("DEFAULT_LANGUAGE", c.Recognition.Language)
	c.Recognition.Model = getEnv("DEFAULT_MODEL", c.Recognition.Model)

	c.OperatorPasswordHash = getEnv("OPERATOR_PASSWORD_HASH", c.OperatorPasswordHash)
	c.OperatorTokenSecret = getEnv("OPERATOR_TOKEN_SECRET", c.OperatorTokenSecret)

	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.SESFromEmail = getEnv("SES_FROM_EMAIL", c.SESFromEmail)
	c.SESFromName = getEnv("SES_FROM_NAME", c.SESFromName)

	c.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTLPEndpoint)

	var err error
	if c.UploadMaxSize, err = getEnvInt64("UPLOAD_MAX_SIZE", c.UploadMaxSize); err != nil {
		return err
	}
	if c.SpeechTimeout, err = getEnvDuration("SPEECH_TIMEOUT", c.SpeechTimeout); err != nil {
		return err
	}
	if c.TokenTTL, err = getEnvDuration("TOKEN_TTL", c.TokenTTL); err != nil {
		return err
	}
	if c.Recognition.Punctuation, err = getEnvBool("DEFAULT_PUNCTUATION", c.Recognition.Punctuation); err != nil {
		return err
	}
	if c.Recognition.Enhanced, err = getEnvBool("DEFAULT_ENHANCED", c.Recognition.Enhanced); err != nil {
		return err
	}
	if c.OTLPInsecure, err = getEnvBool("OTEL_INSECURE", c.OTLPInsecure); err != nil {
		return err
	}
	if c.MetricsEnabled, err = getEnvBool("METRICS_ENABLED", c.MetricsEnabled); err != nil {
		return err
	}
	return nil
}

// AuthEnabled reports whether the API requires an operator token
func (c *Config) AuthEnabled() bool {
	return c.OperatorPasswordHash != ""
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
