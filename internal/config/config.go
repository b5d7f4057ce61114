package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the process reads from its environment. It is
// loaded once in main and passed down by value; nothing else reads env vars.
type Config struct {
	Addr       string
	LogLevel   string
	PrettyLogs bool

	// DefaultProvider is used when a submitted run names none.
	DefaultProvider string

	OpenAIKey             string
	GoogleCredentialsFile string

	// ChromePath attaches to a specific Chrome binary; empty uses the
	// default discovery.
	ChromePath string
	Headless   bool

	MaxSteps   int
	RunTimeout time.Duration
	FrameDelay time.Duration
}

const (
	defaultAddr       = ":8080"
	defaultLogLevel   = "info"
	defaultProvider   = "gemini"
	defaultMaxSteps   = 25
	defaultRunTimeout = 5 * time.Minute
	defaultFrameDelay = 500 * time.Millisecond
)

// Load reads the process configuration. A .env file is honored when present
// so local runs match the deployed environment shape.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:       getEnvString("ADDR", defaultAddr),
		LogLevel:   getEnvString("LOG_LEVEL", defaultLogLevel),
		PrettyLogs: getEnvBool("LOG_PRETTY", true),

		DefaultProvider: getEnvString("LLM_TYPE", defaultProvider),

		OpenAIKey:             os.Getenv("OPENAI_API_KEY"),
		GoogleCredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),

		ChromePath: os.Getenv("CHROME_INSTANCE_PATH"),
		Headless:   getEnvBool("HEADLESS", true),

		MaxSteps:   getEnvInt("MAX_STEPS", defaultMaxSteps),
		RunTimeout: getEnvDuration("RUN_TIMEOUT", defaultRunTimeout),
		FrameDelay: getEnvDuration("FRAME_DELAY", defaultFrameDelay),
	}
}

// getEnvString returns the environment variable value or default
func getEnvString(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvBool returns the environment variable as bool or default
func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvInt returns the environment variable as int or default
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration returns the environment variable as duration or default
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
