package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port    string
		Env     string
		Timeout time.Duration
	}

	// Chat relay configuration
	Chat struct {
		BufferCapacity  int
		ContextWindow   int
		MentionKeyword  string
		AssistantSender string
		DefaultRoom     string
	}

	// Upstream completion API configuration
	OpenAI struct {
		APIKey      string
		BaseURL     string
		Model       string
		MaxTokens   int
		Temperature float64
		Timeout     time.Duration
	}

	// Security configuration
	Security struct {
		RateLimit      float64
		RateLimitBurst int
		AllowedOrigins []string
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables
// Uses singleton pattern to ensure only one instance exists
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = &Config{}

		// Server config
		instance.Server.Port = getEnvString("PORT", "8000")
		instance.Server.Env = getEnvString("APP_ENV", "development")
		instance.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)

		// Chat relay config
		instance.Chat.BufferCapacity = getEnvInt("CHAT_BUFFER_CAPACITY", 50)
		instance.Chat.ContextWindow = getEnvInt("CHAT_CONTEXT_WINDOW", 10)
		instance.Chat.MentionKeyword = getEnvString("CHAT_MENTION_KEYWORD", "@Assistant")
		instance.Chat.AssistantSender = getEnvString("CHAT_ASSISTANT_SENDER", "assistant")
		instance.Chat.DefaultRoom = getEnvString("CHAT_DEFAULT_ROOM", "general")

		// Upstream completion API config
		instance.OpenAI.APIKey = getEnvString("OPENAI_API_KEY", "")
		instance.OpenAI.BaseURL = getEnvString("OPENAI_BASE_URL", "https://api.openai.com/v1")
		instance.OpenAI.Model = getEnvString("OPENAI_MODEL", "gpt-3.5-turbo")
		instance.OpenAI.MaxTokens = getEnvInt("OPENAI_MAX_TOKENS", 500)
		instance.OpenAI.Temperature = getEnvFloat("OPENAI_TEMPERATURE", 0.7)
		instance.OpenAI.Timeout = getEnvDuration("OPENAI_TIMEOUT", 30*time.Second)

		// Security config
		instance.Security.RateLimit = float64(getEnvInt("RATE_LIMIT", 5))
		instance.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 10)
		instance.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS",
			[]string{"http://localhost:3000", "http://127.0.0.1:3000"})

		// Logging config
		instance.Logging.Level = getEnvString("LOG_LEVEL", "info")
		instance.Logging.Format = getEnvString("LOG_FORMAT", "json")
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
