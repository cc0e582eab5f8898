package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	Company    CompanyConfig
	Chat       ChatConfig
	LLM        LLMConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
}

// CompanyConfig identifies the agency on whose behalf the assistant speaks.
// Name appears in system prompts; Phone and Email are used by the static
// contact fallback when every other response path has failed.
type CompanyConfig struct {
	Name            string
	Phone           string
	Email           string
	AgentWebhookURL string // optional; confirmed viewings are POSTed here
}

// ChatConfig holds conversation tuning knobs
type ChatConfig struct {
	HistoryLimit     int // prior turns forwarded to the completion API
	MatchLimit       int // max properties returned by the matcher
	RecommendLimit   int // properties shown when no filter matches
	ComplexMinLength int // messages longer than this go to the full-context handler
}

// LLMConfig holds OpenAI-compatible completion API configuration
type LLMConfig struct {
	APIKey         string
	APIBase        string
	ChatModel      string
	EmbeddingModel string
	Temperature    float64
	MaxTokens      int
	Timeout        int
	Enabled        bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "property_assistant"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Company: CompanyConfig{
			Name:            getEnv("COMPANY_NAME", "Amani Homes"),
			Phone:           getEnv("COMPANY_PHONE", "+254 712 345 678"),
			Email:           getEnv("COMPANY_EMAIL", "info@amanihomes.co.ke"),
			AgentWebhookURL: getEnv("AGENT_WEBHOOK_URL", ""),
		},
		Chat: ChatConfig{
			HistoryLimit:     getEnvAsInt("CHAT_HISTORY_LIMIT", 6),
			MatchLimit:       getEnvAsInt("CHAT_MATCH_LIMIT", 5),
			RecommendLimit:   getEnvAsInt("CHAT_RECOMMEND_LIMIT", 8),
			ComplexMinLength: getEnvAsInt("CHAT_COMPLEX_MIN_LENGTH", 50),
		},
		LLM: LLMConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			APIBase:        getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"),
			ChatModel:      getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			EmbeddingModel: getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			Temperature:    getEnvAsFloat("OPENAI_CHAT_TEMPERATURE", 0.7),
			MaxTokens:      getEnvAsInt("OPENAI_CHAT_MAX_TOKENS", 1024),
			Timeout:        getEnvAsInt("OPENAI_TIMEOUT", 30),
			Enabled:        getEnv("OPENAI_API_KEY", "") != "",
		},
	}

	return cfg, nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}
