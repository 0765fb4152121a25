package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	AppName     string
	ClientPort  string // public HTTP port served by this process
	AgentPort   string // port of the sibling agent runtime process
	DBURL       string // session store DSN, handed to the agent runtime untouched
	IsDev       bool
	WebhookHost string // externally reachable host the memory service calls back on

	// Memory service (mem0-style) configuration
	Mem0APIKey        string
	Mem0BaseURL       string
	Mem0ProjectID     string
	Mem0WebhookSecret string

	// Auth configuration
	JWTSecret string

	// CORS
	AllowedOrigins string

	// Cache tuning
	MemoryCacheTTL        time.Duration
	MemoryCacheMaxEntries int

	// Agent runtime launch command (space-separated argv)
	AgentCmd string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		AppName:     getEnv("APP_NAME", "memopilot"),
		ClientPort:  getEnv("CLIENT_PORT", "8000"),
		AgentPort:   getEnv("LOCAL_AGENT_PORT", "8001"),
		DBURL:       getEnv("DB_URL", "sqlite:///./agent_sessions.db"),
		IsDev:       getBoolEnv("IS_DEV", false),
		WebhookHost: getEnv("WEBHOOK_HOST", ""),

		Mem0APIKey:        getEnv("MEM0_API_KEY", ""),
		Mem0BaseURL:       getEnv("MEM0_BASE_URL", "https://api.mem0.ai"),
		Mem0ProjectID:     getEnv("MEM0_PROJECT_ID", ""),
		Mem0WebhookSecret: getEnv("MEM0_WEBHOOK_SECRET", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),

		AllowedOrigins: getEnv("ALLOWED_ORIGINS", ""),

		MemoryCacheTTL:        time.Duration(getIntEnv("MEMORY_CACHE_TTL_SECONDS", 300)) * time.Second,
		MemoryCacheMaxEntries: getIntEnv("MEMORY_CACHE_MAX_ENTRIES", 100),

		AgentCmd: getEnv("AGENT_CMD", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}
