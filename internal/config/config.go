package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"sales-assistant-be/pkg/database"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Ai        AIConfig
	Retrieval RetrievalConfig
	Breaker   BreakerConfig
	Session   SessionConfig
	Lead      LeadConfig
	SMTP      SMTPConfig
	Tracing   TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	BodyLimitMB        int
	CorsAllowedOrigins string
	RequestTimeout     time.Duration
	HeartbeatInterval  time.Duration
	JwtSecret          string
}

func (c AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

type DatabaseConfig struct {
	Connection string // takes precedence over the discrete fields

	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogSQL          bool
}

func (c DatabaseConfig) Gorm() database.GormConfig {
	return database.GormConfig{
		Connection:      c.Connection,
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		DBName:          c.Name,
		SSLMode:         c.SSLMode,
		MaxIdleConns:    c.MaxIdleConns,
		MaxOpenConns:    c.MaxOpenConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		LogSQL:          c.LogSQL,
	}
}

type AIConfig struct {
	LLMProvider   string // "ollama" or "openai"
	LLMModel      string
	OllamaBaseURL string
	OpenAIAPIKey  string
	OpenAIBaseURL string

	EmbeddingProvider string // "ollama" or "openai"
	EmbeddingModel    string

	MaxHistoryTurns       int
	GenerationTemperature float64
	PreprocessTimeout     time.Duration
}

type RetrievalConfig struct {
	PerStrategy  int
	MaxResults   int
	RerankTopK   int
	CacheTTL     time.Duration
	FreshnessAge time.Duration
}

type BreakerConfig struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}

type SessionConfig struct {
	Store    string // "memory" or "redis"
	TTL      time.Duration
	RedisURL string
}

type LeadConfig struct {
	DedupWindow time.Duration
	NotifyEmail string
	NatsURL     string
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Sender   string
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("PORT", "3000"),
			Environment:        getEnv("APP_ENV", "development"),
			LogFilePath:        getEnv("LOG_PATH", "logs/app.log"),
			BodyLimitMB:        getEnvAsInt("BODY_LIMIT_MB", 1),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			RequestTimeout:     getEnvAsDuration("REQUEST_TIMEOUT", 90*time.Second),
			HeartbeatInterval:  getEnvAsDuration("SSE_HEARTBEAT_INTERVAL", 15*time.Second),
			JwtSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection:      getEnv("DB_CONNECTION_STRING", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "sales_assistant"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 50),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			LogSQL:          getEnv("DB_LOG_SQL", "false") == "true",
		},
		Ai: AIConfig{
			LLMProvider:           getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:              getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL:         getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:         getEnv("OPENAI_BASE_URL", ""),
			EmbeddingProvider:     getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:        getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			MaxHistoryTurns:       getEnvAsInt("MAX_HISTORY_TURNS", 10),
			GenerationTemperature: getEnvAsFloat("GENERATION_TEMPERATURE", 0.7),
			PreprocessTimeout:     getEnvAsDuration("PREPROCESS_TIMEOUT", 10*time.Second),
		},
		Retrieval: RetrievalConfig{
			PerStrategy:  getEnvAsInt("RETRIEVAL_PER_STRATEGY", 5),
			MaxResults:   getEnvAsInt("RETRIEVAL_MAX_RESULTS", 5),
			RerankTopK:   getEnvAsInt("RERANK_TOP_K", 3),
			CacheTTL:     getEnvAsDuration("RETRIEVAL_CACHE_TTL", 10*time.Minute),
			FreshnessAge: time.Duration(getEnvAsInt("FRESHNESS_MAX_AGE_DAYS", 7)) * 24 * time.Hour,
		},
		Breaker: BreakerConfig{
			FailureThreshold: getEnvAsInt("BREAKER_FAILURE_THRESHOLD", 5),
			ResetTimeout:     getEnvAsDuration("BREAKER_RESET_TIMEOUT", 60*time.Second),
		},
		Session: SessionConfig{
			Store:    getEnv("SESSION_STORE", "memory"),
			TTL:      getEnvAsDuration("SESSION_TTL", 7200*time.Second),
			RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Lead: LeadConfig{
			DedupWindow: getEnvAsDuration("LEAD_DEDUP_WINDOW", 24*time.Hour),
			NotifyEmail: getEnv("LEAD_NOTIFY_EMAIL", ""),
			NatsURL:     getEnv("NATS_URL", ""),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			Sender:   getEnv("SMTP_SENDER", "assistant@localhost"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("SERVICE_NAME", "sales-assistant-be"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("90s", "2h") or a bare number of
// seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
