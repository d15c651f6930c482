package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for our application
type Config struct {
	// Server configuration
	Port           string
	GinMode        string
	APIVersion     string
	APIPrefix      string
	PublicBaseURL  string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// Rate limiting
	RateLimit RateLimitConfig

	// Logging
	LogLevel string

	// Hotel inventory provider
	LiteAPI LiteAPIConfig

	// Auth / profile provider
	Supabase SupabaseConfig

	// Booking flow
	Pricing  PricingConfig
	Checkout CheckoutConfig
	Jobs     JobsConfig

	// External services
	Kafka KafkaConfig
	AWS   AWSConfig
	Email EmailConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string
	PoolSize int
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled                  bool          `json:"enabled"`
	WindowDuration           time.Duration `json:"window_duration"`
	DefaultRequests          int           `json:"default_requests"`
	SearchRequests           int           `json:"search_requests"`
	AutocompleteRequests     int           `json:"autocomplete_requests"`
	AuthRequests             int           `json:"auth_requests"`
	BookingRequests          int           `json:"booking_requests"`
	CheckoutCriticalRequests int           `json:"checkout_critical_requests"`
	UserRequests             int           `json:"user_requests"`
	HealthRequests           int           `json:"health_requests"`
	WhitelistedIPs           []string      `json:"whitelisted_ips"`
}

// LiteAPIConfig holds the hotel inventory API configuration
type LiteAPIConfig struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// SupabaseConfig holds the auth provider configuration
type SupabaseConfig struct {
	URL       string
	AnonKey   string
	JWTSecret string
	Timeout   time.Duration
}

// PricingConfig holds the booking price rules
type PricingConfig struct {
	TaxRate         float64
	FlatFee         float64
	DefaultCurrency string
}

// CheckoutConfig holds checkout session settings
type CheckoutConfig struct {
	SessionTTL    time.Duration
	SubmitTimeout time.Duration
	LockTTL       time.Duration
}

// JobsConfig holds background job settings
type JobsConfig struct {
	Enabled                bool
	CompleteStaysInterval  time.Duration
	CompleteStaysBatchSize int
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers      []string
	BookingTopic string
	GroupID      string
	Workers      int
	SendTimeout  time.Duration
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
}

// EmailConfig holds email configuration
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		// Server configuration
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		APIVersion:     getEnv("API_VERSION", "v1"),
		APIPrefix:      getEnv("API_PREFIX", "/api"),
		PublicBaseURL:  getEnv("PUBLIC_BASE_URL", "http://localhost:3000"),
		ReadTimeout:    getDurationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDurationEnv("WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:    getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1 MB

		// Database configuration
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "travelenda_db"),
			User:     getEnv("DB_USER", "travelenda_user"),
			Password: getEnv("DB_PASSWORD", "travelenda_password"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnectTimeout:  getDurationEnv("DB_CONNECT_TIMEOUT", 5*time.Second),
		},

		// Redis configuration
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
			PoolSize: getIntEnv("REDIS_POOL_SIZE", 10),
		},

		// Rate limiting
		RateLimit: RateLimitConfig{
			Enabled:                  getBoolEnv("RATE_LIMIT_ENABLED", true),
			WindowDuration:           getDurationEnv("RATE_LIMIT_WINDOW_DURATION", 60*time.Second),
			DefaultRequests:          getIntEnv("RATE_LIMIT_DEFAULT_REQUESTS", 60),
			SearchRequests:           getIntEnv("RATE_LIMIT_SEARCH_REQUESTS", 60),
			AutocompleteRequests:     getIntEnv("RATE_LIMIT_AUTOCOMPLETE_REQUESTS", 240),
			AuthRequests:             getIntEnv("RATE_LIMIT_AUTH_REQUESTS", 10),
			BookingRequests:          getIntEnv("RATE_LIMIT_BOOKING_REQUESTS", 30),
			CheckoutCriticalRequests: getIntEnv("RATE_LIMIT_CHECKOUT_CRITICAL_REQUESTS", 10),
			UserRequests:             getIntEnv("RATE_LIMIT_USER_REQUESTS", 60),
			HealthRequests:           getIntEnv("RATE_LIMIT_HEALTH_REQUESTS", 300),
			WhitelistedIPs:           getStringSliceEnv("RATE_LIMIT_WHITELISTED_IPS", []string{}),
		},

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		LiteAPI: LiteAPIConfig{
			BaseURL:      getEnv("LITEAPI_BASE_URL", "https://api.liteapi.travel/v3.0"),
			APIKey:       getEnv("LITEAPI_API_KEY", ""),
			Timeout:      getDurationEnv("LITEAPI_TIMEOUT", 15*time.Second),
			MaxRetries:   getIntEnv("LITEAPI_MAX_RETRIES", 2),
			RetryBackoff: getDurationEnv("LITEAPI_RETRY_BACKOFF", 300*time.Millisecond),
		},

		Supabase: SupabaseConfig{
			URL:       getEnv("SUPABASE_URL", ""),
			AnonKey:   getEnv("SUPABASE_ANON_KEY", ""),
			JWTSecret: getEnv("SUPABASE_JWT_SECRET", "your-super-secret-jwt-key"),
			Timeout:   getDurationEnv("SUPABASE_TIMEOUT", 10*time.Second),
		},

		Pricing: PricingConfig{
			TaxRate:         getFloatEnv("PRICING_TAX_RATE", 0.12),
			FlatFee:         getFloatEnv("PRICING_FLAT_FEE", 25.00),
			DefaultCurrency: getEnv("PRICING_DEFAULT_CURRENCY", "USD"),
		},

		Checkout: CheckoutConfig{
			SessionTTL:    getDurationEnv("CHECKOUT_SESSION_TTL", 30*time.Minute),
			SubmitTimeout: getDurationEnv("CHECKOUT_SUBMIT_TIMEOUT", 45*time.Second),
			LockTTL:       getDurationEnv("CHECKOUT_LOCK_TTL", 60*time.Second),
		},

		Jobs: JobsConfig{
			Enabled:                getBoolEnv("JOBS_ENABLED", true),
			CompleteStaysInterval:  getDurationEnv("JOBS_COMPLETE_STAYS_INTERVAL", 1*time.Hour),
			CompleteStaysBatchSize: getIntEnv("JOBS_COMPLETE_STAYS_BATCH_SIZE", 200),
		},

		Kafka: KafkaConfig{
			Brokers:      getStringSliceEnv("KAFKA_BROKERS", []string{}),
			BookingTopic: getEnv("KAFKA_BOOKING_TOPIC", "booking-events"),
			GroupID:      getEnv("KAFKA_GROUP_ID", "travelenda-booking-notifiers"),
			Workers:      getIntEnv("KAFKA_WORKERS", 2),
			SendTimeout:  getDurationEnv("KAFKA_SEND_TIMEOUT", 3*time.Second),
		},

		// AWS configuration
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("S3_BUCKET", ""),
		},

		// Email configuration
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getIntEnv("SMTP_PORT", 587),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", "bookings@travelenda.com"),
			FromName:     getEnv("FROM_NAME", "Travelenda"),
		},
	}

	// Build composite values
	cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

// buildDatabaseDSN builds the database connection string
func buildDatabaseDSN(db DatabaseConfig) string {
	return "host=" + db.Host +
		" port=" + db.Port +
		" user=" + db.User +
		" password=" + db.Password +
		" dbname=" + db.Name +
		" sslmode=" + db.SSLMode
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

// getFloatEnv gets a float environment variable with a fallback value
func getFloatEnv(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

// getStringSliceEnv gets a comma-separated string environment variable as a slice
func getStringSliceEnv(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

// GetAPIBasePath returns the API base path
func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix + "/" + c.APIVersion
}

// KafkaEnabled reports whether booking events should go through Kafka
func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

// EmailEnabled reports whether SMTP delivery is configured
func (c *Config) EmailEnabled() bool {
	return c.Email.SMTPHost != "" && c.Email.SMTPUsername != ""
}
