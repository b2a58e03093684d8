package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Bus backends understood by pkg/events.
const (
	BusGoChannel = "gochannel"
	BusRedis     = "redis"
	BusNATS      = "nats"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database    DatabaseConfig
	Redis       RedisConfig
	CORS        CORSConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Bulk        BulkConfig
	Pagination  PaginationConfig
	Bus         BusConfig
	Events      EventsConfig
	Suggestions SuggestionsConfig
	Reconciler  ReconcilerConfig
	Admin       AdminConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig selects the zap encoder and an optional rotating file sink.
type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// HTTPConfig bounds the request pool.
type HTTPConfig struct {
	MaxConcurrentRequests int64
	AcquireTimeout        time.Duration
	ShutdownTimeout       time.Duration
}

// BulkConfig tunes the streaming ingest channel.
type BulkConfig struct {
	BatchSize    int
	MaxLineBytes int
}

type PaginationConfig struct {
	DefaultSize int
	MaxSize     int
}

// BusConfig selects the message bus backend used for collaborator events.
type BusConfig struct {
	Type                   string
	NATSURL                string
	NATSClientID           string
	NATSMaxReconnects      int
	NATSReconnectWait      time.Duration
	JetStreamEnabled       bool
	JetStreamAutoProvision bool
	JetStreamDurablePrefix string
	GoChannelBuffer        int64
}

// EventsConfig governs asynchronous publication of media-created events.
type EventsConfig struct {
	Enabled            bool
	Workers            int
	BufferSize         int
	MaxRetries         int
	RetryDelay         time.Duration
	BreakerMaxRequests uint32
	BreakerInterval    time.Duration
	BreakerTimeout     time.Duration
	BreakerMinRequests uint32
	BreakerFailureRate float64
}

// SuggestionsConfig toggles the inbound tag suggestion consumer.
type SuggestionsConfig struct {
	Enabled bool
	Topic   string
}

// ReconcilerConfig schedules the root pointer reconciliation job.
type ReconcilerConfig struct {
	Enabled bool
	Cron    string
}

// AdminConfig gates destructive maintenance endpoints.
type AdminConfig struct {
	ResetEnabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:      v.GetString("LOG_LEVEL"),
		Format:     v.GetString("LOG_FORMAT"),
		File:       v.GetString("LOG_FILE"),
		MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
		MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
		MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
		Compress:   v.GetBool("LOG_COMPRESS"),
	}

	cfg.HTTP = HTTPConfig{
		MaxConcurrentRequests: v.GetInt64("MAX_CONCURRENT_REQUESTS"),
		AcquireTimeout:        parseDuration(v.GetString("REQUEST_ACQUIRE_TIMEOUT"), 5*time.Second),
		ShutdownTimeout:       parseDuration(v.GetString("SHUTDOWN_TIMEOUT"), 15*time.Second),
	}

	batchSize := v.GetInt("BULK_BATCH_SIZE")
	if batchSize <= 0 {
		batchSize = 5000
	}
	cfg.Bulk = BulkConfig{
		BatchSize:    batchSize,
		MaxLineBytes: v.GetInt("BULK_MAX_LINE_BYTES"),
	}

	cfg.Pagination = PaginationConfig{
		DefaultSize: v.GetInt("PAGE_SIZE_DEFAULT"),
		MaxSize:     v.GetInt("PAGE_SIZE_MAX"),
	}

	cfg.Bus = BusConfig{
		Type:                   strings.ToLower(v.GetString("BUS_TYPE")),
		NATSURL:                v.GetString("NATS_URL"),
		NATSClientID:           v.GetString("NATS_CLIENT_ID"),
		NATSMaxReconnects:      v.GetInt("NATS_MAX_RECONNECTS"),
		NATSReconnectWait:      parseDuration(v.GetString("NATS_RECONNECT_WAIT"), 2*time.Second),
		JetStreamEnabled:       v.GetBool("NATS_JETSTREAM_ENABLED"),
		JetStreamAutoProvision: v.GetBool("NATS_JETSTREAM_AUTO_PROVISION"),
		JetStreamDurablePrefix: v.GetString("NATS_JETSTREAM_DURABLE_PREFIX"),
		GoChannelBuffer:        v.GetInt64("BUS_GOCHANNEL_BUFFER"),
	}

	cfg.Events = EventsConfig{
		Enabled:            v.GetBool("ENABLE_MEDIA_EVENTS"),
		Workers:            v.GetInt("EVENTS_WORKERS"),
		BufferSize:         v.GetInt("EVENTS_BUFFER_SIZE"),
		MaxRetries:         v.GetInt("EVENTS_MAX_RETRIES"),
		RetryDelay:         parseDuration(v.GetString("EVENTS_RETRY_DELAY"), time.Second),
		BreakerMaxRequests: v.GetUint32("EVENTS_BREAKER_MAX_REQUESTS"),
		BreakerInterval:    parseDuration(v.GetString("EVENTS_BREAKER_INTERVAL"), time.Minute),
		BreakerTimeout:     parseDuration(v.GetString("EVENTS_BREAKER_TIMEOUT"), 30*time.Second),
		BreakerMinRequests: v.GetUint32("EVENTS_BREAKER_MIN_REQUESTS"),
		BreakerFailureRate: v.GetFloat64("EVENTS_BREAKER_FAILURE_RATE"),
	}

	cfg.Suggestions = SuggestionsConfig{
		Enabled: v.GetBool("ENABLE_SUGGESTIONS"),
		Topic:   v.GetString("SUGGESTIONS_TOPIC"),
	}

	cfg.Reconciler = ReconcilerConfig{
		Enabled: v.GetBool("ENABLE_ROOT_RECONCILER"),
		Cron:    v.GetString("ROOT_RECONCILER_CRON"),
	}

	cfg.Admin = AdminConfig{
		ResetEnabled: v.GetBool("ENABLE_ADMIN_RESET"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "m3_catalog")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("LOG_MAX_SIZE_MB", 100)
	v.SetDefault("LOG_MAX_BACKUPS", 5)
	v.SetDefault("LOG_MAX_AGE_DAYS", 28)
	v.SetDefault("LOG_COMPRESS", false)

	v.SetDefault("MAX_CONCURRENT_REQUESTS", 64)
	v.SetDefault("REQUEST_ACQUIRE_TIMEOUT", "5s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")

	v.SetDefault("BULK_BATCH_SIZE", 5000)
	v.SetDefault("BULK_MAX_LINE_BYTES", 1<<20)
	v.SetDefault("PAGE_SIZE_DEFAULT", 100)
	v.SetDefault("PAGE_SIZE_MAX", 1000)

	v.SetDefault("BUS_TYPE", BusGoChannel)
	v.SetDefault("BUS_GOCHANNEL_BUFFER", 256)
	v.SetDefault("NATS_URL", "nats://localhost:4222")
	v.SetDefault("NATS_CLIENT_ID", "m3-catalog")
	v.SetDefault("NATS_MAX_RECONNECTS", 10)
	v.SetDefault("NATS_RECONNECT_WAIT", "2s")
	v.SetDefault("NATS_JETSTREAM_ENABLED", false)
	v.SetDefault("NATS_JETSTREAM_AUTO_PROVISION", true)
	v.SetDefault("NATS_JETSTREAM_DURABLE_PREFIX", "m3")

	v.SetDefault("ENABLE_MEDIA_EVENTS", true)
	v.SetDefault("EVENTS_WORKERS", 2)
	v.SetDefault("EVENTS_BUFFER_SIZE", 1024)
	v.SetDefault("EVENTS_MAX_RETRIES", 3)
	v.SetDefault("EVENTS_RETRY_DELAY", "1s")
	v.SetDefault("EVENTS_BREAKER_MAX_REQUESTS", 1)
	v.SetDefault("EVENTS_BREAKER_INTERVAL", "1m")
	v.SetDefault("EVENTS_BREAKER_TIMEOUT", "30s")
	v.SetDefault("EVENTS_BREAKER_MIN_REQUESTS", 5)
	v.SetDefault("EVENTS_BREAKER_FAILURE_RATE", 0.5)

	v.SetDefault("ENABLE_SUGGESTIONS", false)
	v.SetDefault("SUGGESTIONS_TOPIC", "tagging.suggested")

	v.SetDefault("ENABLE_ROOT_RECONCILER", false)
	v.SetDefault("ROOT_RECONCILER_CRON", "*/10 * * * *")

	v.SetDefault("ENABLE_ADMIN_RESET", false)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
