package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Postgres PostgresConfig
	JWT      JWTConfig
	Store    StoreConfig
	Chat     ChatConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

type ServerConfig struct {
	AppEnv string
	Port   string
}

type LoggerConfig struct {
	Level      string
	Encoding   string
	FileEnable bool
	Filename   string
}

type PostgresConfig struct {
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

type JWTConfig struct {
	SecretKey     string
	ExpireHours   int
	AdminUsername string
	AdminPassword string
}

// StoreConfig holds shop-level settings used by reporting and the assistant.
type StoreConfig struct {
	TimeZone string
	TopN     int
}

type ChatConfig struct {
	WebhookURL string
	APIKey     string
	Timeout    time.Duration
}

// RedisConfig is optional; an empty Addr keeps carts in memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CartTTL  time.Duration
}

// KafkaConfig is optional; no brokers disables event mirroring.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv: getEnv("APP_ENV", "development"),
			Port:   getEnv("PORT", "3000"),
		},
		Logger: LoggerConfig{
			Level:      getEnv("LOGGER_LEVEL", "info"),
			Encoding:   getEnv("LOGGER_ENCODING", "console"),
			FileEnable: getEnvBool("LOGGER_FILE_ENABLE", false),
			Filename:   getEnv("LOGGER_FILENAME", "logs/kasa-pos.log"),
		},
		Postgres: PostgresConfig{
			DSN:             getEnv("DATABASE_URL", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "kasa_pos"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			TimeZone:        getEnv("DB_TIMEZONE", "Europe/Istanbul"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 3600),
		},
		JWT: JWTConfig{
			SecretKey:     getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours:   getEnvInt("JWT_EXPIRE_HOURS", 12),
			AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
			AdminPassword: getEnv("ADMIN_PASSWORD", "123456"),
		},
		Store: StoreConfig{
			TimeZone: getEnv("STORE_TIMEZONE", "Europe/Istanbul"),
			TopN:     getEnvInt("DASHBOARD_TOP_N", 10),
		},
		Chat: ChatConfig{
			WebhookURL: getEnv("CHAT_WEBHOOK_URL", "http://localhost:5678/webhook/sales-assistant"),
			APIKey:     getEnv("CHAT_API_KEY", ""),
			Timeout:    time.Duration(getEnvInt("CHAT_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			CartTTL:  time.Duration(getEnvInt("REDIS_CART_TTL_MINUTES", 720)) * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers: getEnvSlice("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC", "pos.events"),
		},
	}
}

// Location resolves the store time zone, falling back to UTC.
func (c StoreConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return fallback
}
