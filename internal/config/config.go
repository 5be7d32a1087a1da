package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	Remote   RemoteConfig
	Sync     SyncConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

type ServerConfig struct {
	Port               int
	CORSAllowedOrigins []string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	// RequestTimeout bounds a single handler, including a manual sync.
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// RemoteConfig points at the restaurant API that owns canonical orders.
type RemoteConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type SyncConfig struct {
	Interval    time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	LockTTL     time.Duration
}

// RedisConfig is optional. An empty Addr disables the cross-process sweep lock.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig is optional. No brokers disables sync event publishing.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Load reads configuration from the environment, optionally layered over the
// file named by CONFIG_FILE. The file may use the flat environment names
// (server_port: 9090) or sections (server: {port: 9090}); a section key maps
// to <section>_<key>. Environment variables win over the file.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("SERVER_READ_TIMEOUT", "10s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "65s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "60s")
	v.SetDefault("SERVER_REQUEST_TIMEOUT", "60s")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_USER", "tableside")
	v.SetDefault("DB_PASSWORD", "secret")
	v.SetDefault("DB_NAME", "tableside")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("REMOTE_API_URL", "http://localhost:3000/api")
	v.SetDefault("REMOTE_API_TOKEN", "")
	v.SetDefault("REMOTE_TIMEOUT", "10s")
	v.SetDefault("SYNC_INTERVAL", "30s")
	v.SetDefault("SYNC_MAX_ATTEMPTS", 5)
	v.SetDefault("SYNC_BASE_DELAY", "2s")
	v.SetDefault("SYNC_MAX_DELAY", "5m")
	v.SetDefault("SYNC_LOCK_TTL", "2m")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_SYNC_TOPIC", "tableside.orders.synced")

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		flattenSections(v)
	}

	durations := map[string]time.Duration{}
	for _, key := range []string{
		"SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "SERVER_IDLE_TIMEOUT",
		"SERVER_REQUEST_TIMEOUT", "SERVER_SHUTDOWN_TIMEOUT",
		"DB_CONN_MAX_LIFETIME", "REMOTE_TIMEOUT", "SYNC_INTERVAL",
		"SYNC_BASE_DELAY", "SYNC_MAX_DELAY", "SYNC_LOCK_TTL",
	} {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", key, err)
		}
		durations[key] = d
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               v.GetInt("SERVER_PORT"),
			CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			ReadTimeout:        durations["SERVER_READ_TIMEOUT"],
			WriteTimeout:       durations["SERVER_WRITE_TIMEOUT"],
			IdleTimeout:        durations["SERVER_IDLE_TIMEOUT"],
			RequestTimeout:     durations["SERVER_REQUEST_TIMEOUT"],
			ShutdownTimeout:    durations["SERVER_SHUTDOWN_TIMEOUT"],
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: durations["DB_CONN_MAX_LIFETIME"],
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Remote: RemoteConfig{
			BaseURL: strings.TrimRight(v.GetString("REMOTE_API_URL"), "/"),
			Token:   v.GetString("REMOTE_API_TOKEN"),
			Timeout: durations["REMOTE_TIMEOUT"],
		},
		Sync: SyncConfig{
			Interval:    durations["SYNC_INTERVAL"],
			MaxAttempts: v.GetInt("SYNC_MAX_ATTEMPTS"),
			BaseDelay:   durations["SYNC_BASE_DELAY"],
			MaxDelay:    durations["SYNC_MAX_DELAY"],
			LockTTL:     durations["SYNC_LOCK_TTL"],
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_SYNC_TOPIC"),
		},
	}

	if cfg.Server.WriteTimeout > 0 && cfg.Server.WriteTimeout < cfg.Server.RequestTimeout {
		return nil, fmt.Errorf("SERVER_WRITE_TIMEOUT (%s) must not be shorter than SERVER_REQUEST_TIMEOUT (%s)",
			cfg.Server.WriteTimeout, cfg.Server.RequestTimeout)
	}
	if cfg.Sync.Interval <= 0 {
		return nil, fmt.Errorf("SYNC_INTERVAL must be positive, got %s", cfg.Sync.Interval)
	}
	if cfg.Sync.MaxAttempts < 1 {
		return nil, fmt.Errorf("SYNC_MAX_ATTEMPTS must be at least 1, got %d", cfg.Sync.MaxAttempts)
	}

	return cfg, nil
}

// flattenSections copies every sectioned file key (sync.max_attempts) onto
// its flat name (sync_max_attempts) below the environment. Lists are joined so
// splitList can read them back.
func flattenSections(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		if !strings.Contains(key, ".") {
			continue
		}
		value := v.Get(key)
		if list, ok := value.([]interface{}); ok {
			parts := make([]string, 0, len(list))
			for _, item := range list {
				parts = append(parts, fmt.Sprint(item))
			}
			value = strings.Join(parts, ",")
		}
		v.SetDefault(strings.ReplaceAll(key, ".", "_"), value)
	}
}

// splitList turns "a, b,c" into [a b c]. viper's own slice cast splits on
// whitespace only.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
