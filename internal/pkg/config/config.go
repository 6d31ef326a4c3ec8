package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"

	lockedRoundTrips = 4
)

type Config struct {
	Port       string        `env:"PORT,        default=8080"`
	Env        string        `env:"ENV,         default=development"`
	JWTSecret  string        `env:"JWT_SECRET"`
	JWTTTL     time.Duration `env:"JWT_TTL,     default=24h"`
	LogLevel   string        `env:"LOG_LEVEL,   default=info"`
	CORSOrigin []string      `env:"CORS_ORIGIN, default=*"`

	// StorageDriver selects the repository backend: mongo or memory.
	StorageDriver  string `env:"STORAGE_DRIVER,  default=mongo"`
	InitialCredits int    `env:"INITIAL_CREDITS, default=5"`

	Mongo     MongoConfig
	Redis     RedisConfig
	Signaling SignalingConfig
	Notify    NotifyConfig
}

// MongoConfig.Timeout bounds every single MongoDB operation.
type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017/?replicaSet=rs0"`
	Database string        `env:"MONGO_DB,      default=skillswap"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=5s"`
}

// RedisConfig is optional. With an empty Addr, session locks are process-local.
type RedisConfig struct {
	Addr         string        `env:"REDIS_ADDR"`
	Password     string        `env:"REDIS_PASSWORD"`
	DB           int           `env:"REDIS_DB,        default=0"`
	PoolSize     int           `env:"REDIS_POOL_SIZE, default=10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE,  default=0"`
	Timeout      time.Duration `env:"REDIS_TIMEOUT,   default=3s"`
	LockTTL      time.Duration `env:"LOCK_TTL,        default=30s"`
}

type SignalingConfig struct {
	MaxRoomSize         int           `env:"SIGNALING_MAX_ROOM_SIZE,       default=2"`
	EnforceSessionRooms bool          `env:"SIGNALING_ENFORCE_SESSION_ROOMS, default=true"`
	ReadLimit           int64         `env:"SIGNALING_READ_LIMIT,          default=65536"`
	PingPeriod          time.Duration `env:"SIGNALING_PING_PERIOD,         default=25s"`
	SendBuffer          int           `env:"SIGNALING_SEND_BUFFER,         default=32"`
	MessageRate         float64       `env:"SIGNALING_MESSAGE_RATE,        default=50"`
	MessageBurst        int           `env:"SIGNALING_MESSAGE_BURST,       default=100"`
}

type NotifyConfig struct {
	Workers int `env:"NOTIFY_WORKERS, default=4"`
	Buffer  int `env:"NOTIFY_BUFFER,  default=256"`
}

// IsDevelopment reports whether the service runs in a local environment.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development") || strings.EqualFold(c.Env, "local")
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.StorageDriver != StorageMongo && c.StorageDriver != StorageMemory {
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageMongo, StorageMemory, c.StorageDriver))
	}
	if c.InitialCredits < 0 {
		errs = append(errs, errors.New("INITIAL_CREDITS must not be negative"))
	}
	if c.Signaling.MaxRoomSize < 2 {
		errs = append(errs, errors.New("SIGNALING_MAX_ROOM_SIZE must be at least 2"))
	}
	// Confirm makes up to lockedRoundTrips MongoDB calls while holding the
	// Redis lock, and the lock is never renewed.
	if c.Redis.Addr != "" && c.Redis.LockTTL <= lockedRoundTrips*c.Mongo.Timeout {
		errs = append(errs, fmt.Errorf("LOCK_TTL (%s) must exceed %d x MONGO_TIMEOUT (%s)", c.Redis.LockTTL, lockedRoundTrips, c.Mongo.Timeout))
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, errors.New("REDIS_POOL_SIZE must be at least 1"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads configuration through lookuper.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	return &cfg, nil
}
