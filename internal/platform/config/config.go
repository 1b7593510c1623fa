package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the full runtime configuration. Values come from the environment,
// optionally layered over a YAML file named by CONFIG_PATH.
type Config struct {
	Server     Server      `yaml:"server"`
	Log        Log         `yaml:"log"`
	Database   Database    `yaml:"database"`
	Redis      RedisConfig `yaml:"redis"`
	Kafka      Kafka       `yaml:"kafka"`
	Passport   Passport    `yaml:"passport"`
	VerifyCode VerifyCode  `yaml:"verify_code"`
	TrustSweep TrustSweep  `yaml:"trust_sweep"`
	RateLimit  RateLimit   `yaml:"rate_limit"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr" env:"TRUSTGATE_ADDR" env-default:":8080"`
	AdminToken      string        `yaml:"admin_token" env:"ADMIN_API_TOKEN"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// Database selects PostgreSQL persistence. An empty DSN keeps everything in memory.
type Database struct {
	DSN          string        `yaml:"dsn" env:"DATABASE_URL"`
	MaxOpenConns int           `yaml:"max_open_conns" env:"DATABASE_MAX_OPEN_CONNS" env-default:"10"`
	MaxIdleConns int           `yaml:"max_idle_conns" env:"DATABASE_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLife  time.Duration `yaml:"conn_max_lifetime" env:"DATABASE_CONN_MAX_LIFETIME" env-default:"30m"`
	TxTimeout    time.Duration `yaml:"tx_timeout" env:"DATABASE_TX_TIMEOUT" env-default:"5s"`
	Migrate      bool          `yaml:"migrate" env:"DATABASE_MIGRATE" env-default:"true"`
}

// RedisConfig backs verification codes. An empty URL uses the in-memory store.
type RedisConfig struct {
	URL          string        `yaml:"url" env:"REDIS_URL"`
	PoolSize     int           `yaml:"pool_size" env:"REDIS_POOL_SIZE" env-default:"10"`
	MinIdleConns int           `yaml:"min_idle_conns" env:"REDIS_MIN_IDLE_CONNS" env-default:"2"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"REDIS_READ_TIMEOUT" env-default:"3s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"REDIS_WRITE_TIMEOUT" env-default:"3s"`
}

// Kafka streams audit events. No brokers means audit stays in memory.
type Kafka struct {
	Brokers    []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	AuditTopic string   `yaml:"audit_topic" env:"KAFKA_AUDIT_TOPIC" env-default:"trustgate.audit"`
	// Partitions and ReplicationFactor apply only when the topic is created
	// at startup.
	Partitions        int32 `yaml:"partitions" env:"KAFKA_AUDIT_PARTITIONS" env-default:"3"`
	ReplicationFactor int16 `yaml:"replication_factor" env:"KAFKA_AUDIT_REPLICATION" env-default:"1"`
}

type Passport struct {
	SigningKey string        `yaml:"signing_key" env:"PASSPORT_SIGNING_KEY"`
	Issuer     string        `yaml:"issuer" env:"PASSPORT_ISSUER" env-default:"trustgate"`
	TTL        time.Duration `yaml:"ttl" env:"PASSPORT_TTL" env-default:"720h"`
}

type VerifyCode struct {
	TTL           time.Duration `yaml:"ttl" env:"VERIFY_CODE_TTL" env-default:"10m"`
	VerifiedTTL   time.Duration `yaml:"verified_ttl" env:"VERIFY_CODE_VERIFIED_TTL" env-default:"24h"`
	Length        int           `yaml:"length" env:"VERIFY_CODE_LENGTH" env-default:"6"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"VERIFY_CODE_SWEEP_INTERVAL" env-default:"1m"`
}

// TrustSweep schedules the time_based trust adjustment job. Zero disables it.
type TrustSweep struct {
	Interval time.Duration `yaml:"interval" env:"TRUST_SWEEP_INTERVAL" env-default:"24h"`
}

// RateLimit throttles public endpoints per client IP. Buckets live in Redis
// when it is configured.
type RateLimit struct {
	Requests int           `yaml:"requests" env:"RATE_LIMIT_REQUESTS" env-default:"60"`
	Window   time.Duration `yaml:"window" env:"RATE_LIMIT_WINDOW" env-default:"1m"`
	Disabled bool          `yaml:"disabled" env:"RATE_LIMIT_DISABLED" env-default:"false"`
}

const devSigningKey = "dev-passport-key-change-in-production"

// Load reads configuration from CONFIG_PATH (if set) and the environment.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config from env: %w", err)
	}

	if cfg.Passport.SigningKey == "" {
		// Development only; Validate rejects it once persistence is configured.
		cfg.Passport.SigningKey = devSigningKey
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// Validate checks cross-field constraints cleanenv cannot express.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.AdminToken == "" {
		errs = append(errs, errors.New("ADMIN_API_TOKEN is required"))
	}
	if c.VerifyCode.Length < 4 || c.VerifyCode.Length > 10 {
		errs = append(errs, fmt.Errorf("VERIFY_CODE_LENGTH must be between 4 and 10, got %d", c.VerifyCode.Length))
	}
	if c.VerifyCode.TTL <= 0 {
		errs = append(errs, errors.New("VERIFY_CODE_TTL must be positive"))
	}
	if c.Passport.TTL <= 0 {
		errs = append(errs, errors.New("PASSPORT_TTL must be positive"))
	}
	if c.TrustSweep.Interval < 0 {
		errs = append(errs, errors.New("TRUST_SWEEP_INTERVAL must not be negative"))
	}
	if len(c.Kafka.Brokers) > 0 && (c.Kafka.Partitions <= 0 || c.Kafka.ReplicationFactor <= 0) {
		errs = append(errs, errors.New("KAFKA_AUDIT_PARTITIONS and KAFKA_AUDIT_REPLICATION must be positive"))
	}
	if c.Database.DSN != "" && c.UsesDevSigningKey() {
		errs = append(errs, errors.New("PASSPORT_SIGNING_KEY is required when DATABASE_URL is set"))
	}
	if !c.RateLimit.Disabled && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive"))
	}
	return errors.Join(errs...)
}

// UsesDevSigningKey reports whether passports would be signed with the
// built-in development key.
func (c *Config) UsesDevSigningKey() bool {
	return c.Passport.SigningKey == devSigningKey
}
