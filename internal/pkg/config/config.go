package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	OpsPort   string `env:"OPS_PORT,  default=9090"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET, required"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	UPS       UPSConfig
	Endicia   EndiciaConfig
	Transport TransportConfig
	Gateway   GatewayConfig
	Mongo     MongoConfig
	Redis     RedisConfig
}

// UPSConfig holds the account the gateway bills UPS calls to. A blank key
// leaves the carrier unregistered.
type UPSConfig struct {
	Key                string `env:"UPS_KEY"`
	Login              string `env:"UPS_LOGIN"`
	Password           string `env:"UPS_PASSWORD"`
	OriginAccount      string `env:"UPS_ORIGIN_ACCOUNT"`
	DestinationAccount string `env:"UPS_DESTINATION_ACCOUNT"`
	Test               bool   `env:"UPS_TEST, default=true"`
}

type EndiciaConfig struct {
	AccountID   string `env:"ENDICIA_ACCOUNT_ID"`
	RequesterID string `env:"ENDICIA_REQUESTER_ID"`
	Password    string `env:"ENDICIA_PASSWORD"`
	Test        bool   `env:"ENDICIA_TEST, default=true"`
}

type TransportConfig struct {
	Timeout     time.Duration `env:"CARRIER_HTTP_TIMEOUT,  default=30s"`
	MaxFailures uint32        `env:"CARRIER_MAX_FAILURES,  default=5"`
	OpenTimeout time.Duration `env:"CARRIER_BREAKER_OPEN,  default=30s"`
}

type GatewayConfig struct {
	RateCacheTTL    time.Duration `env:"RATE_CACHE_TTL,   default=10m"`
	LabelGuardTTL   time.Duration `env:"LABEL_GUARD_TTL,  default=24h"`
	AuditRetention  time.Duration `env:"AUDIT_RETENTION,  default=720h"`
	TrackingWorkers int           `env:"TRACKING_WORKERS, default=8"`
}

// MongoConfig is optional: with no URI the audit log and label archive are off.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB,     default=carrier_gateway"`
	Bucket   string `env:"MONGO_BUCKET, default=labels"`
}

// RedisConfig is optional: with no address rates are not cached and label
// purchases are not deduplicated.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

// Pretty reports whether logs should go to the console writer.
func (c *Config) Pretty() bool { return c.Env == "development" }

func (c UPSConfig) Enabled() bool     { return c.Key != "" }
func (c EndiciaConfig) Enabled() bool { return c.AccountID != "" }

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := load(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	if cfg.Gateway.TrackingWorkers <= 0 {
		return nil, fmt.Errorf("TRACKING_WORKERS must be positive, got %d", cfg.Gateway.TrackingWorkers)
	}
	return &cfg, nil
}
