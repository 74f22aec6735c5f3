package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"golang.org/x/crypto/bcrypt"
)

// Store drivers.
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMongo    = "mongo"
)

// Token stores.
const (
	TokenStoreDatabase = "database"
	TokenStoreRedis    = "redis"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	Store StoreConfig
	Mongo MongoConfig
	Redis RedisConfig
	Auth  AuthConfig
	Admin AdminConfig

	AuditWorkers       int      `env:"AUDIT_WORKERS,        default=4"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS, default=*"`
}

type StoreConfig struct {
	Driver      string `env:"STORE_DRIVER, default=sqlite"`
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH,  default=photosync.db"`
	TokenStore  string `env:"TOKEN_STORE,  default=database"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=photosync"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type AuthConfig struct {
	TokenTTL      time.Duration `env:"TOKEN_TTL,            default=0"`
	SweepSchedule string        `env:"TOKEN_SWEEP_SCHEDULE, default=@every 1h"`
	BcryptCost    int           `env:"BCRYPT_COST,          default=10"`
}

// AdminConfig seeds an admin account at startup when Email is set.
type AdminConfig struct {
	Email    string `env:"ADMIN_EMAIL"`
	Password string `env:"ADMIN_PASSWORD"`
	Name     string `env:"ADMIN_NAME, default=Administrator"`
}

// IsDevelopment reports whether the service runs in a local environment.
func (c *Config) IsDevelopment() bool {
	switch strings.ToLower(c.Env) {
	case "development", "dev", "local":
		return true
	}
	return false
}

// Load reads configuration from environment variables using go-envconfig.
// In development a .env file in the working directory is read first;
// variables already set in the environment win.
func Load(ctx context.Context) (*Config, error) {
	if env := os.Getenv("ENV"); env == "" || env == "development" || env == "dev" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: reading .env: %w", err)
		}
	}
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith processes configuration from l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var problems []string

	switch c.Store.Driver {
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			problems = append(problems, "SQLITE_PATH is required for the sqlite store")
		}
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required for the postgres store")
		}
	case StoreMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			problems = append(problems, "MONGO_URI and MONGO_DB are required for the mongo store")
		}
	default:
		problems = append(problems, fmt.Sprintf("STORE_DRIVER %q is not one of postgres, sqlite, mongo", c.Store.Driver))
	}

	switch c.Store.TokenStore {
	case TokenStoreDatabase:
	case TokenStoreRedis:
		if c.Redis.Addr == "" {
			problems = append(problems, "REDIS_ADDR is required for the redis token store")
		}
	default:
		problems = append(problems, fmt.Sprintf("TOKEN_STORE %q is not one of database, redis", c.Store.TokenStore))
	}

	if c.Auth.TokenTTL < 0 {
		problems = append(problems, "TOKEN_TTL must not be negative")
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		problems = append(problems, fmt.Sprintf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if (c.Admin.Email == "") != (c.Admin.Password == "") {
		problems = append(problems, "ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}
