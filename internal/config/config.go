package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	neturl "net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Storage drivers understood by the server.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config centralises runtime configuration.
type Config struct {
	HTTPPort        string        `env:"HTTP_PORT"`
	StorageDriver   string        `env:"STORAGE_DRIVER" envDefault:"postgres"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	JWTSecret       string        `env:"JWT_SECRET"`
	JWTIssuer       string        `env:"JWT_ISSUER" envDefault:"eventboard"`
	JWTExpiry       time.Duration `env:"JWT_EXPIRY" envDefault:"168h"`
	BcryptCost      int           `env:"BCRYPT_COST" envDefault:"10"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	ReadTimeoutSec  int           `env:"HTTP_READ_TIMEOUT" envDefault:"15"`
	WriteTimeoutSec int           `env:"HTTP_WRITE_TIMEOUT" envDefault:"15"`
	IdleTimeoutSec  int           `env:"HTTP_IDLE_TIMEOUT" envDefault:"60"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	AdminEmail      string        `env:"ADMIN_EMAIL"`
	AdminPassword   string        `env:"ADMIN_PASSWORD"`
}

// fallbackEnv holds variables consulted only when the primary ones are unset.
type fallbackEnv struct {
	Port string `env:"PORT" envDefault:"5000"`
	PG   pgEnv  `envPrefix:"PG"`
}

// pgEnv mirrors the libpq connection variables.
type pgEnv struct {
	Host     string `env:"HOST"`
	Port     string `env:"PORT" envDefault:"5432"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	Database string `env:"DATABASE"`
	SSLMode  string `env:"SSLMODE" envDefault:"prefer"`
}

// Load reads configuration from the environment, after merging a .env file
// from the working directory when one exists. Variables already set win
// over the file.
func Load() (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	var fb fallbackEnv
	if err := env.Parse(&fb); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}

	if cfg.HTTPPort == "" {
		cfg.HTTPPort = fb.Port
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	cfg.AdminEmail = strings.TrimSpace(cfg.AdminEmail)
	cfg.AllowedOrigins = cleanOrigins(cfg.AllowedOrigins)
	if cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL); cfg.DatabaseURL != "" {
		cfg.DatabaseURL = normalisePostgresScheme(cfg.DatabaseURL)
	} else {
		cfg.DatabaseURL = fb.PG.dsn()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first configuration problem that prevents startup.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("database configuration missing: provide DATABASE_URL or PGHOST and PGUSER")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWTExpiry <= 0 {
		return errors.New("JWT_EXPIRY must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat)
	}
	return nil
}

// dsn builds a connection URL, or returns "" when host or user is missing.
// The database defaults to the user name, as libpq does.
func (p pgEnv) dsn() string {
	if p.Host == "" || p.User == "" {
		return ""
	}
	database := p.Database
	if database == "" {
		database = p.User
	}

	u := &neturl.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(p.Host, p.Port),
		Path:   "/" + database,
		User:   neturl.User(p.User),
	}
	if p.Password != "" {
		u.User = neturl.UserPassword(p.User, p.Password)
	}
	if p.SSLMode != "" {
		u.RawQuery = neturl.Values{"sslmode": {p.SSLMode}}.Encode()
	}
	return u.String()
}

func cleanOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func normalisePostgresScheme(url string) string {
	if rest, ok := strings.CutPrefix(url, "postgresql://"); ok {
		return "postgres://" + rest
	}
	return url
}
