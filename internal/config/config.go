package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"

	"github.com/iliyamo/venue-seat-layout/internal/database"
)

// Layout store backends selectable through LAYOUT_STORE.
const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	Port         string // HTTP port to listen on
	LayoutStore  string // "mysql" or "memory"
	DBUser       string // database username
	DBPass       string // database password (optional)
	DBHost       string // database host address
	DBPort       string // database port number
	DBName       string // database name
	JWTSecret    string // secret used to verify access tokens
	AccessTTLMin int    // lifetime of tokens minted by cmd/devtoken
	AMQPURL      string // broker for layout.saved events; empty disables publishing
	AuditLogDir  string // directory the layout audit consumer writes to
}

// Load reads an optional .env file and then the environment.  Required
// variables are enforced by must(); database settings are only required
// when layouts are stored in MySQL.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}
	cfg := Config{
		Env:          getenv("APP_ENV", "dev"),
		Port:         getenv("APP_PORT", "8080"),
		LayoutStore:  strings.ToLower(getenv("LAYOUT_STORE", StoreMySQL)),
		DBPass:       os.Getenv("DB_PASS"),
		JWTSecret:    must("JWT_SECRET"),
		AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 60),
		AMQPURL:      amqpURL(),
		AuditLogDir:  getenv("AUDIT_LOG_DIR", "logs"),
	}
	if cfg.LayoutStore != StoreMemory {
		cfg.LayoutStore = StoreMySQL
		cfg.DBUser = must("DB_USER")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	}
	return cfg
}

// AuthConfig is the subset of Config needed to mint or verify tokens.
type AuthConfig struct {
	JWTSecret    string
	AccessTTLMin int
}

// LoadAuth reads only the token settings, for tools that never touch the
// database.
func LoadAuth() AuthConfig {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}
	return AuthConfig{
		JWTSecret:    must("JWT_SECRET"),
		AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 60),
	}
}

// MySQLDSN builds the driver DSN for the configured database.  parseTime
// maps DATETIME columns to time.Time and loc=UTC keeps them consistent.
func (c Config) MySQLDSN() string {
	mc := mysql.NewConfig()
	mc.User = c.DBUser
	mc.Passwd = c.DBPass
	mc.Net = "tcp"
	mc.Addr = c.DBHost + ":" + c.DBPort
	mc.DBName = c.DBName
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// DBPool reads DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS, DB_CONN_MAX_LIFETIME
// and DB_PING_ATTEMPTS.  Unset values fall back to the database defaults.
func (c Config) DBPool() database.Pool {
	return database.Pool{
		MaxOpen:      envInt("DB_MAX_OPEN_CONNS", 0),
		MaxIdle:      envInt("DB_MAX_IDLE_CONNS", 0),
		MaxLifetime:  envDur("DB_CONN_MAX_LIFETIME", 0),
		PingAttempts: envInt("DB_PING_ATTEMPTS", 0),
	}
}

// amqpURL returns RABBITMQ_URL, falling back to AMQP_URL.
func amqpURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if b, err := strconv.ParseBool(strings.ToLower(v)); err == nil {
		return b
	}
	switch strings.ToLower(v) {
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return dur
	}
	return d
}
