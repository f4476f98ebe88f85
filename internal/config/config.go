package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverMemory = "memory"
	DriverMongo  = "mongo"
	DriverPgx    = "pgx"
	DriverSQLite = "sqlite"
)

type Config struct {
	Addr          string `mapstructure:"addr"`
	WebhookSecret string `mapstructure:"webhook_secret"`

	Store     StoreConfig     `mapstructure:"store"`
	DB        DBConfig        `mapstructure:"db"`
	TLS       TLSConfig       `mapstructure:"tls"`
	Read      ReadConfig      `mapstructure:"read"`
	Audit     AuditConfig     `mapstructure:"audit"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type StoreConfig struct {
	Driver         string        `mapstructure:"driver"`
	DSN            string        `mapstructure:"dsn"`
	Database       string        `mapstructure:"database"`
	Collection     string        `mapstructure:"collection"`
	Migrate        bool          `mapstructure:"migrate"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// DBConfig carries Postgres connection parts and TLS settings. The parts are
// only used when store.dsn is empty.
type DBConfig struct {
	Host        string `mapstructure:"host"`
	Port        string `mapstructure:"port"`
	Name        string `mapstructure:"name"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	SSLMode     string `mapstructure:"sslmode"`
	SSLRootCert string `mapstructure:"sslrootcert"`
	SSLCert     string `mapstructure:"sslcert"`
	SSLKey      string `mapstructure:"sslkey"`
}

type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

type ReadConfig struct {
	Token          string `mapstructure:"token"`
	JWTHS256Secret string `mapstructure:"jwt_hs256_secret"`
}

type AuditConfig struct {
	LogFile string `mapstructure:"log_file"`
}

type RateLimitConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	WebhookPerMinute int  `mapstructure:"webhook_per_min"`
	ReadPerMinute    int  `mapstructure:"read_per_min"`
}

func LoadFromEnv() Config {
	v := viper.New()
	v.SetEnvPrefix("HOOKLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default so AutomaticEnv values reach Unmarshal.
	v.SetDefault("addr", ":5000")
	v.SetDefault("webhook_secret", "")
	v.SetDefault("store.driver", "")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.database", "webhook_db")
	v.SetDefault("store.collection", "events")
	v.SetDefault("store.migrate", true)
	v.SetDefault("store.connect_timeout", 10*time.Second)
	for _, key := range []string{"host", "port", "name", "user", "password", "sslmode", "sslrootcert", "sslcert", "sslkey"} {
		v.SetDefault("db."+key, "")
	}
	v.SetDefault("tls.enabled", false)
	v.SetDefault("tls.cert_file", "")
	v.SetDefault("tls.key_file", "")
	v.SetDefault("read.token", "")
	v.SetDefault("read.jwt_hs256_secret", "")
	v.SetDefault("audit.log_file", "")
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.webhook_per_min", 240)
	v.SetDefault("rate_limit.read_per_min", 600)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/hooklog/")

	_ = v.ReadInConfig() // ignore if not found

	// Legacy names used by earlier deployments.
	_ = v.BindEnv("webhook_secret", "HOOKLOG_WEBHOOK_SECRET", "WEBHOOK_SECRET")
	_ = v.BindEnv("store.dsn", "HOOKLOG_STORE_DSN", "MONGO_URI")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		fmt.Printf("Warning: failed to unmarshal config: %v\n", err)
	}

	if cfg.Store.DSN == "" {
		cfg.Store.DSN = buildDSNFromParts(cfg)
	}
	cfg.Store.Driver = inferDriver(cfg.Store.Driver, cfg.Store.DSN)
	return cfg
}

// inferDriver canonicalizes driver aliases and derives a driver from the DSN
// scheme when none is set. No driver and no DSN selects the memory store.
func inferDriver(driver, dsn string) string {
	d := strings.ToLower(strings.TrimSpace(driver))
	switch d {
	case "mongodb":
		return DriverMongo
	case "postgres", "postgresql":
		return DriverPgx
	case "sqlite3":
		return DriverSQLite
	case "":
	default:
		return d
	}
	dsn = strings.ToLower(strings.TrimSpace(dsn))
	switch {
	case dsn == "":
		return DriverMemory
	case strings.HasPrefix(dsn, "mongodb://"), strings.HasPrefix(dsn, "mongodb+srv://"):
		return DriverMongo
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DriverPgx
	case strings.HasPrefix(dsn, "file:"), strings.HasSuffix(dsn, ".db"), strings.HasSuffix(dsn, ".sqlite"):
		return DriverSQLite
	default:
		return ""
	}
}

// Dialect maps SQL drivers onto the migration and query dialect.
func (c Config) Dialect() string {
	switch c.Store.Driver {
	case DriverPgx:
		return "postgres"
	case DriverSQLite:
		return "sqlite"
	default:
		return ""
	}
}

func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Addr) == "" {
		problems = append(problems, "HOOKLOG_ADDR must not be empty")
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverMongo, DriverPgx, DriverSQLite:
		if strings.TrimSpace(c.Store.DSN) == "" {
			problems = append(problems, fmt.Sprintf("HOOKLOG_STORE_DSN is required for store driver %q", c.Store.Driver))
		}
	case "":
		problems = append(problems, "cannot infer store driver from HOOKLOG_STORE_DSN; set HOOKLOG_STORE_DRIVER to one of memory, mongo, pgx, sqlite")
	default:
		problems = append(problems, fmt.Sprintf("HOOKLOG_STORE_DRIVER %q must be one of memory, mongo, pgx, sqlite", c.Store.Driver))
	}
	if c.Store.Driver == DriverMongo {
		if strings.TrimSpace(c.Store.Database) == "" {
			problems = append(problems, "HOOKLOG_STORE_DATABASE must not be empty for the mongo store")
		}
		if strings.TrimSpace(c.Store.Collection) == "" {
			problems = append(problems, "HOOKLOG_STORE_COLLECTION must not be empty for the mongo store")
		}
	}
	if c.Store.DSN == "" && hasAnyDBParts(c) && !hasAllDBParts(c) {
		problems = append(problems, "incomplete split DB config; set all of HOOKLOG_DB_HOST/HOOKLOG_DB_PORT/HOOKLOG_DB_NAME/HOOKLOG_DB_USER/HOOKLOG_DB_PASSWORD")
	}
	if c.RateLimit.Enabled && (c.RateLimit.WebhookPerMinute <= 0 || c.RateLimit.ReadPerMinute <= 0) {
		problems = append(problems, "HOOKLOG_RATE_LIMIT_WEBHOOK_PER_MIN and HOOKLOG_RATE_LIMIT_READ_PER_MIN must be positive when rate limiting is enabled")
	}
	if c.TLS.Enabled && strings.TrimSpace(c.TLS.CertFile) == "" {
		problems = append(problems, "HOOKLOG_TLS_CERT_FILE is required when HOOKLOG_TLS_ENABLED=true")
	}
	if c.TLS.Enabled && strings.TrimSpace(c.TLS.KeyFile) == "" {
		problems = append(problems, "HOOKLOG_TLS_KEY_FILE is required when HOOKLOG_TLS_ENABLED=true")
	}
	if len(problems) == 0 {
		return nil
	}
	return errors.New(strings.Join(problems, "; "))
}

type StartupSummary struct {
	RepositoryMode   string
	WebhookSecretSet bool
	ReadAuth         string
	TLSEnabled       bool
	AuthRateLimit    bool
	AuditLog         bool
}

func (c Config) Summary() StartupSummary {
	return StartupSummary{
		RepositoryMode:   c.RepositoryMode(),
		WebhookSecretSet: strings.TrimSpace(c.WebhookSecret) != "",
		ReadAuth:         c.readAuthMode(),
		TLSEnabled:       c.TLS.Enabled,
		AuthRateLimit:    c.RateLimit.Enabled,
		AuditLog:         strings.TrimSpace(c.Audit.LogFile) != "",
	}
}

// RepositoryMode is the store label reported by /healthz and startup logs.
func (c Config) RepositoryMode() string {
	switch c.Store.Driver {
	case DriverPgx, DriverSQLite:
		return "sql:" + c.Dialect()
	case DriverMongo:
		return DriverMongo
	default:
		return DriverMemory
	}
}

func (c Config) readAuthMode() string {
	var modes []string
	if strings.TrimSpace(c.Read.Token) != "" {
		modes = append(modes, "token")
	}
	if strings.TrimSpace(c.Read.JWTHS256Secret) != "" {
		modes = append(modes, "jwt")
	}
	if len(modes) == 0 {
		return "open"
	}
	return strings.Join(modes, "+")
}

// PostgresDSN returns the configured DSN with the db.ssl* settings merged
// into its query string. Non-Postgres drivers get the DSN unchanged.
func (c Config) PostgresDSN() string {
	if c.Store.Driver != DriverPgx {
		return c.Store.DSN
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" &&
		strings.TrimSpace(c.DB.SSLRootCert) == "" &&
		strings.TrimSpace(c.DB.SSLCert) == "" &&
		strings.TrimSpace(c.DB.SSLKey) == "" {
		return c.Store.DSN
	}
	u, err := url.Parse(c.Store.DSN)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return c.Store.DSN
	}
	q := u.Query()
	if v := strings.TrimSpace(c.DB.SSLMode); v != "" {
		q.Set("sslmode", v)
	}
	if v := strings.TrimSpace(c.DB.SSLRootCert); v != "" {
		q.Set("sslrootcert", v)
	}
	if v := strings.TrimSpace(c.DB.SSLCert); v != "" {
		q.Set("sslcert", v)
	}
	if v := strings.TrimSpace(c.DB.SSLKey); v != "" {
		q.Set("sslkey", v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func hasAnyDBParts(c Config) bool {
	return strings.TrimSpace(c.DB.Host) != "" ||
		strings.TrimSpace(c.DB.Port) != "" ||
		strings.TrimSpace(c.DB.Name) != "" ||
		strings.TrimSpace(c.DB.User) != "" ||
		strings.TrimSpace(c.DB.Password) != ""
}

func hasAllDBParts(c Config) bool {
	return strings.TrimSpace(c.DB.Host) != "" &&
		strings.TrimSpace(c.DB.Port) != "" &&
		strings.TrimSpace(c.DB.Name) != "" &&
		strings.TrimSpace(c.DB.User) != "" &&
		strings.TrimSpace(c.DB.Password) != ""
}

func buildDSNFromParts(c Config) string {
	if !hasAllDBParts(c) {
		return ""
	}
	port := strings.TrimSpace(c.DB.Port)
	if _, err := strconv.Atoi(port); err != nil {
		return ""
	}
	sslMode := strings.TrimSpace(c.DB.SSLMode)
	if sslMode == "" {
		sslMode = "disable"
	}
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DB.User, c.DB.Password),
		Host:   fmt.Sprintf("%s:%s", c.DB.Host, port),
		Path:   "/" + url.PathEscape(c.DB.Name),
	}
	q := url.Values{}
	q.Set("sslmode", sslMode)
	u.RawQuery = q.Encode()
	return u.String()
}
