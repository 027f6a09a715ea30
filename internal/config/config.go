// Package config loads and validates console config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Policy engines accepted by POLICY_ENGINE.
const (
	PolicyEngineStatic = "static"
	PolicyEngineOPA    = "opa"
)

// Credential schemes accepted by CREDENTIAL_SCHEME.
const (
	CredentialPlain  = "plain"
	CredentialBcrypt = "bcrypt"
)

var accessCodePrefixRe = regexp.MustCompile(`^[A-Z]+$`)

// Config holds application configuration loaded from the environment.
type Config struct {
	// GRPCAddr is the address the gRPC health server listens on (e.g. :8080).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// MetricsAddr is the address of the Prometheus /metrics endpoint; empty disables it.
	MetricsAddr string `mapstructure:"METRICS_ADDR"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// StorageDriver selects the key/value backend: memory, sqlite or postgres.
	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	// SQLitePath is the database file used when StorageDriver is sqlite.
	SQLitePath string `mapstructure:"SQLITE_PATH"`
	// DatabaseURL is the Postgres DSN used when StorageDriver is postgres and by cmd/migrate.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// AccessCodePrefix is the upper-case prefix of generated access codes (PREFIX-NNNN).
	AccessCodePrefix string `mapstructure:"ACCESS_CODE_PREFIX"`
	// DefaultBranch is assigned at registration when the caller does not name one.
	DefaultBranch string `mapstructure:"DEFAULT_BRANCH"`
	// ChildrenDepartment is the department members leave when they reach TransitionAge.
	ChildrenDepartment string `mapstructure:"CHILDREN_DEPARTMENT"`
	// YouthDepartment is the department members are moved into.
	YouthDepartment string `mapstructure:"YOUTH_DEPARTMENT"`
	// TransitionAge is the age in whole years that triggers the automatic transition.
	TransitionAge int `mapstructure:"TRANSITION_AGE"`
	// SweepDebounce is how long the sweeper waits after the last mutation (e.g. "1s").
	SweepDebounce string `mapstructure:"SWEEP_DEBOUNCE"`
	// SweepInterval is the period of the background sweep (e.g. "1h"); "0" disables it.
	SweepInterval string `mapstructure:"SWEEP_INTERVAL"`
	// NotificationLimit caps the persisted notification feed.
	NotificationLimit int `mapstructure:"NOTIFICATION_LIMIT"`
	// AuditLimit caps the persisted audit log.
	AuditLimit int `mapstructure:"AUDIT_LIMIT"`

	// PolicyEngine selects the feature gate: static or opa.
	PolicyEngine string `mapstructure:"POLICY_ENGINE"`
	// PolicyRegoPath optionally points to a Rego file replacing the built-in feature gate policy.
	PolicyRegoPath string `mapstructure:"POLICY_REGO_PATH"`

	// CredentialScheme selects how access codes are stored: plain (as issued) or bcrypt.
	CredentialScheme string `mapstructure:"CREDENTIAL_SCHEME"`
	// BcryptCost is the bcrypt cost factor (4-31); default 12. Used when CredentialScheme is bcrypt.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// SessionPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file used to sign the persisted session.
	// When empty an ephemeral key is generated and sessions do not survive a restart.
	SessionPrivateKey string `mapstructure:"SESSION_PRIVATE_KEY"`
	// SessionPublicKey is the PEM-encoded public key or path to file; used with SESSION_PRIVATE_KEY.
	SessionPublicKey string `mapstructure:"SESSION_PUBLIC_KEY"`
	// SessionIssuer is the iss claim of the session token.
	SessionIssuer string `mapstructure:"SESSION_ISSUER"`
	// SessionTTL is the session lifetime (e.g. "720h").
	SessionTTL string `mapstructure:"SESSION_TTL"`

	// KafkaBrokers is a comma-separated list of Kafka brokers for member domain events; empty disables publishing.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// MemberEventsTopic is the Kafka topic for member domain events.
	MemberEventsTopic string `mapstructure:"MEMBER_EVENTS_TOPIC"`

	// OTLPEndpoint is the OpenTelemetry collector endpoint; empty keeps no-op providers.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces a plaintext OTLP connection.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// BootstrapAdminName and BootstrapAdminCode seed a super admin at startup when both are set.
	BootstrapAdminName string `mapstructure:"BOOTSTRAP_ADMIN_NAME"`
	BootstrapAdminCode string `mapstructure:"BOOTSTRAP_ADMIN_CODE"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GRPC_ADDR", ":8080")
	v.SetDefault("METRICS_ADDR", ":9090")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORAGE_DRIVER", StorageSQLite)
	v.SetDefault("SQLITE_PATH", "data/iesa.db")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("ACCESS_CODE_PREFIX", "IESA")
	v.SetDefault("DEFAULT_BRANCH", "Centro")
	v.SetDefault("CHILDREN_DEPARTMENT", "DCIESA")
	v.SetDefault("YOUTH_DEPARTMENT", "JIESA")
	v.SetDefault("TRANSITION_AGE", 18)
	v.SetDefault("SWEEP_DEBOUNCE", "1s")
	v.SetDefault("SWEEP_INTERVAL", "1h")
	v.SetDefault("NOTIFICATION_LIMIT", 50)
	v.SetDefault("AUDIT_LIMIT", 500)
	v.SetDefault("POLICY_ENGINE", PolicyEngineStatic)
	v.SetDefault("POLICY_REGO_PATH", "")
	v.SetDefault("CREDENTIAL_SCHEME", CredentialPlain)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("SESSION_PRIVATE_KEY", "")
	v.SetDefault("SESSION_PUBLIC_KEY", "")
	v.SetDefault("SESSION_ISSUER", "iesa-console")
	v.SetDefault("SESSION_TTL", "720h")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("MEMBER_EVENTS_TOPIC", "iesa-member-events")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("BOOTSTRAP_ADMIN_NAME", "")
	v.SetDefault("BOOTSTRAP_ADMIN_CODE", "")
}

func (c *Config) validate() error {
	if c.GRPCAddr == "" {
		return errors.New("config: GRPC_ADDR must be set")
	}
	switch c.StorageDriver {
	case StorageMemory, StorageSQLite:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL must be set when STORAGE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if !accessCodePrefixRe.MatchString(c.AccessCodePrefix) {
		return errors.New("config: ACCESS_CODE_PREFIX must be upper-case letters only")
	}
	if strings.TrimSpace(c.ChildrenDepartment) == "" || strings.TrimSpace(c.YouthDepartment) == "" {
		return errors.New("config: CHILDREN_DEPARTMENT and YOUTH_DEPARTMENT must be set")
	}
	if c.ChildrenDepartment == c.YouthDepartment {
		return errors.New("config: CHILDREN_DEPARTMENT and YOUTH_DEPARTMENT must differ")
	}
	if c.TransitionAge <= 0 {
		return errors.New("config: TRANSITION_AGE must be positive")
	}
	if c.NotificationLimit <= 0 {
		c.NotificationLimit = 50
	}
	if c.AuditLimit <= 0 {
		c.AuditLimit = 500
	}
	switch c.PolicyEngine {
	case PolicyEngineStatic, PolicyEngineOPA:
	default:
		return fmt.Errorf("config: unknown POLICY_ENGINE %q", c.PolicyEngine)
	}
	switch c.CredentialScheme {
	case CredentialPlain:
	case CredentialBcrypt:
		if c.BcryptCost == 0 {
			c.BcryptCost = 12
		}
		if c.BcryptCost < 4 || c.BcryptCost > 31 {
			return errors.New("config: BCRYPT_COST must be between 4 and 31")
		}
	default:
		return fmt.Errorf("config: unknown CREDENTIAL_SCHEME %q", c.CredentialScheme)
	}
	if (c.SessionPrivateKey == "") != (c.SessionPublicKey == "") {
		return errors.New("config: SESSION_PRIVATE_KEY and SESSION_PUBLIC_KEY must be set together")
	}
	if (c.BootstrapAdminName == "") != (c.BootstrapAdminCode == "") {
		return errors.New("config: BOOTSTRAP_ADMIN_NAME and BOOTSTRAP_ADMIN_CODE must be set together")
	}
	return nil
}

// Debounce parses SweepDebounce. Returns 1s if unset or invalid.
func (c *Config) Debounce() time.Duration {
	d, err := time.ParseDuration(c.SweepDebounce)
	if err != nil || d < 0 {
		return time.Second
	}
	return d
}

// Interval parses SweepInterval. Returns 0 (disabled) for "0" and 1h if invalid.
func (c *Config) Interval() time.Duration {
	d, err := time.ParseDuration(c.SweepInterval)
	if err != nil || d < 0 {
		return time.Hour
	}
	return d
}

// SessionLifetime parses SessionTTL. Returns 720h if unset or invalid.
func (c *Config) SessionLifetime() time.Duration {
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil || d <= 0 {
		return 720 * time.Hour
	}
	return d
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if member event publishing is enabled (non-empty list) and to create the producer.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
