package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultSecretKey = "changethis"

type Config struct {
	Env      string
	HTTPPort string

	ProjectName  string
	APIV1Prefix  string
	ServerHost   string
	FrontendHost string

	CORSAllowedOrigins []string

	DatabaseDriver string
	DatabaseURL    string
	MySQLHost      string
	MySQLPort      int
	MySQLUser      string
	MySQLPassword  string
	MySQLDB        string

	SecretKey                 string
	AccessTokenTTL            time.Duration
	ActivationWindowHours     int
	PasswordResetWindowHours  int
	PasswordRecoveryMaxTries  int
	Argon2Time                uint32
	Argon2MemoryKiB           uint32
	Argon2Threads             uint8
	FirstUserEmail            string
	FirstUserUsername         string
	FirstUserPassword         string

	EmailsEnabled    bool
	SMTPHost         string
	SMTPPort         int
	SMTPUser         string
	SMTPPassword     string
	SMTPTLS          bool
	EmailsFromEmail  string
	EmailsFromName   string
	EmailSendTimeout time.Duration

	StravaClientID     string
	StravaClientSecret string
	StravaTokenURL     string
	StravaHTTPTimeout  time.Duration

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	UserListCacheTTL time.Duration

	AuthAbuseProtectionEnabled bool
	AuthAbuseFreeAttempts      int
	AuthAbuseBaseDelay         time.Duration
	AuthAbuseMultiplier        float64
	AuthAbuseMaxDelay          time.Duration
	AuthAbuseResetWindow       time.Duration

	StorageEnabled bool
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsExportInterval time.Duration
	OTELTraceSamplingRatio    float64
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELLogLevel              string

	ReadinessProbeTimeout        time.Duration
	ServerStartGracePeriod       time.Duration
	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration
}

// Load reads the process environment, after merging the optional env file
// named by APP_ENV_FILE. Variables already set in the environment win.
func Load() (*Config, error) {
	if err := loadEnvFile(getEnv("APP_ENV_FILE", ".env")); err != nil {
		return nil, err
	}
	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		Env:                env,
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		ProjectName:        getEnv("PROJECT_NAME", "Cycliti"),
		APIV1Prefix:        getEnv("API_V1_STR", "/api/v1"),
		ServerHost:         withTrailingSlash(getEnv("SERVER_HOST", "http://localhost:5173/")),
		FrontendHost:       getEnv("FRONTEND_HOST", "http://localhost:5173/"),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost,http://localhost:8080,http://localhost:5173")),

		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", "postgres")),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MySQLHost:      getEnv("MYSQL_HOST", "localhost"),
		MySQLPort:      getEnvInt("MYSQL_PORT", 3306),
		MySQLUser:      os.Getenv("MYSQL_USER"),
		MySQLPassword:  os.Getenv("MYSQL_PASSWORD"),
		MySQLDB:        os.Getenv("MYSQL_DB"),

		SecretKey:                os.Getenv("SECRET_KEY"),
		AccessTokenTTL:           time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60*24*8)) * time.Minute,
		ActivationWindowHours:    getEnvInt("EMAIL_ACTIVATION_TOKEN_EXPIRE_HOURS", 1),
		PasswordResetWindowHours: getEnvInt("EMAIL_RESET_TOKEN_EXPIRE_HOURS", 1),
		PasswordRecoveryMaxTries: getEnvInt("PASSWORD_RECOVERY_MAX_ATTEMPTS", 3),
		FirstUserEmail:           strings.TrimSpace(strings.ToLower(os.Getenv("FIRST_USER_EMAIL"))),
		FirstUserUsername:        strings.TrimSpace(os.Getenv("FIRST_USER_USERNAME")),
		FirstUserPassword:        os.Getenv("FIRST_USER_PASSWORD"),

		EmailsEnabled:   getEnvBool("EMAILS_ENABLED", false),
		SMTPHost:        getEnv("SMTP_HOST", "localhost"),
		SMTPPort:        getEnvInt("SMTP_PORT", 1025),
		SMTPUser:        os.Getenv("SMTP_USER"),
		SMTPPassword:    os.Getenv("SMTP_PASSWORD"),
		SMTPTLS:         getEnvBool("SMTP_TLS", false),
		EmailsFromEmail: getEnv("EMAILS_FROM_EMAIL", "contact@cycliti.com"),
		EmailsFromName:  getEnv("EMAILS_FROM_NAME", "Cyclity"),

		StravaClientID:     os.Getenv("STRAVA_CLIENT_ID"),
		StravaClientSecret: os.Getenv("STRAVA_CLIENT_SECRET"),
		StravaTokenURL:     getEnv("STRAVA_TOKEN_URL", "https://www.strava.com/oauth/token"),

		RedisEnabled:  getEnvBool("REDIS_ENABLED", false),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisPrefix:   getEnv("REDIS_PREFIX", "cycliti"),

		AuthAbuseProtectionEnabled: getEnvBool("AUTH_ABUSE_PROTECTION_ENABLED", true),
		AuthAbuseFreeAttempts:      getEnvInt("AUTH_ABUSE_FREE_ATTEMPTS", 3),
		AuthAbuseMultiplier:        getEnvFloat("AUTH_ABUSE_MULTIPLIER", 2.0),

		StorageEnabled: getEnvBool("STORAGE_ENABLED", false),
		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucket:    getEnv("MINIO_BUCKET", "cycliti-photos"),
		MinIOUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "cycliti-api"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", env),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELTraceSamplingRatio:   getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", false),
		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", false),
		OTELLogsEnabled:          getEnvBool("OTEL_LOGS_ENABLED", false),
		OTELLogLevel:             strings.ToLower(getEnv("OTEL_LOG_LEVEL", "info")),
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"EMAIL_SEND_TIMEOUT", "15s", &cfg.EmailSendTimeout},
		{"STRAVA_HTTP_TIMEOUT", "10s", &cfg.StravaHTTPTimeout},
		{"USER_LIST_CACHE_TTL", "15s", &cfg.UserListCacheTTL},
		{"AUTH_ABUSE_BASE_DELAY", "2s", &cfg.AuthAbuseBaseDelay},
		{"AUTH_ABUSE_MAX_DELAY", "5m", &cfg.AuthAbuseMaxDelay},
		{"AUTH_ABUSE_RESET_WINDOW", "30m", &cfg.AuthAbuseResetWindow},
		{"OTEL_METRICS_EXPORT_INTERVAL", "10s", &cfg.OTELMetricsExportInterval},
		{"READINESS_PROBE_TIMEOUT", "1s", &cfg.ReadinessProbeTimeout},
		{"SERVER_START_GRACE_PERIOD", "0s", &cfg.ServerStartGracePeriod},
		{"SHUTDOWN_TIMEOUT", "20s", &cfg.ShutdownTimeout},
		{"SHUTDOWN_HTTP_DRAIN_TIMEOUT", "10s", &cfg.ShutdownHTTPDrainTimeout},
		{"SHUTDOWN_OBSERVABILITY_TIMEOUT", "8s", &cfg.ShutdownObservabilityTimeout},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getEnv(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	argon2Time, err := getEnvUint("ARGON2_TIME", 1, 32)
	if err != nil {
		return nil, err
	}
	argon2Memory, err := getEnvUint("ARGON2_MEMORY_KIB", 47104, 32)
	if err != nil {
		return nil, err
	}
	argon2Threads, err := getEnvUint("ARGON2_THREADS", 1, 8)
	if err != nil {
		return nil, err
	}
	cfg.Argon2Time = uint32(argon2Time)
	cfg.Argon2MemoryKiB = uint32(argon2Memory)
	cfg.Argon2Threads = uint8(argon2Threads)

	if cfg.DatabaseURL == "" && cfg.DatabaseDriver == "mysql" {
		cfg.DatabaseURL = cfg.MySQLDSN()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MySQLDSN builds a go-sql-driver DSN from the MYSQL_* settings.
func (c *Config) MySQLDSN() string {
	if c.MySQLUser == "" || c.MySQLDB == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.MySQLUser, c.MySQLPassword, c.MySQLHost, c.MySQLPort, c.MySQLDB)
}

func (c *Config) Validate() error {
	var errs []string
	switch c.DatabaseDriver {
	case "postgres", "mysql", "sqlite":
	default:
		errs = append(errs, "DATABASE_DRIVER must be one of postgres, mysql, sqlite")
	}
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required (or MYSQL_USER and MYSQL_DB when DATABASE_DRIVER=mysql)")
	}
	if len(c.SecretKey) < 32 {
		errs = append(errs, "SECRET_KEY must be at least 32 chars")
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, "ACCESS_TOKEN_EXPIRE_MINUTES must be > 0")
	}
	if c.ActivationWindowHours <= 0 {
		errs = append(errs, "EMAIL_ACTIVATION_TOKEN_EXPIRE_HOURS must be > 0")
	}
	if c.PasswordResetWindowHours <= 0 {
		errs = append(errs, "EMAIL_RESET_TOKEN_EXPIRE_HOURS must be > 0")
	}
	if c.PasswordRecoveryMaxTries <= 0 {
		errs = append(errs, "PASSWORD_RECOVERY_MAX_ATTEMPTS must be > 0")
	}
	if c.Argon2Time == 0 || c.Argon2MemoryKiB < 8*1024 || c.Argon2Threads == 0 {
		errs = append(errs, "ARGON2_TIME and ARGON2_THREADS must be > 0 and ARGON2_MEMORY_KIB >= 8192")
	}
	if (c.FirstUserEmail != "") != (c.FirstUserPassword != "") {
		errs = append(errs, "FIRST_USER_EMAIL and FIRST_USER_PASSWORD must be set together")
	}
	if c.FirstUserUsername != "" && len(c.FirstUserUsername) > 16 {
		errs = append(errs, "FIRST_USER_USERNAME must be at most 16 chars")
	}
	if _, err := url.ParseRequestURI(c.ServerHost); err != nil {
		errs = append(errs, "SERVER_HOST must be an absolute URL")
	}
	if _, err := url.ParseRequestURI(c.FrontendHost); err != nil {
		errs = append(errs, "FRONTEND_HOST must be an absolute URL")
	}
	if c.EmailsEnabled && (c.SMTPHost == "" || c.SMTPPort <= 0) {
		errs = append(errs, "SMTP_HOST and SMTP_PORT are required when EMAILS_ENABLED=true")
	}
	if c.EmailSendTimeout <= 0 {
		errs = append(errs, "EMAIL_SEND_TIMEOUT must be > 0")
	}
	if c.StravaTokenURL == "" {
		errs = append(errs, "STRAVA_TOKEN_URL is required")
	}
	if c.StravaHTTPTimeout <= 0 {
		errs = append(errs, "STRAVA_HTTP_TIMEOUT must be > 0")
	}
	if c.RedisEnabled && c.RedisAddr == "" {
		errs = append(errs, "REDIS_ADDR is required when REDIS_ENABLED=true")
	}
	if c.AuthAbuseProtectionEnabled {
		if c.AuthAbuseFreeAttempts < 0 {
			errs = append(errs, "AUTH_ABUSE_FREE_ATTEMPTS must be >= 0")
		}
		if c.AuthAbuseBaseDelay <= 0 || c.AuthAbuseMaxDelay < c.AuthAbuseBaseDelay {
			errs = append(errs, "AUTH_ABUSE_BASE_DELAY must be > 0 and <= AUTH_ABUSE_MAX_DELAY")
		}
		if c.AuthAbuseMultiplier < 1 {
			errs = append(errs, "AUTH_ABUSE_MULTIPLIER must be >= 1")
		}
		if c.AuthAbuseResetWindow <= 0 {
			errs = append(errs, "AUTH_ABUSE_RESET_WINDOW must be > 0")
		}
	}
	if c.StorageEnabled && (c.MinIOEndpoint == "" || c.MinIOAccessKey == "" || c.MinIOSecretKey == "" || c.MinIOBucket == "") {
		errs = append(errs, "MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY and MINIO_BUCKET are required when STORAGE_ENABLED=true")
	}
	if (c.OTELMetricsEnabled || c.OTELTracingEnabled || c.OTELLogsEnabled) && c.OTELExporterOTLPEndpoint == "" {
		errs = append(errs, "OTEL_EXPORTER_OTLP_ENDPOINT is required when OTel is enabled")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be between 0 and 1")
	}
	if c.OTELMetricsExportInterval <= 0 {
		errs = append(errs, "OTEL_METRICS_EXPORT_INTERVAL must be > 0")
	}
	if !isValidLogLevel(c.OTELLogLevel) {
		errs = append(errs, "OTEL_LOG_LEVEL must be one of debug, info, warn, error")
	}
	if c.ReadinessProbeTimeout <= 0 {
		errs = append(errs, "READINESS_PROBE_TIMEOUT must be > 0")
	}
	if c.ShutdownTimeout <= 0 || c.ShutdownHTTPDrainTimeout <= 0 || c.ShutdownObservabilityTimeout <= 0 {
		errs = append(errs, "SHUTDOWN_* timeouts must be > 0")
	}
	if c.ShutdownHTTPDrainTimeout > c.ShutdownTimeout {
		errs = append(errs, "SHUTDOWN_HTTP_DRAIN_TIMEOUT must not exceed SHUTDOWN_TIMEOUT")
	}

	if !isLocalLikeEnv(c.Env) {
		if c.DatabaseDriver == "sqlite" {
			errs = append(errs, "DATABASE_DRIVER=sqlite is not allowed outside local profiles")
		}
		if c.SecretKey == defaultSecretKey || strings.HasPrefix(c.SecretKey, defaultSecretKey) {
			errs = append(errs, "SECRET_KEY must be changed outside local profiles")
		}
		if c.StravaClientID == "" || c.StravaClientSecret == "" {
			errs = append(errs, "STRAVA_CLIENT_ID and STRAVA_CLIENT_SECRET are required outside local profiles")
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) IsLocal() bool { return isLocalLikeEnv(c.Env) }

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	// godotenv.Load never overrides variables that are already set.
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func withTrailingSlash(v string) string {
	if strings.HasSuffix(v, "/") {
		return v
	}
	return v + "/"
}

func isLocalLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "development", "dev", "local", "test":
		return true
	default:
		return false
	}
}

func isValidLogLevel(v string) bool {
	switch strings.ToLower(v) {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// getEnvUint rejects negative and out of range values instead of wrapping
// them into the narrower field.
func getEnvUint(key string, def uint64, bitSize int) (uint64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, bitSize)
	if err != nil {
		return 0, fmt.Errorf("parse %s: must be an unsigned %d-bit integer: %w", key, bitSize, err)
	}
	return n, nil
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
