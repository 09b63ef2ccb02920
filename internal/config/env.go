package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
    Level        string
    Pretty       bool
    File         string
    MaxSizeMB    int
    MaxBackups   int
    MaxAgeDays   int
    Compress     bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
    Send          bool
    APIKey        string
    OrgID         string
    Dataset       string
    Level         string
    FlushInterval time.Duration
}

// ServerConfig defines the HTTP service.
type ServerConfig struct {
    Port            string
    MaxConcurrent   int
    RequestTimeout  time.Duration
    MaxUploadMB     int64
    ShutdownTimeout time.Duration
}

// CacheConfig defines the optional Redis result cache.
type CacheConfig struct {
    Enabled  bool
    RedisURL string
    TTL      time.Duration
}

// SourceConfig defines how remote documents are fetched.
type SourceConfig struct {
    HTTPTimeout        time.Duration
    MaxDocumentMB      int64
    S3Region           string
    S3Bucket           string
    AWSAccessKeyID     string
    AWSSecretAccessKey string
}

// Config is the top-level configuration.
type Config struct {
    Logging LoggingConfig
    Axiom   AxiomConfig
    Server  ServerConfig
    Cache   CacheConfig
    Source  SourceConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
    cfg := Config{}

    // Logging defaults
    cfg.Logging = LoggingConfig{
        Level:      getEnv("LOG_LEVEL", "info"),
        Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
        File:       getEnv("LOG_FILE", "logs/guidereader.log"),
        MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
        MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
        MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
        Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
    }

    // Axiom defaults
    baseDataset := getEnv("AXIOM_DATASET", "dev")
    cfg.Axiom = AxiomConfig{
        Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
        APIKey:        getEnv("AXIOM_API_KEY", ""),
        OrgID:         getEnv("AXIOM_ORG_ID", ""),
        Dataset:       baseDataset + "_guidereader",
        Level:         getEnv("AXIOM_LEVEL", "info"),
        FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
    }

    cfg.Server = ServerConfig{
        Port:            getEnv("PORT", "8080"),
        MaxConcurrent:   parseInt(getEnv("MAX_CONCURRENT_EXTRACTIONS", "4"), 4),
        RequestTimeout:  parseDuration(getEnv("REQUEST_TIMEOUT", "120s"), 120*time.Second),
        MaxUploadMB:     int64(parseInt(getEnv("MAX_UPLOAD_MB", "64"), 64)),
        ShutdownTimeout: parseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
    }

    cfg.Cache = CacheConfig{
        Enabled:  parseBool(getEnv("CACHE_ENABLED", "false")),
        RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),
        TTL:      parseDuration(getEnv("CACHE_TTL", "24h"), 24*time.Hour),
    }

    cfg.Source = SourceConfig{
        HTTPTimeout:        parseDuration(getEnv("DOWNLOAD_TIMEOUT", "60s"), 60*time.Second),
        MaxDocumentMB:      int64(parseInt(getEnv("MAX_DOCUMENT_MB", "200"), 200)),
        S3Region:           getEnv("AWS_REGION", ""),
        S3Bucket:           getEnv("AWS_S3_BUCKET", ""),
        AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
        AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
    }

    return cfg
}

// Helpers
func getEnv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func parseInt(s string, def int) int {
    if s == "" { return def }
    if n, err := strconv.Atoi(s); err == nil { return n }
    return def
}

func parseBool(s string) bool {
    v := strings.ToLower(strings.TrimSpace(s))
    return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
    if s == "" { return def }
    if d, err := time.ParseDuration(s); err == nil { return d }
    return def
}

func devDefaultPretty() string {
    env := strings.ToLower(os.Getenv("ENVIRONMENT"))
    if env == "dev" || env == "development" || env == "local" { return "true" }
    return "false"
}
