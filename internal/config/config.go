package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"

	// ExportFailurePolicySkip ends the run successfully when the platform reports a failed build.
	ExportFailurePolicySkip = "skip"
	// ExportFailurePolicyFail turns a platform-reported build failure into a fatal error.
	ExportFailurePolicyFail = "fail"
)

type Config struct {
	Environment string

	WorkDir     string
	ArchiveName string
	ExtractDir  string
	TreeRoot    string
	HTTPTimeout time.Duration

	CrowdinBaseURL      string
	CrowdinAPIToken     string
	ExportFailurePolicy string

	GitHubAPIURL   string
	GitHubToken    string
	RawBaseURL     string
	SourceOwner    string
	SourceRepo     string
	SourceRef      string
	SourcePath     string
	SourceLanguage string

	MirrorConcurrency int
	WriteConcurrency  int

	StoreDriver  string
	DatabaseURL  string
	MongoURI     string
	DatabaseName string
	Collection   string
	AppName      string

	RedisURL string
	LockTTL  time.Duration

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	ResendAPIKey string
	FromEmail    string
	NotifyEmail  string
}

func Load() *Config {
	extractDir := getEnv("EXTRACT_DIR", "translations")

	return &Config{
		Environment: getEnv("ENVIRONMENT", "production"),

		WorkDir:     getEnv("WORK_DIR", "."),
		ArchiveName: getEnv("ARCHIVE_NAME", "translations.zip"),
		ExtractDir:  extractDir,
		TreeRoot:    getEnv("TREE_ROOT", extractDir+"/master"),
		HTTPTimeout: getDurationEnv("HTTP_TIMEOUT", 2*time.Minute),

		CrowdinBaseURL:      getEnv("CROWDIN_BASE_URL", "https://api.crowdin.com/api/project/premid/"),
		CrowdinAPIToken:     getEnv("CROWDIN_API_TOKEN", ""),
		ExportFailurePolicy: strings.ToLower(getEnv("EXPORT_FAILURE_POLICY", ExportFailurePolicySkip)),

		GitHubAPIURL:   getEnv("GITHUB_API_URL", ""),
		GitHubToken:    getEnv("GITHUB_TOKEN", ""),
		RawBaseURL:     getEnv("RAW_BASE_URL", "https://raw.githubusercontent.com"),
		SourceOwner:    getEnv("SOURCE_OWNER", "PreMiD"),
		SourceRepo:     getEnv("SOURCE_REPO", "Strings"),
		SourceRef:      getEnv("SOURCE_REF", "master"),
		SourcePath:     getEnv("SOURCE_PATH", "src"),
		SourceLanguage: getEnv("SOURCE_LANGUAGE", "en"),

		MirrorConcurrency: getIntEnv("MIRROR_CONCURRENCY", 0),
		WriteConcurrency:  getIntEnv("WRITE_CONCURRENCY", 0),

		StoreDriver:  strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		MongoURI:     getEnv("MONGO_URI", mongoURIFromParts()),
		DatabaseName: getEnv("DATABASE_NAME", "PreMiD"),
		Collection:   getEnv("COLLECTION", "langFiles"),
		AppName:      getEnv("APP_NAME", "translation-sync"),

		RedisURL: getEnv("REDIS_URL", ""),
		LockTTL:  getDurationEnv("LOCK_TTL", 30*time.Minute),

		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinIOBucket:    getEnv("MINIO_BUCKET", "translation-archives"),
		MinIOUseSSL:    getBoolEnv("MINIO_USE_SSL", false),

		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		FromEmail:    getEnv("FROM_EMAIL", "noreply@example.com"),
		NotifyEmail:  getEnv("NOTIFY_EMAIL", ""),
	}
}

// Validate reports the first setting that would make a run impossible.
func (c *Config) Validate() error {
	if c.CrowdinAPIToken == "" {
		return fmt.Errorf("config: CROWDIN_API_TOKEN is not set")
	}
	switch c.ExportFailurePolicy {
	case ExportFailurePolicySkip, ExportFailurePolicyFail:
	default:
		return fmt.Errorf("config: invalid EXPORT_FAILURE_POLICY %q (must be one of: %s, %s)",
			c.ExportFailurePolicy, ExportFailurePolicySkip, ExportFailurePolicyFail)
	}
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMongo:
	default:
		return fmt.Errorf("config: invalid STORE_DRIVER %q (must be one of: %s, %s)",
			c.StoreDriver, StoreDriverPostgres, StoreDriverMongo)
	}
	if c.SourceLanguage == "" {
		return fmt.Errorf("config: SOURCE_LANGUAGE must not be empty")
	}
	if c.MirrorConcurrency < 0 || c.WriteConcurrency < 0 {
		return fmt.Errorf("config: concurrency limits must not be negative")
	}
	return nil
}

// ValidateStore checks the connection settings of the selected store. Dry runs
// never connect, so they skip it.
func (c *Config) ValidateStore() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for store driver %q", c.StoreDriver)
		}
	case StoreDriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("config: MONGO_URI (or MONGOUSER/MONGOPASS/MONGOIP) is required for store driver %q", c.StoreDriver)
		}
	}
	return nil
}

// mongoURIFromParts keeps the MONGOUSER/MONGOPASS/MONGOIP variables working for
// deployments that predate MONGO_URI.
func mongoURIFromParts() string {
	host := os.Getenv("MONGOIP")
	if host == "" {
		return ""
	}
	user, pass := os.Getenv("MONGOUSER"), os.Getenv("MONGOPASS")
	if user == "" {
		return fmt.Sprintf("mongodb://%s:27017", host)
	}
	return fmt.Sprintf("mongodb://%s:%s@%s:27017", user, pass, host)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
