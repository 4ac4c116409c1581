package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName  string
	AppEnv   string
	AppPort  string
	LogLevel string

	DatabaseURL string
	Database    DatabaseConfig
	RedisURL    string
	NATSURL     string
	ChannelBase string
	JWTSecret   string

	CORSAllowOrigins string

	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	NotebookMaxSizeMB      int

	StatsCacheTTL time.Duration
	FeedKeepAlive time.Duration
	RubricFile    string
	PassThreshold int
	GraderNames   map[string]string

	Certificate           CertificateConfig
	CertificateDateLayout string
}

// DatabaseConfig tunes the postgres pool and the startup connection checks for postgres and redis.
type DatabaseConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

// CertificateConfig carries the fixed certificate wording and asset locations.
type CertificateConfig struct {
	LogoURL        string
	SignatureURL   string
	Title          string
	CourseLine1    string
	CourseLine2    string
	SignatoryName  string
	SignatoryTitle string
	AssetTimeout   time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("NOTEBOOK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Notebook Grading API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.connect_timeout", "5s")
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("channel.base", "notebook")
	v.SetDefault("cloudinary.folder", "notebook/submissions")
	v.SetDefault("notebook.max_size_mb", 10)
	v.SetDefault("stats.cache_ttl", "1m")
	v.SetDefault("feed.keepalive", "30s")
	v.SetDefault("grading.pass_threshold", 50)
	v.SetDefault("certificate.asset_timeout", "15s")
	v.SetDefault("certificate.date_layout", "1/2/2006")

	statsTTL, err := parseDuration(v, "stats.cache_ttl")
	if err != nil {
		return Config{}, err
	}
	keepAlive, err := parseDuration(v, "feed.keepalive")
	if err != nil {
		return Config{}, err
	}
	assetTimeout, err := parseDuration(v, "certificate.asset_timeout")
	if err != nil {
		return Config{}, err
	}

	connMaxLifetime, err := parseDuration(v, "database.conn_max_lifetime")
	if err != nil {
		return Config{}, err
	}
	connectTimeout, err := parseDuration(v, "database.connect_timeout")
	if err != nil {
		return Config{}, err
	}

	graders, err := ParseGraderNames(v.GetString("grading.grader_names"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		LogLevel:               strings.ToLower(v.GetString("log.level")),
		DatabaseURL:            v.GetString("database.url"),
		Database: DatabaseConfig{
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: connMaxLifetime,
			ConnectTimeout:  connectTimeout,
		},
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		ChannelBase:            v.GetString("channel.base"),
		JWTSecret:              v.GetString("jwt.secret"),
		CORSAllowOrigins:       v.GetString("cors.allow_origins"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		NotebookMaxSizeMB:      v.GetInt("notebook.max_size_mb"),
		StatsCacheTTL:          statsTTL,
		FeedKeepAlive:          keepAlive,
		RubricFile:             v.GetString("grading.rubric_file"),
		PassThreshold:          v.GetInt("grading.pass_threshold"),
		GraderNames:            graders,
		CertificateDateLayout:  v.GetString("certificate.date_layout"),
		Certificate: CertificateConfig{
			LogoURL:        v.GetString("certificate.logo_url"),
			SignatureURL:   v.GetString("certificate.signature_url"),
			Title:          v.GetString("certificate.title"),
			CourseLine1:    v.GetString("certificate.course_line1"),
			CourseLine2:    v.GetString("certificate.course_line2"),
			SignatoryName:  v.GetString("certificate.signatory_name"),
			SignatoryTitle: v.GetString("certificate.signatory_title"),
			AssetTimeout:   assetTimeout,
		},
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.PassThreshold <= 0 || cfg.PassThreshold > 100 {
		return Config{}, fmt.Errorf("pass threshold must be between 1 and 100, got %d", cfg.PassThreshold)
	}

	if cfg.NotebookMaxSizeMB <= 0 {
		cfg.NotebookMaxSizeMB = 10
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// ParseGraderNames reads a comma separated list of id=Display Name pairs.
func ParseGraderNames(raw string) (map[string]string, error) {
	names := make(map[string]string)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		id, name, ok := strings.Cut(entry, "=")
		id = strings.TrimSpace(id)
		name = strings.TrimSpace(name)
		if !ok || id == "" || name == "" {
			return nil, fmt.Errorf("invalid grader name entry %q, expected id=Name", entry)
		}
		names[id] = name
	}
	return names, nil
}
