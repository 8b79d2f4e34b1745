package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort       = 3000
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "site_content"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultRedisPort  = 6379
	defaultSiteTitle  = "Sanity + Next.js Template"
	defaultCacheTTL   = 30 * time.Second
	defaultPresignTTL = 15 * time.Minute
	defaultLogLevel   = "info"
)

// AppConfig holds runtime configuration loaded from YAML and the environment.
type AppConfig struct {
	Port           int            `yaml:"port"`
	Env            string         `yaml:"env"` // "development" | "production"
	DSN            string         `yaml:"-"`
	RedisURL       string         `yaml:"-"`
	Database       DatabaseConfig `yaml:"database"`
	Redis          RedisConfig    `yaml:"redis"`
	JWTSecret      string         `yaml:"jwt_secret"`
	Site           SiteConfig     `yaml:"site"`
	Assets         AssetsConfig   `yaml:"assets"`
	Cache          CacheConfig    `yaml:"cache"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
	Log            LogConfig      `yaml:"log"`
}

type DatabaseConfig struct {
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime bool              `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
	Migrate   bool              `yaml:"migrate"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

type SiteConfig struct {
	Title   string `yaml:"title"`
	BaseURL string `yaml:"base_url"`
}

type AssetsConfig struct {
	PublicBaseURL string   `yaml:"public_base_url"`
	S3            S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket          string        `yaml:"bucket"`
	Region          string        `yaml:"region"`
	Endpoint        string        `yaml:"endpoint"`
	AccessKeyID     string        `yaml:"access_key_id"`
	SecretAccessKey string        `yaml:"secret_access_key"`
	PathStyle       bool          `yaml:"path_style"`
	PresignTTL      time.Duration `yaml:"presign_ttl"`
}

// Enabled reports whether enough S3 settings are present to build a client.
func (c S3Config) Enabled() bool {
	return strings.TrimSpace(c.Bucket) != "" && strings.TrimSpace(c.Region) != ""
}

type CacheConfig struct {
	TTL     time.Duration `yaml:"ttl"`
	Disable bool          `yaml:"disable"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "development") ||
		strings.EqualFold(strings.TrimSpace(c.Env), "dev")
}

// Load reads the YAML config at configPath (a missing file is allowed),
// then applies .env and SITE_* environment overrides.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := defaultAppConfig()
	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decodeYAML(content, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	case os.IsNotExist(err) && configPath == "":
	case os.IsNotExist(err) && path == DefaultConfigPath:
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	normalize(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return &cfg, nil
}

// Parse decodes a YAML document onto the defaults without touching the
// environment.
func Parse(content []byte) (*AppConfig, error) {
	cfg := defaultAppConfig()
	if err := decodeYAML(content, &cfg); err != nil {
		return nil, err
	}
	normalize(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeYAML(content []byte, cfg *AppConfig) error {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil
	}
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	return decoder.Decode(cfg)
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseConfig{
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
			Migrate:   true,
		},
		Site: SiteConfig{
			Title: defaultSiteTitle,
		},
		Cache: CacheConfig{
			TTL: defaultCacheTTL,
		},
		Log: LogConfig{
			Level: defaultLogLevel,
		},
	}
}

func normalize(cfg *AppConfig) {
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	cfg.Site.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Site.BaseURL), "/")
	if strings.TrimSpace(cfg.Site.Title) == "" {
		cfg.Site.Title = defaultSiteTitle
	}
	cfg.Assets.PublicBaseURL = strings.TrimRight(strings.TrimSpace(cfg.Assets.PublicBaseURL), "/")
	if cfg.Assets.S3.PresignTTL <= 0 {
		cfg.Assets.S3.PresignTTL = defaultPresignTTL
	}
	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = defaultCacheTTL
	}
	origins := make([]string, 0, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if v := strings.TrimSpace(o); v != "" {
			origins = append(origins, v)
		}
	}
	cfg.AllowedOrigins = origins

	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
}

func (c *AppConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	if c.Database.DSN == "" && (c.Database.Port < 1 || c.Database.Port > 65535) {
		return fmt.Errorf("invalid database.port %d, expected 1-65535", c.Database.Port)
	}
	if _, err := mysql.ParseDSN(c.DSN); err != nil {
		return fmt.Errorf("invalid database dsn: %w", err)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d, expected >= 0", c.Redis.DB)
	}
	if !c.IsDev() && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("jwt_secret is required outside development")
	}
	return nil
}
