package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "SITE_"

// applyEnv loads .env (when present) and overlays SITE_* variables.
func applyEnv(cfg *AppConfig) error {
	_ = godotenv.Load()

	strs := map[string]*string{
		"ENV":                  &cfg.Env,
		"DATABASE_DSN":         &cfg.Database.DSN,
		"DATABASE_HOST":        &cfg.Database.Host,
		"DATABASE_USER":        &cfg.Database.User,
		"DATABASE_PASSWORD":    &cfg.Database.Password,
		"DATABASE_NAME":        &cfg.Database.Name,
		"REDIS_URL":            &cfg.Redis.URL,
		"JWT_SECRET":           &cfg.JWTSecret,
		"SITE_TITLE":           &cfg.Site.Title,
		"BASE_URL":             &cfg.Site.BaseURL,
		"ASSETS_PUBLIC_URL":    &cfg.Assets.PublicBaseURL,
		"S3_BUCKET":            &cfg.Assets.S3.Bucket,
		"S3_REGION":            &cfg.Assets.S3.Region,
		"S3_ENDPOINT":          &cfg.Assets.S3.Endpoint,
		"S3_ACCESS_KEY_ID":     &cfg.Assets.S3.AccessKeyID,
		"S3_SECRET_ACCESS_KEY": &cfg.Assets.S3.SecretAccessKey,
		"LOG_LEVEL":            &cfg.Log.Level,
		"LOG_DIR":              &cfg.Log.Dir,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PORT":          &cfg.Port,
		"DATABASE_PORT": &cfg.Database.Port,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
	}

	if v, ok := lookup("CACHE_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sCACHE_TTL: %w", EnvPrefix, err)
		}
		cfg.Cache.TTL = d
	}
	if v, ok := lookup("CACHE_DISABLE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sCACHE_DISABLE: %w", EnvPrefix, err)
		}
		cfg.Cache.Disable = b
	}
	if v, ok := lookup("ALLOWED_ORIGINS"); ok {
		cfg.AllowedOrigins = strings.Split(v, ",")
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
