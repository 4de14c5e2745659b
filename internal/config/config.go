package config

import (
	"context"
	"log/slog"
	"os"
	"time"

	infisical "github.com/infisical/go-sdk"
	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DatabaseURL    string
	RedisURL       string
	RedisPassword  string
	SnapshotURL    string
	FrontendOrigin string
	PollInterval   time.Duration
	FetchTimeout   time.Duration
	DedupTTL       time.Duration
}

func Load() Config {
	// A missing .env file is fine; env vars win either way.
	_ = godotenv.Load()

	cfg := Config{
		Port:           envOr("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       envOr("REDIS_URL", "redis://localhost:6379/0"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		SnapshotURL:    envOr("SNAPSHOT_URL", ""),
		FrontendOrigin: envOr("FRONTEND_ORIGIN", "*"),
		PollInterval:   envDurationOr("POLL_INTERVAL", time.Minute),
		FetchTimeout:   envDurationOr("FETCH_TIMEOUT", 30*time.Second),
		DedupTTL:       envDurationOr("DEDUP_TTL", 24*time.Hour),
	}

	// If Infisical credentials are available, fetch secrets from Infisical
	clientID := os.Getenv("INFISICAL_CLIENT_ID")
	clientSecret := os.Getenv("INFISICAL_CLIENT_SECRET")
	if clientID != "" && clientSecret != "" {
		loadFromInfisical(&cfg, clientID, clientSecret)
	}

	return cfg
}

func loadFromInfisical(cfg *Config, clientID, clientSecret string) {
	siteURL := envOr("INFISICAL_SITE_URL", "https://app.infisical.com")
	projectID := os.Getenv("INFISICAL_PROJECT_ID")
	envSlug := envOr("INFISICAL_ENV", "prod")

	if projectID == "" {
		slog.Warn("INFISICAL_PROJECT_ID not set, skipping Infisical")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := infisical.NewInfisicalClient(ctx, infisical.Config{
		SiteUrl:          siteURL,
		AutoTokenRefresh: false,
	})

	_, err := client.Auth().UniversalAuthLogin(clientID, clientSecret)
	if err != nil {
		slog.Error("infisical auth failed", "error", err)
		return
	}

	secrets := map[string]*string{
		"DATABASE_URL":   &cfg.DatabaseURL,
		"REDIS_PASSWORD": &cfg.RedisPassword,
	}

	for key, target := range secrets {
		if *target != "" {
			continue // env var already set, skip
		}
		secret, err := client.Secrets().Retrieve(infisical.RetrieveSecretOptions{
			SecretKey:   key,
			Environment: envSlug,
			ProjectID:   projectID,
			SecretPath:  "/",
		})
		if err != nil {
			slog.Warn("failed to retrieve secret from infisical", "key", key, "error", err)
			continue
		}
		*target = secret.SecretValue
		slog.Info("loaded secret from infisical", "key", key)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration, using fallback", "key", key, "value", v, "fallback", fallback)
		return fallback
	}
	return d
}
