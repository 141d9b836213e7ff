package config

import (
	"os"
)

type Config struct {
	Port               string
	DBConnectionString string
	LogLevel           string

	GitHubWebhookSecret    string
	GitLabWebhookToken     string
	BitbucketWebhookSecret string
}

func Load() (*Config, error) {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		DBConnectionString: getEnv("DB_CONNECTION_STRING", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),

		GitHubWebhookSecret:    getEnv("GITHUB_WEBHOOK_SECRET", ""),
		GitLabWebhookToken:     getEnv("GITLAB_WEBHOOK_TOKEN", ""),
		BitbucketWebhookSecret: getEnv("BITBUCKET_WEBHOOK_SECRET", ""),
	}, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
