package config

import "os"

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
}

type Config struct {
	PostgresURI      string
	RedisURI         string
	FrontendURL      string
	LinkedinAPIBase  string
	FacebookAPIBase  string
	TwitterAPIBase   string
	InstagramAPIBase string
	R2               R2
	SecretKey        string
	CookieName       string
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI:      getEnv("POSTGRES_URI", ""),
		RedisURI:         getEnv("REDIS_URI", ""),
		FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:5173"),
		LinkedinAPIBase:  getEnv("LINKEDIN_API_BASE", "https://api.linkedin.com"),
		FacebookAPIBase:  getEnv("FACEBOOK_API_BASE", "https://graph.facebook.com/v21.0"),
		TwitterAPIBase:   getEnv("TWITTER_API_BASE", "https://api.twitter.com"),
		InstagramAPIBase: getEnv("INSTAGRAM_API_BASE", "https://graph.instagram.com/v21.0"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
		},
		SecretKey:  getEnv("SECRET_KEY", ""),
		CookieName: getEnv("COOKIE_NAME", "postdeck_session"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
