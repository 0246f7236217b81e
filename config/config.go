package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	DefaultPort                  = "8080"
	DefaultTokenIssuer           = "insightboard-auth"
	DefaultTokenAudience         = "insightboard"
	DefaultAccessTokenExpiryMin  = 15
	DefaultRefreshTokenExpiryMin = 10080 // 7 days
	DefaultLoginMaxAttempts      = 5
	DefaultLoginIPMaxAttempts    = 10
	DefaultLoginWindowMinutes    = 15
	DefaultLockoutMinutes        = 30
)

type Config struct {
	Env                string
	Port               string
	DBURL              string
	TokenPrivateKey    string // base64-encoded ed25519 seed
	TokenIssuer        string
	TokenAudience      string
	RefreshHashKey     string
	AccessExpiryMin    int
	RefreshExpiryMin   int
	LoginMaxAttempts   int
	LoginIPMaxAttempts int
	LoginWindowMinutes int
	LockoutMinutes     int
}

// Load reads config/.env.dev or config/.env.prod depending on ENV, with
// real environment variables taking precedence over file values.
func Load() *Config {
	env := getEnv("ENV", "development")

	envFile := "config/.env.dev"
	if env == "production" {
		envFile = "config/.env.prod"
	}
	// Missing files are fine; everything can come from the environment.
	_ = godotenv.Load(envFile)

	return &Config{
		Env:                env,
		Port:               getEnv("PORT", DefaultPort),
		DBURL:              mustGetEnv("DB_URL"),
		TokenPrivateKey:    mustGetEnv("TOKEN_PRIVATE_KEY"),
		TokenIssuer:        getEnv("TOKEN_ISSUER", DefaultTokenIssuer),
		TokenAudience:      getEnv("TOKEN_AUDIENCE", DefaultTokenAudience),
		RefreshHashKey:     mustGetEnv("REFRESH_HASH_KEY"),
		AccessExpiryMin:    getEnvAsInt("ACCESS_TOKEN_EXPIRY", DefaultAccessTokenExpiryMin),
		RefreshExpiryMin:   getEnvAsInt("REFRESH_TOKEN_EXPIRY", DefaultRefreshTokenExpiryMin),
		LoginMaxAttempts:   getEnvAsInt("LOGIN_MAX_ATTEMPTS", DefaultLoginMaxAttempts),
		LoginIPMaxAttempts: getEnvAsInt("LOGIN_IP_MAX_ATTEMPTS", DefaultLoginIPMaxAttempts),
		LoginWindowMinutes: getEnvAsInt("LOGIN_WINDOW_MINUTES", DefaultLoginWindowMinutes),
		LockoutMinutes:     getEnvAsInt("LOCKOUT_MINUTES", DefaultLockoutMinutes),
	}
}

func getEnv(key string, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func mustGetEnv(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	log.Fatalf("Missing required config: %s", key)
	return ""
}

func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %d", key, defaultVal)
		return defaultVal
	}
	return val
}
