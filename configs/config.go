package configs

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort       int
	APIPrefix     string
	DBHost        string
	DBPort        int
	DBUser        string
	DBPassword    string
	DBName        string
	RedisHost     string
	RedisPort     int
	RedisPassword string
	TokenSecret   string
	TokenStore    string
	BadgerDir     string
	LogDir        string
}

const (
	TokenStoreRedis  = "redis"
	TokenStoreBadger = "badger"
)

// LoadConfig membaca file env (jika ada) lalu environment variable.
// envFile kosong berarti ".env".
func LoadConfig(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	// File .env opsional, variabel environment tetap dipakai
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	dbPort, err := intEnv("DB_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	redisPort, err := intEnv("REDIS_PORT", 6379)
	if err != nil {
		return Config{}, err
	}
	appPort, err := intEnv("APP_PORT", 3004)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppPort:       appPort,
		APIPrefix:     stringEnv("API_PREFIX", "/api"),
		DBHost:        stringEnv("DB_HOST", "localhost"),
		DBPort:        dbPort,
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBName:        os.Getenv("DB_NAME"),
		RedisHost:     stringEnv("REDIS_HOST", "localhost"),
		RedisPort:     redisPort,
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		TokenSecret:   os.Getenv("TOKEN_SECRET"),
		TokenStore:    stringEnv("TOKEN_STORE", TokenStoreRedis),
		BadgerDir:     stringEnv("BADGER_DIR", "data/tokens"),
		LogDir:        stringEnv("LOG_DIR", "logs"),
	}
	if cfg.TokenStore != TokenStoreRedis && cfg.TokenStore != TokenStoreBadger {
		return Config{}, fmt.Errorf("TOKEN_STORE must be %q or %q, got %q", TokenStoreRedis, TokenStoreBadger, cfg.TokenStore)
	}
	return cfg, nil
}

// PostgresDSN returns the lib/pq connection string.
func (c Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

func stringEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return n, nil
}
