package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

var AppEnv Config

type Config struct {
	Environment           string
	Port                  string
	DBDriver              string
	MongoURI              string
	DBName                string
	JWTSecret             string
	AccessTokenTTL        time.Duration
	RefreshTokenTTL       time.Duration
	CookieSecure          bool
	CORSOrigins           []string
	FreeShippingThreshold float64
	ShippingFee           float64
	RelatedProductsLimit  int64
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	if c.DBDriver != DriverMongo && c.DBDriver != DriverMemory {
		return errors.New("DB_DRIVER must be mongo or memory")
	}
	if c.DBDriver == DriverMongo && c.MongoURI == "" {
		return errors.New("MONGO_URI is required for the mongo driver")
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required in production")
	}
	for _, origin := range c.CORSOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return errors.New("CORS_ORIGINS entries must start with http:// or https://")
		}
	}
	if c.FreeShippingThreshold < 0 || c.ShippingFee < 0 {
		return errors.New("shipping settings must not be negative")
	}
	return nil
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		Environment:           getEnvOrDefault("APP_ENV", "development"),
		Port:                  getEnvOrDefault("PORT", "8080"),
		DBDriver:              strings.ToLower(getEnvOrDefault("DB_DRIVER", DriverMongo)),
		MongoURI:              getEnvOrDefault("MONGO_URI", ""),
		DBName:                getEnvOrDefault("DB_NAME", "storefront"),
		JWTSecret:             getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL:        getDurationEnv("ACCESS_TOKEN_TTL", 15, time.Minute),
		RefreshTokenTTL:       getDurationEnv("REFRESH_TOKEN_TTL", 7, 24*time.Hour),
		CookieSecure:          getBoolEnv("COOKIE_SECURE", false),
		CORSOrigins:           getListEnv("CORS_ORIGINS", []string{"http://localhost:5173"}),
		FreeShippingThreshold: getFloatEnv("FREE_SHIPPING_THRESHOLD", 500),
		ShippingFee:           getFloatEnv("SHIPPING_FEE", 30),
		RelatedProductsLimit:  int64(getIntEnv("RELATED_PRODUCTS_LIMIT", 4)),
	}
	if AppEnv.JWTSecret == "" && !AppEnv.IsProduction() {
		AppEnv.JWTSecret = "dev-secret"
	}
	return AppEnv
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	return time.Duration(getIntEnv(key, defaultValue)) * unit
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	out := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
