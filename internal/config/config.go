// Package config loads server settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	subAuth "github.com/MrEthical07/subAuth"
	"github.com/joho/godotenv"
)

// Server holds everything cmd/subauthd needs to start.
type Server struct {
	Addr            string
	DatabaseURL     string
	DBMaxOpenConns  int
	DBMaxIdleConns  int
	DBConnMaxLife   time.Duration
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	SweepInterval   time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPS    int
	RateLimitBurst  int
	MaxBodyBytes    int64
	Engine          subAuth.Config
}

// LoadDotEnv loads the first .env file found in paths. A missing file is
// not an error.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			return
		}
	}
	log.Println("subAuth: no .env file found, using process environment")
}

// Load reads the environment into a Server config. Engine settings start
// from subAuth.DefaultConfig.
func Load() (Server, error) {
	s := Server{
		Addr:            GetEnv("ADDR", ":8080"),
		DatabaseURL:     GetEnv("DATABASE_URL", ""),
		DBMaxOpenConns:  GetEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:  GetEnvAsInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLife:   GetEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		RedisAddr:       GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   GetEnv("REDIS_PASSWORD", ""),
		RedisDB:         GetEnvAsInt("REDIS_DB", 0),
		SweepInterval:   GetEnvAsDuration("SWEEP_INTERVAL", time.Hour),
		ShutdownTimeout: GetEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		RateLimitRPS:    GetEnvAsInt("RATE_LIMIT_RPS", 20),
		RateLimitBurst:  GetEnvAsInt("RATE_LIMIT_BURST", 40),
		MaxBodyBytes:    int64(GetEnvAsInt("MAX_BODY_BYTES", 1<<20)),
		Engine:          subAuth.DefaultConfig(),
	}

	if s.DatabaseURL == "" {
		return Server{}, errors.New("DATABASE_URL is required")
	}

	e := &s.Engine
	e.JWT.SigningMethod = strings.ToLower(GetEnv("JWT_SIGNING_METHOD", e.JWT.SigningMethod))
	e.JWT.Issuer = GetEnv("JWT_ISSUER", e.JWT.Issuer)
	e.JWT.Audience = GetEnv("JWT_AUDIENCE", e.JWT.Audience)
	e.JWT.KeyID = GetEnv("JWT_KEY_ID", e.JWT.KeyID)
	e.JWT.AccessTTL = GetEnvAsDuration("ACCESS_TOKEN_TTL", e.JWT.AccessTTL)
	e.Session.RefreshTTL = GetEnvAsDuration("REFRESH_TOKEN_TTL", e.Session.RefreshTTL)
	e.Session.RedisPrefix = GetEnv("SESSION_PREFIX", e.Session.RedisPrefix)
	e.Security.ProductionMode = GetEnvAsBool("PRODUCTION", e.Security.ProductionMode)
	e.Security.EnableIPThrottle = GetEnvAsBool("IP_THROTTLE", e.Security.EnableIPThrottle)
	e.Security.MaxSignInAttempts = GetEnvAsInt("MAX_SIGN_IN_ATTEMPTS", e.Security.MaxSignInAttempts)
	e.Security.SignInCooldown = GetEnvAsDuration("SIGN_IN_COOLDOWN", e.Security.SignInCooldown)
	e.Store.OperationTimeout = GetEnvAsDuration("STORE_TIMEOUT", e.Store.OperationTimeout)
	e.Metrics.EnableLatencyHistograms = GetEnvAsBool("LATENCY_HISTOGRAMS", true)

	var err error
	switch e.JWT.SigningMethod {
	case "hs256":
		secret := GetEnv("JWT_SECRET", "")
		if secret == "" {
			return Server{}, errors.New("JWT_SECRET is required for hs256")
		}
		e.JWT.PrivateKey = []byte(secret)
	case "ed25519":
		if e.JWT.PrivateKey, err = keyFromEnv("JWT_PRIVATE_KEY"); err != nil {
			return Server{}, err
		}
		if e.JWT.PublicKey, err = keyFromEnv("JWT_PUBLIC_KEY"); err != nil {
			return Server{}, err
		}
	default:
		return Server{}, fmt.Errorf("unsupported JWT_SIGNING_METHOD %q", e.JWT.SigningMethod)
	}

	if s.SweepInterval <= 0 {
		return Server{}, errors.New("SWEEP_INTERVAL must be positive")
	}
	return s, nil
}

// keyFromEnv accepts a PEM block or a base64 raw key.
func keyFromEnv(name string) ([]byte, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return nil, fmt.Errorf("%s is required for ed25519", name)
	}
	if strings.HasPrefix(v, "-----BEGIN") {
		return []byte(strings.ReplaceAll(v, `\n`, "\n")), nil
	}
	raw, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return raw, nil
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("subAuth: invalid integer for %s: %q, using default %d", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("subAuth: invalid bool for %s: %q, using default %t", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("subAuth: invalid duration for %s: %q, using default %s", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
