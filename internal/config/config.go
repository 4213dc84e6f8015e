package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr    string
	PostgresDSN string
	Env         string

	AuthMode          string
	OIDCIssuerURL     string
	OIDCAudience      string
	OIDCJWKSURL       string
	OIDCClockSkewSecs int
	JWTSecret         string

	AuthzMode        string
	PolicyBundlePath string

	RateLimitRequests      int
	RateLimitWindowSeconds int
	RateLimitFailClosed    bool
	RateLimitMaxKeys       int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AMQPURL      string
	AMQPExchange string
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:               addr,
		PostgresDSN:            os.Getenv("POSTGRES_DSN"),
		Env:                    envDefault("FIELDSERVE_ENV", "development"),
		AuthMode:               os.Getenv("AUTH_MODE"),
		OIDCIssuerURL:          os.Getenv("OIDC_ISSUER_URL"),
		OIDCAudience:           os.Getenv("OIDC_AUDIENCE"),
		OIDCJWKSURL:            os.Getenv("OIDC_JWKS_URL"),
		OIDCClockSkewSecs:      envIntDefault("OIDC_CLOCK_SKEW_SECONDS", 60),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		AuthzMode:              envDefault("AUTHZ_MODE", "rbac"),
		PolicyBundlePath:       os.Getenv("POLICY_BUNDLE_PATH"),
		RateLimitRequests:      envIntDefault("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindowSeconds: envIntDefault("RATE_LIMIT_WINDOW_SECONDS", 900),
		RateLimitFailClosed:    envBoolDefault("RATE_LIMIT_FAIL_CLOSED", false),
		RateLimitMaxKeys:       envIntDefault("RATE_LIMIT_MAX_KEYS", 10000),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                envIntDefault("REDIS_DB", 0),
		AMQPURL:                os.Getenv("AMQP_URL"),
		AMQPExchange:           envDefault("AMQP_EXCHANGE", "fieldserve.bookings"),
	}
}

func (c Config) Production() bool {
	return c.Env == "production"
}

func (c Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func envBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return parsed
}
