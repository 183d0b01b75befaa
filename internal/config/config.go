package config

import (
	"os"
	"strconv"
)

type Config struct {
	AppPort       string
	DBDSN         string
	JWTSecret     string
	JWTExpiresMin int

	DBMaxOpenConns   int
	DBMaxIdleConns   int
	DBConnMaxLifeMin int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel string
	LogJSON  bool

	// Bootstrap admin, created at startup when no user has the email.
	AdminEmail    string
	AdminPassword string

	GoogleClientID  string
	GoogleSecret    string
	GoogleRedirect  string
	FrontendBaseURL string
}

func Load() Config {
	expires, _ := strconv.Atoi(get("JWT_EXPIRES_MIN", "10080"))
	redisDB, _ := strconv.Atoi(get("REDIS_DB", "0"))
	maxOpen, _ := strconv.Atoi(get("DB_MAX_OPEN_CONNS", "20"))
	maxIdle, _ := strconv.Atoi(get("DB_MAX_IDLE_CONNS", "5"))
	maxLife, _ := strconv.Atoi(get("DB_CONN_MAX_LIFE_MIN", "30"))

	return Config{
		AppPort:       get("APP_PORT", "8080"),
		DBDSN:         must("DB_DSN"),
		JWTSecret:     must("JWT_SECRET"),
		JWTExpiresMin: expires,

		DBMaxOpenConns:   maxOpen,
		DBMaxIdleConns:   maxIdle,
		DBConnMaxLifeMin: maxLife,

		RedisAddr:     get("REDIS_ADDR", ""),
		RedisPassword: get("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,

		LogLevel: get("LOG_LEVEL", "info"),
		LogJSON:  get("LOG_JSON", "false") == "true",

		AdminEmail:    get("ADMIN_EMAIL", ""),
		AdminPassword: get("ADMIN_PASSWORD", ""),

		GoogleClientID:  get("GOOGLE_CLIENT_ID", ""),
		GoogleSecret:    get("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirect:  get("GOOGLE_REDIRECT_URL", ""),
		FrontendBaseURL: get("FRONTEND_BASE_URL", "http://localhost:3000"),
	}
}

func get(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
