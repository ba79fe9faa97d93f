// Package config loads server configuration from the process environment,
// optionally seeded from a .env file.
package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment at startup.
type Config struct {
	// Port the HTTP server listens on, without the colon.
	Port string
	// MongoURI is the document store connection string. Required.
	MongoURI string
	// MongoDB is the database name inside the cluster.
	MongoDB string
	// JWTSecret signs and verifies access tokens. Required.
	JWTSecret string
	// CORSOrigin is the single origin allowed to open realtime connections.
	CORSOrigin string
	// RedisAddr, when set, enables the cross-instance relay bridge.
	RedisAddr string
	// Env switches the static SPA fallback on when set to "production".
	Env string
}

// Load reads configuration from the environment. A missing .env file is not
// an error; missing required variables are.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		Port:       getenv("PORT", "5000"),
		MongoURI:   os.Getenv("MONGO_URI"),
		MongoDB:    getenv("MONGO_DB", "chat"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		CORSOrigin: getenv("CORS_ORIGIN", "http://localhost:3000"),
		RedisAddr:  os.Getenv("REDIS_ADDR"),
		Env:        getenv("APP_ENV", "development"),
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	return cfg, nil
}

// Production reports whether the static SPA fallback should be mounted.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// Addr returns the listen address for http.ListenAndServe.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
