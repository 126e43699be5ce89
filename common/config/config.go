package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type DBConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     string
}

type CacheConfig struct {
	Host              string
	Port              string
	TransportProtocol string
}

type HTTPServerConfig struct {
	Host string
	Port string
}

// AdminConfig names the header carrying the shared admin secret. Both empty
// means admin routes are refused.
type AdminConfig struct {
	HeaderName   string
	HeaderSecret string
}

func (c AdminConfig) IsConfigured() bool {
	return c.HeaderName != "" && c.HeaderSecret != ""
}

// EngineConfig holds tunables of the learning engine that are not tied to a
// particular backing service.
type EngineConfig struct {
	StructureCacheTTL time.Duration
}

const defaultStructureCacheTTL = time.Hour

// LoadEnvFile seeds the process environment from a dotenv file.
// Variables already present in the environment win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return err
	}

	return godotenv.Load(path)
}

var (
	dbHost     = "DB_HOST"
	dbPort     = "DB_PORT"
	dbName     = "DB_NAME"
	dbUser     = "DB_USER"
	dbPassword = "DB_PASSWORD"
)

func LoadDBConfig() DBConfig {
	return DBConfig{
		Host:     mustGetenv(dbHost),
		Port:     mustGetenv(dbPort),
		Name:     mustGetenv(dbName),
		User:     mustGetenv(dbUser),
		Password: mustGetenv(dbPassword),
	}
}

var (
	cacheHost              = "CACHE_HOST"
	cachePort              = "CACHE_PORT"
	cacheTransportProtocol = "CACHE_TRANSPORT_PROTOCOL"
)

func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Host:              mustGetenv(cacheHost),
		Port:              mustGetenv(cachePort),
		TransportProtocol: mustGetenv(cacheTransportProtocol),
	}
}

var (
	httpServerHost = "HTTP_HOST"
	httpServerPort = "HTTP_PORT"
)

// LoadHTTPServerConfig reads the listen address. The host may be empty to
// listen on every interface.
func LoadHTTPServerConfig() HTTPServerConfig {
	return HTTPServerConfig{
		Host: os.Getenv(httpServerHost),
		Port: mustGetenv(httpServerPort),
	}
}

var (
	adminHeaderName   = "ADMIN_HEADER_NAME"
	adminHeaderSecret = "ADMIN_HEADER_SECRET"
)

func LoadAdminConfig() AdminConfig {
	return AdminConfig{
		HeaderName:   os.Getenv(adminHeaderName),
		HeaderSecret: os.Getenv(adminHeaderSecret),
	}
}

var structureCacheTTL = "STRUCTURE_CACHE_TTL"

func LoadEngineConfig() EngineConfig {
	config := EngineConfig{StructureCacheTTL: defaultStructureCacheTTL}

	raw := os.Getenv(structureCacheTTL)
	if raw == "" {
		return config
	}

	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		log.Fatalf("invalid value for environment variable %s: %q", structureCacheTTL, raw)
	}

	config.StructureCacheTTL = time.Duration(seconds) * time.Second

	return config
}

func mustGetenv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("missing environment variable: %s", key)
	}

	return value
}
