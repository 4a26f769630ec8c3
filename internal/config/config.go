package config // package config loads application configuration from environment variables

import (
	"fmt"     // fmt builds the default public URL
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	Port         string // HTTP port to listen on
	AppURL       string // public base URL used to build poster links
	DBUser       string // database username
	DBPass       string // database password (optional)
	DBHost       string // database host address
	DBPort       string // database port number
	DBName       string // database name
	DBMigrate    bool   // apply the embedded schema at startup
	JWTSecret    string // secret used to sign bearer tokens
	AccessTTLMin int    // bearer token time-to-live in minutes, 0 means no expiry
	BcryptCost   int    // bcrypt cost for password hashing
	StorageDir   string // directory that holds uploaded posters
	LogLevel     string // hclog level name (trace, debug, info, warn, error)
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	port := must("APP_PORT")
	return Config{
		Env:          must("APP_ENV"),
		Port:         port,
		AppURL:       envStr("APP_URL", fmt.Sprintf("http://localhost:%s", port)),
		DBUser:       must("DB_USER"),
		DBPass:       os.Getenv("DB_PASS"), // empty allowed
		DBHost:       must("DB_HOST"),
		DBPort:       must("DB_PORT"),
		DBName:       must("DB_NAME"),
		DBMigrate:    envBool("DB_MIGRATE", true),
		JWTSecret:    must("JWT_SECRET"),
		AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 0),
		BcryptCost:   mustInt("BCRYPT_COST"),
		StorageDir:   envStr("STORAGE_DIR", "storage/app/public"),
		LogLevel:     envStr("LOG_LEVEL", "info"),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
