package env

import (
	"os"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
)

// Env holds the key/value pairs read from the .env file, if one was found.
var Env map[string]string

// GetEnv looks a key up in the loaded .env file, then in the process
// environment, then falls back to def.
func GetEnv(key, def string) string {
	if val, ok := Env[key]; ok {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// SetupEnvFile loads the nearest .env file. Running without one is fine
// (containers inject configuration through the process environment); GetEnv
// keeps working either way.
func SetupEnvFile() {
	envFiles := []string{
		".env",
		"../../.env",    // from cmd/shopfox
		"../../../.env", // deeper nesting
	}

	for _, envFile := range envFiles {
		if env, err := godotenv.Read(envFile); err == nil {
			Env = env
			return
		}
	}

	Env = map[string]string{}
	log.Info("env: no .env file found, using process environment only")
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}
