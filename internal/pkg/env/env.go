package env

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

var Env map[string]string

// envFiles are tried in order; the first readable one wins.
var envFiles = []string{
	".env",          // Current directory
	"../../.env",    // From cmd/checkout to project root
	"../../../.env", // Fallback for deeper nesting
}

func GetEnv(key, def string) string {
	// First check our loaded Env map
	if val, ok := Env[key]; ok && val != "" {
		return val
	}
	// Fallback to OS environment variables (for Docker/tests)
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// SetupEnvFile loads the first .env file found. A missing file is not fatal:
// in containers the keys come from the process environment.
func SetupEnvFile() {
	var err error
	for _, envFile := range envFiles {
		Env, err = godotenv.Read(envFile)
		if err == nil {
			return
		}
	}

	Env = map[string]string{}
	log.Printf("No .env file found, using process environment only")
}
