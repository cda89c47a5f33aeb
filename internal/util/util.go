package util

import (
	"os"

	"github.com/google/uuid"
)

// Getenv returns the environment variable, or the default if unset
func Getenv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return def
}

// RandomID generates a random identifier suitable for games and guests
func RandomID() string {
	return uuid.New().String()
}
