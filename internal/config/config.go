// Package config loads configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Env holds the configuration values for the application.
type Env struct {
	Region         string
	CardsTable     string
	ProfilesTable  string
	AllowDevHeader bool
	ReminderDays   int
	LogLevel       string
}

// Load reads the environment variables and returns an Env struct.
//
// Missing table names are not fatal here: handlers report them as a
// configuration error on the affected route, so the diagnostic reaches
// the caller instead of killing the function at init.
func Load() Env {
	days, err := strconv.Atoi(get("REMINDER_DEFAULT_DAYS", "7"))
	if err != nil || days < 1 {
		days = 7
	}
	return Env{
		Region:         get("AWS_REGION", "us-east-1"),
		CardsTable:     os.Getenv("CARDS_TABLE"),
		ProfilesTable:  os.Getenv("PROFILES_TABLE"),
		AllowDevHeader: boolFlag(os.Getenv("ALLOW_DEV_HEADER")),
		ReminderDays:   days,
		LogLevel:       get("LOG_LEVEL", "info"),
	}
}

// get returns the value of the environment variable k or def if not set.
func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// boolFlag accepts "1" and "true" (any case) as true.
func boolFlag(v string) bool {
	v = strings.TrimSpace(strings.ToLower(v))
	return v == "1" || v == "true"
}
