// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an error.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration for the alert service.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	// Cron specs for the three alert cadences.
	ImmediateSpec string // default "@every 1h"
	DailySpec     string // default "0 8 * * *"
	WeeklySpec    string // default "0 8 * * 1"
	RunOnStart    bool   // run one immediate cycle at startup

	// Matching.
	MatchScanLimit int // candidate window fetched per match query

	// Outbound collaborators.
	GeminiAPIKey string // empty disables digest personalization
	GeminiModel  string
	AITimeout    time.Duration
	AWSRegion    string
	SenderEmail  string
	MailTimeout  time.Duration

	// Deep links in digest emails point here.
	SiteBaseURL string
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	sender := os.Getenv("SENDER_EMAIL")
	if sender == "" {
		return nil, fmt.Errorf("SENDER_EMAIL is required")
	}

	scanLimit := 200
	if s := os.Getenv("MATCH_SCAN_LIMIT"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("MATCH_SCAN_LIMIT must be a positive integer, got %q", s)
		}
		scanLimit = v
	}

	return &Config{
		Port:           envOr("ALERT_PORT", "8083"),
		DatabaseURL:    dbURL,
		RedisURL:       redisURL,
		ImmediateSpec:  envOr("ALERT_IMMEDIATE_SPEC", "@every 1h"),
		DailySpec:      envOr("ALERT_DAILY_SPEC", "0 8 * * *"),
		WeeklySpec:     envOr("ALERT_WEEKLY_SPEC", "0 8 * * 1"),
		RunOnStart:     os.Getenv("ALERT_RUN_ON_START") == "true",
		MatchScanLimit: scanLimit,
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    envOr("GEMINI_MODEL", "gemini-2.5-flash"),
		AITimeout:      5 * time.Second,
		AWSRegion:      envOr("AWS_REGION", "us-east-1"),
		SenderEmail:    sender,
		MailTimeout:    10 * time.Second,
		SiteBaseURL:    envOr("SITE_BASE_URL", "https://hiresphere.app"),
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
