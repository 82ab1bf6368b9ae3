// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr string
	DBPath     string
	PageSize   int

	// Acting user identity attached to comments created through the API.
	UserID   string
	UserName string

	// GitHub issue sync, optional.
	GitHubToken  string
	SyncRepo     string
	SyncIssue    int
	SyncProject  string
	SyncInterval time.Duration
}

// HasIssueSync returns true when everything needed to mirror a GitHub issue's
// discussion is configured. Used by the composition root to decide whether to
// start the import service.
func (c *Config) HasIssueSync() bool {
	return c.GitHubToken != "" && c.SyncRepo != "" && c.SyncIssue > 0 && c.SyncProject != ""
}

// Load reads configuration from environment variables and returns a validated
// Config. The sync variables (THREADBOARD_GITHUB_TOKEN, THREADBOARD_SYNC_REPO,
// THREADBOARD_SYNC_ISSUE, THREADBOARD_SYNC_PROJECT) are optional; if absent
// the server runs without issue import. Optional variables with defaults:
// THREADBOARD_LISTEN_ADDR (127.0.0.1:8080), THREADBOARD_DB_PATH
// (threadboard.db), THREADBOARD_PAGE_SIZE (20), THREADBOARD_SYNC_INTERVAL
// (5m), THREADBOARD_USER_ID (local), THREADBOARD_USER_NAME (Local User).
func Load() (*Config, error) {
	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("THREADBOARD_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "threadboard.db"
	if v, ok := os.LookupEnv("THREADBOARD_DB_PATH"); ok {
		dbPath = v
	}

	pageSize := 20
	if v, ok := os.LookupEnv("THREADBOARD_PAGE_SIZE"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("THREADBOARD_PAGE_SIZE has invalid value %q", v)
		}
		pageSize = parsed
	}

	userID := "local"
	if v, ok := os.LookupEnv("THREADBOARD_USER_ID"); ok && v != "" {
		userID = v
	}

	userName := "Local User"
	if v, ok := os.LookupEnv("THREADBOARD_USER_NAME"); ok && v != "" {
		userName = v
	}

	syncInterval := 5 * time.Minute
	if v, ok := os.LookupEnv("THREADBOARD_SYNC_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("THREADBOARD_SYNC_INTERVAL has invalid duration %q: %w", v, err)
		}
		syncInterval = parsed
	}

	syncIssue := 0
	if v, ok := os.LookupEnv("THREADBOARD_SYNC_ISSUE"); ok && v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("THREADBOARD_SYNC_ISSUE has invalid value %q", v)
		}
		syncIssue = parsed
	}

	return &Config{
		ListenAddr:   listenAddr,
		DBPath:       dbPath,
		PageSize:     pageSize,
		UserID:       userID,
		UserName:     userName,
		GitHubToken:  os.Getenv("THREADBOARD_GITHUB_TOKEN"),
		SyncRepo:     os.Getenv("THREADBOARD_SYNC_REPO"),
		SyncIssue:    syncIssue,
		SyncProject:  os.Getenv("THREADBOARD_SYNC_PROJECT"),
		SyncInterval: syncInterval,
	}, nil
}
