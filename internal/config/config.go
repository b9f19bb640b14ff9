// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config is read once from the environment at startup.
type Config struct {
	Port        string
	LogLevel    logrus.Level
	CORSOrigins []string

	DefaultMaxPlayers int
	MaxPlayersLimit   int
	AllowLateJoin     bool
	WSSendBuffer      int

	RedisAddr string
	RedisDB   int

	HistorianQueueName  string
	HistorianBatchSize  int
	HistorianFlushDelay time.Duration
	HistorianInactivity time.Duration
	DatabaseURL         string
}

// Load reads every setting, falling back to defaults for unset or unparsable values.
func Load() Config {
	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = logrus.InfoLevel
	}
	return Config{
		Port:        getEnv("PORT", "8000"),
		LogLevel:    level,
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:3001"}),

		DefaultMaxPlayers: getEnvInt("DEFAULT_MAX_PLAYERS", 4),
		MaxPlayersLimit:   getEnvInt("MAX_PLAYERS_LIMIT", 16),
		AllowLateJoin:     getEnvBool("ALLOW_LATE_JOIN", true),
		WSSendBuffer:      getEnvInt("WS_SEND_BUFFER", 16),

		RedisAddr: getEnv("REDIS_ADDR", ""),
		RedisDB:   getEnvInt("REDIS_DB", 0),

		HistorianQueueName:  getEnv("HISTORIAN_QUEUE_NAME", "habermas_actions"),
		HistorianBatchSize:  getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		HistorianFlushDelay: time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
		HistorianInactivity: time.Duration(getEnvInt("LOBBY_INACTIVITY_TIMEOUT_SEC", 600)) * time.Second,
		DatabaseURL:         getEnv("DATABASE_URL", ""),
	}
}

// getEnv reads an environment variable or returns def.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt parses an environment variable as an integer, else def.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return v
}

// getEnvList splits a comma separated variable, dropping blanks.
func getEnvList(key string, def []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
