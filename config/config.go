// Package config exposes the environment-driven settings of the blog host.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

// LoadEnv reads an optional .env file into the process environment.
// Variables already set in the environment win over the file.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("BLOG_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("BLOG_DEBUG") == "true"
}

func GetDBFolderPath() string {
	dbFolderPath := os.Getenv("BLOG_DB_FOLDER")
	if dbFolderPath == "" {
		dbFolderPath = "/etc/blog"
	}
	return dbFolderPath
}

func GetDBPath() string {
	return fmt.Sprintf("%s/%s.db", GetDBFolderPath(), GetName())
}

func GetLogFolder() string {
	logFolderPath := os.Getenv("BLOG_LOG_FOLDER")
	if logFolderPath == "" {
		logFolderPath = "/var/log"
	}
	return logFolderPath
}

func GetListen() string {
	return os.Getenv("BLOG_LISTEN")
}

func GetPort() int {
	return getIntEnv("BLOG_PORT", 8080)
}

// GetBasePath always returns a path with leading and trailing slashes.
func GetBasePath() string {
	basePath := os.Getenv("BLOG_BASE_PATH")
	if basePath == "" {
		return "/"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if !strings.HasSuffix(basePath, "/") {
		basePath += "/"
	}
	return basePath
}

// GetSessionSecret returns the cookie signing secret, empty when unset.
func GetSessionSecret() string {
	return os.Getenv("BLOG_SESSION_SECRET")
}

// GetSessionMaxAge is expressed in minutes.
func GetSessionMaxAge() int {
	return getIntEnv("BLOG_SESSION_MAX_AGE", 60)
}

func GetJWTSecret() string {
	return os.Getenv("BLOG_JWT_SECRET")
}

// GetAuditRetentionDays returns 0 when audit cleanup is disabled.
func GetAuditRetentionDays() int {
	return getIntEnv("BLOG_AUDIT_RETENTION_DAYS", 90)
}

func GetLoginMaxAttempts() int {
	return getIntEnv("BLOG_LOGIN_MAX_ATTEMPTS", 5)
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
