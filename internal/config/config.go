// internal/config/config.go

// Package config 由環境變數讀取 CLI 設定；呼叫端可先以 godotenv 載入 .env。
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// 支援的儲存後端，與 storage.BackendJSON / storage.BackendSQLite 相同。
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config 為 CLI 的執行設定。
type Config struct {
	// Storage
	Backend    string
	DataFile   string
	SQLitePath string

	// Logging
	LogLevel  string
	LogFormat string

	// Reports
	InterestDays int

	// loadErrors 保存 Load 時無法解析的值，由 Validate 一併回報。
	loadErrors []string
}

// Load 由環境變數建立設定；未設定的項目使用預設值。
// 格式錯誤的數值不會被默默換成預設值，而是留給 Validate 回報。
func Load() *Config {
	cfg := &Config{
		Backend:    getEnv("BANK_BACKEND", BackendJSON),
		DataFile:   getEnv("BANK_DATA_FILE", "data.json"),
		SQLitePath: getEnv("BANK_SQLITE_PATH", "./data/bank.db"),

		LogLevel:  getEnv("BANK_LOG_LEVEL", "info"),
		LogFormat: getEnv("BANK_LOG_FORMAT", "text"),
	}

	var err error
	if cfg.InterestDays, err = getEnvInt("BANK_INTEREST_DAYS", 365); err != nil {
		cfg.loadErrors = append(cfg.loadErrors, err.Error())
	}
	return cfg
}

// Validate 檢查所有欄位，並把全部問題合併成單一錯誤回傳。
func (c *Config) Validate() error {
	errors := append([]string(nil), c.loadErrors...)

	validBackends := []string{BackendJSON, BackendSQLite}
	if !slices.Contains(validBackends, c.Backend) {
		errors = append(errors, fmt.Sprintf("invalid backend '%s': must be one of %v", c.Backend, validBackends))
	}
	if c.Backend == BackendJSON && c.DataFile == "" {
		errors = append(errors, "data file cannot be empty when using json backend")
	}
	if c.Backend == BackendSQLite && c.SQLitePath == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}
	validFormats := []string{"text", "json"}
	if !slices.Contains(validFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validFormats))
	}

	if c.InterestDays < 0 {
		errors = append(errors, fmt.Sprintf("invalid interest days %d: must not be negative", c.InterestDays))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s '%s': must be an integer", key, value)
	}
	return i, nil
}
