// internal/logging/logging.go

// Package logging 設定全域 logrus logger，並集中定義常用欄位名稱。
package logging

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
)

// 欄位名稱。
const (
	FieldComponent = "component"
	FieldCommand   = "command"
	FieldCustomer  = "customer_id"
	FieldAccount   = "account_id"
	FieldBackend   = "backend"
	FieldPath      = "path"
	FieldCount     = "customers"
)

// 元件名稱。
const (
	ComponentCLI     = "cli"
	ComponentStorage = "storage"
	ComponentConfig  = "config"
)

// Setup 依等級與格式 (text|json) 設定全域 logger，輸出到 out。
func Setup(out io.Writer, level, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}

	switch format {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}

	log.SetLevel(lvl)
	log.SetOutput(out)
	return nil
}
