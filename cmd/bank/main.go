// cmd/bank/main.go

// bank 是銀行報表的命令列工具：新增客戶與帳戶、存提款與轉帳，
// 以及產生客戶摘要、客戶數、第一位客戶與利息支出合計等報表。
// 狀態存於 JSON 快照或 SQLite 資料庫，每次異動成功後立即保存。

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"bankreport/internal/config"
	"bankreport/internal/logging"
)

func main() {
	// 本機開發用；正式環境可不提供 .env
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		os.Exit(1)
	}
	if err := logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat); err != nil {
		log.WithError(err).Error("logging setup failed")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.WithFields(log.Fields{
			logging.FieldComponent: logging.ComponentCLI,
		}).WithError(err).Error("command failed")
		stop()
		os.Exit(1)
	}
}

// loadConfig 讀取並驗證環境設定；驗證失敗時以 config 元件記錄錯誤。
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.WithFields(log.Fields{
			logging.FieldComponent: logging.ComponentConfig,
		}).WithError(err).Error("configuration validation failed")
		return nil, err
	}
	return cfg, nil
}
