// internal/storage/store.go
//
// 儲存後端的共同介面與選擇邏輯。
package storage

import (
	"context"
	"fmt"
)

// 支援的儲存後端。
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Store 負責整份快照的載入與保存。
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Close() error
}

// Options 選擇後端與其路徑。
type Options struct {
	Backend    string
	DataFile   string
	SQLitePath string
}

// Open 依 Options.Backend 建立對應的 Store。
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendJSON, "":
		return NewJSONStore(opts.DataFile), nil
	case BackendSQLite:
		return NewSQLiteStore(ctx, opts.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", opts.Backend)
	}
}
