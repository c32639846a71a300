// internal/storage/jsonstore.go
//
// 提供 JSON 快照 (Snapshot) 的序列化與反序列化實作。
// 採「原子寫入」策略 (atomic write)：先寫入 .tmp 檔，再以 rename() 取代原檔，
// 寫入中途失敗時原檔不會損壞。
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"bankreport/internal/logging"
)

const storageJSON = "json_snapshot"

// LoadSnapshot 讀取指定路徑的 JSON 快照，並解析成 Snapshot 結構。
// 若檔案不存在，回傳的錯誤滿足 errors.Is(err, os.ErrNotExist)；
// 版本不符（含沒有 _meta 的舊檔）回傳 ErrSnapshotVersion。
func LoadSnapshot(path string) (Snapshot, error) {
	var snap Snapshot
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return snap, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := checkVersion(snap.Meta.Version); err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// SaveSnapshot 將 Snapshot 序列化為 JSON 檔案，並採原子方式寫入。
// 流程：
//  1. 設定 Meta.Storage、目前版本號與當前時間戳。
//  2. 寫入 path+".tmp" 暫存檔。
//  3. 寫入完成後使用 os.Rename() 取代正式檔案。
func SaveSnapshot(path string, snap Snapshot) error {
	snap.Meta.Storage = storageJSON
	snap.Meta.Timestamp = time.Now().UTC()
	snap.Meta.Version = SnapshotVersion
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	// 使用縮排格式輸出，方便人工檢視
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	// 原子替換
	return os.Rename(tmp, path)
}

// JSONStore 以單一 JSON 檔實作 Store。
type JSONStore struct {
	path string
}

// NewJSONStore 建立以 path 為快照檔的 JSONStore；檔案在第一次 Save 時才建立。
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Load 讀取快照；檔案尚不存在時視為空銀行，其他錯誤（含版本不符）原樣回傳。
func (s *JSONStore) Load(ctx context.Context) (Snapshot, error) {
	snap, err := LoadSnapshot(s.path)
	if errors.Is(err, os.ErrNotExist) {
		log.WithFields(log.Fields{
			logging.FieldComponent: logging.ComponentStorage,
			logging.FieldPath:      s.path,
		}).Debug("snapshot file not found, starting empty")
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Save 以原子寫入方式保存快照，見 SaveSnapshot。
func (s *JSONStore) Save(ctx context.Context, snap Snapshot) error {
	if err := SaveSnapshot(s.path, snap); err != nil {
		return fmt.Errorf("save json snapshot: %w", err)
	}
	log.WithFields(log.Fields{
		logging.FieldComponent: logging.ComponentStorage,
		logging.FieldPath:      s.path,
		logging.FieldCount:     len(snap.Customers),
	}).Debug("snapshot saved")
	return nil
}

// Close 不持有任何資源，永遠回傳 nil。
func (s *JSONStore) Close() error { return nil }
