// internal/storage/model.go
//
// 定義「資料持久化層 (storage layer)」的結構模型。
// 該層只描述 Bank 的序列化格式（JSON 或 SQLite 共用），
// 並保存必要的中繼資訊 (Meta)，以便版本控制。
//
// 金額欄位使用 decimal.Decimal，JSON 中以字串表示，讀回時不會有精度損失。
package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SnapshotVersion 為目前的快照結構版本。
// 版本 1 為舊的單層帳戶格式 (accounts/next_id)，無法轉換，讀取時直接拒絕。
const SnapshotVersion = 2

// ErrSnapshotVersion 代表快照版本與 SnapshotVersion 不符。
// 呼叫端不可把這種快照當成空銀行，否則下一次保存會覆蓋舊資料。
var ErrSnapshotVersion = errors.New("unsupported snapshot version")

func checkVersion(v int) error {
	if v != SnapshotVersion {
		return fmt.Errorf("version %d, want %d: %w", v, SnapshotVersion, ErrSnapshotVersion)
	}
	return nil
}

// Meta 為所有持久化快照的中繼資料 (metadata)。
type Meta struct {
	Storage   string    `json:"storage"`        // 儲存類型，例如 "json_snapshot"
	Version   int       `json:"version"`        // 結構版本號，用於未來升級時比對
	Timestamp time.Time `json:"timestamp"`      // 快照建立時間
	Note      string    `json:"note,omitempty"` // 備註欄
}

// PersistRule 描述帳戶的利息規則。
type PersistRule struct {
	Kind string          `json:"kind"`
	Rate decimal.Decimal `json:"rate"`
}

// PersistLog 為交易日誌的序列化格式。
type PersistLog struct {
	Time      time.Time       `json:"time"`
	Amount    decimal.Decimal `json:"amount"`
	Direction string          `json:"direction"`
	CounterID string          `json:"counter_account,omitempty"`
	Note      string          `json:"note"`
}

// PersistAccount 為帳戶在儲存層的序列化格式；Rule 為 nil 代表不計息。
type PersistAccount struct {
	ID      string          `json:"id"`
	Kind    string          `json:"kind"`
	Balance decimal.Decimal `json:"balance"`
	Rule    *PersistRule    `json:"rule,omitempty"`
	Logs    []PersistLog    `json:"logs"`
}

// PersistCustomer 為客戶的序列化格式，Accounts 依開戶順序排列。
type PersistCustomer struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Accounts []PersistAccount `json:"accounts"`
}

// Snapshot 為 Bank 狀態的完整快照；Customers 依加入順序排列，順序有語意。
type Snapshot struct {
	Meta      Meta              `json:"_meta"`
	Customers []PersistCustomer `json:"customers"`
}
