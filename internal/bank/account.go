// Package bank 定義核心領域模型與業務規則。
// 本檔定義 Account 與交易 Log 結構，不含任何儲存或輸出細節。

package bank

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// 交易方向。
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Account 代表客戶名下的一個帳戶。
// 金額一律以 decimal.Decimal 儲存，避免浮點誤差。
type Account struct {
	ID      string
	Kind    string
	Balance decimal.Decimal
	Rule    InterestRule
	Logs    []Log
}

// Log 代表一筆交易紀錄。
type Log struct {
	Time      time.Time       `json:"time"`
	Amount    decimal.Decimal `json:"amount"`
	Direction string          `json:"direction"`
	CounterID string          `json:"counter_account,omitempty"`
	Note      string          `json:"note"`
}

// AccountView 為帳戶對外的唯讀快照，不含規則與日誌。
type AccountView struct {
	ID      string          `json:"id"`
	Kind    string          `json:"kind"`
	Balance decimal.Decimal `json:"balance"`
}

// newAccount 建立帳戶；初始餘額不得為負。
func newAccount(kind string, rule InterestRule, initial decimal.Decimal) (*Account, error) {
	if initial.IsNegative() {
		return nil, ErrBadAmount
	}
	return &Account{
		ID:      uuid.NewString(),
		Kind:    kind,
		Balance: initial,
		Rule:    rule,
	}, nil
}

// Deposit 存款：金額需 > 0。
func (a *Account) Deposit(amt decimal.Decimal) error {
	if !amt.IsPositive() {
		return ErrBadAmount
	}
	a.Balance = a.Balance.Add(amt)
	a.Logs = append(a.Logs, Log{Time: time.Now().UTC(), Amount: amt, Direction: DirectionIn, Note: "deposit"})
	return nil
}

// Withdraw 提款：金額需 > 0 且不得超過餘額（維持非負）。
func (a *Account) Withdraw(amt decimal.Decimal) error {
	if !amt.IsPositive() {
		return ErrBadAmount
	}
	if a.Balance.LessThan(amt) {
		return ErrInsufficient
	}
	a.Balance = a.Balance.Sub(amt)
	a.Logs = append(a.Logs, Log{Time: time.Now().UTC(), Amount: amt, Direction: DirectionOut, Note: "withdraw"})
	return nil
}

// InterestEarned 回傳目前餘額在 days 天內的應計利息；未設定規則時為 0。
func (a *Account) InterestEarned(days int) decimal.Decimal {
	if a.Rule == nil {
		return decimal.Zero
	}
	return a.Rule.Interest(a.Balance, days)
}

func (a *Account) view() AccountView {
	return AccountView{ID: a.ID, Kind: a.Kind, Balance: a.Balance}
}
