// internal/bank/customer.go

package bank

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer 代表一位銀行客戶，擁有零或多個帳戶（依開戶順序）。
//
// Customer 本身不做同步；加入 Bank 之後，所有異動都應透過 Bank 的方法進行，
// 由 Bank 的互斥鎖序列化。
type Customer struct {
	id       string
	name     string
	accounts []*Account
}

// CustomerView 為客戶對外的唯讀快照。
type CustomerView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Accounts int    `json:"accounts"`
}

// NewCustomer 建立尚無帳戶的客戶。
func NewCustomer(name string) *Customer {
	return &Customer{id: uuid.NewString(), name: name}
}

func (c *Customer) ID() string   { return c.id }
func (c *Customer) Name() string { return c.name }

// NumberOfAccounts 回傳帳戶數。
func (c *Customer) NumberOfAccounts() int {
	return len(c.accounts)
}

// OpenAccount 開立新帳戶並附加到帳戶清單尾端。
func (c *Customer) OpenAccount(kind string, rule InterestRule, initial decimal.Decimal) (*Account, error) {
	a, err := newAccount(kind, rule, initial)
	if err != nil {
		return nil, err
	}
	c.accounts = append(c.accounts, a)
	return a, nil
}

// Account 依 ID 取得帳戶；找不到回傳 ErrAccountNotFound。
func (c *Customer) Account(id string) (*Account, error) {
	for _, a := range c.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, ErrAccountNotFound
}

// TotalInterestEarned 加總所有帳戶在 days 天內的利息（精確十進位加法，從 0 起算）。
func (c *Customer) TotalInterestEarned(days int) decimal.Decimal {
	total := decimal.Zero
	for _, a := range c.accounts {
		total = total.Add(a.InterestEarned(days))
	}
	return total
}

// Transfer 在同一客戶名下的兩個帳戶之間轉帳。
// 先完成所有檢核再同時扣款與入帳，任一檢核失敗皆不改變任何帳戶。
func (c *Customer) Transfer(fromID, toID string, amt decimal.Decimal) error {
	if !amt.IsPositive() {
		return ErrBadAmount
	}
	if fromID == toID {
		return ErrSameAccount
	}
	from, err := c.Account(fromID)
	if err != nil {
		return err
	}
	to, err := c.Account(toID)
	if err != nil {
		return err
	}
	if from.Balance.LessThan(amt) {
		return ErrInsufficient
	}
	from.Balance = from.Balance.Sub(amt)
	to.Balance = to.Balance.Add(amt)
	now := time.Now().UTC()
	from.Logs = append(from.Logs, Log{Time: now, Amount: amt, Direction: DirectionOut, CounterID: toID, Note: "transfer"})
	to.Logs = append(to.Logs, Log{Time: now, Amount: amt, Direction: DirectionIn, CounterID: fromID, Note: "transfer"})
	return nil
}

func (c *Customer) view() CustomerView {
	return CustomerView{ID: c.id, Name: c.name, Accounts: len(c.accounts)}
}
