// internal/bank/bank.go

// Package bank 定義核心商業邏輯：客戶、帳戶、存提款與轉帳，以及銀行層級的報表
// （客戶摘要、客戶數、第一位客戶、利息支出合計）。
// 採用單一讀寫鎖 (sync.RWMutex) 保障所有狀態變更序列化，報表則在讀鎖下取得一致快照。
// 金額以 decimal.Decimal 儲存，避免浮點誤差。
package bank

import (
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// NoCustomersFound 為 FirstCustomer 在沒有客戶時回傳的固定字串。
const NoCustomersFound = "No customers found."

const summaryHeader = "Customer Summary"

// Bank 為聚合根 (Aggregate Root)：依加入順序保存所有客戶。
// - mu：寫入（新增客戶、帳戶異動、還原）取寫鎖；報表取讀鎖。
// - customers：只會附加在尾端，不刪除、不重排。
type Bank struct {
	mu        sync.RWMutex
	customers []*Customer
}

// NewBank 建立空白銀行實例。
func NewBank() *Bank {
	return &Bank{}
}

// AddCustomer 將客戶附加到序列尾端；不做驗證也不檢查重複。
// 加入後客戶的所有權轉移給 Bank。
func (b *Bank) AddCustomer(c *Customer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.customers = append(b.customers, c)
}

// CustomerSummary 產生多行客戶摘要：
//
//	Customer Summary
//	 - Ann (1 account)
//	 - Bob (2 accounts)
//
// 沒有客戶時只有標題行，結尾不加換行。
func (b *Bank) CustomerSummary() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var sb strings.Builder
	sb.WriteString(summaryHeader)
	for _, c := range b.customers {
		sb.WriteString("\n - ")
		sb.WriteString(c.Name())
		sb.WriteString(" (")
		sb.WriteString(format(c.NumberOfAccounts(), "account"))
		sb.WriteString(")")
	}
	return sb.String()
}

// format 組合數量與名詞；數量恰為 1 時用單數，其餘（含 0）加 s。
func format(number int, word string) string {
	if number != 1 {
		word += "s"
	}
	return strconv.Itoa(number) + " " + word
}

// TotalInterestPaid 依加入順序加總每位客戶在 days 天內賺得的利息。
// days 原樣傳給客戶與帳戶，不在此驗證；沒有客戶時回傳精確的 0。
func (b *Bank) TotalInterestPaid(days int) decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()
	total := decimal.Zero
	for _, c := range b.customers {
		total = total.Add(c.TotalInterestEarned(days))
	}
	return total
}

// FirstCustomer 回傳第一位客戶的名稱；沒有客戶時回傳 NoCustomersFound。
// 保留此字串哨兵值是為了相容舊行為，新程式請用 FirstCustomerName。
func (b *Bank) FirstCustomer() string {
	if name, ok := b.FirstCustomerName(); ok {
		return name
	}
	return NoCustomersFound
}

// FirstCustomerName 回傳第一位客戶的名稱；ok 為 false 代表銀行沒有客戶。
func (b *Bank) FirstCustomerName() (name string, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.customers) == 0 {
		return "", false
	}
	return b.customers[0].Name(), true
}

// NumberOfCustomers 回傳目前客戶數。
func (b *Bank) NumberOfCustomers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.customers)
}

// Customers 依加入順序回傳所有客戶的唯讀快照。
func (b *Bank) Customers() []CustomerView {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]CustomerView, 0, len(b.customers))
	for _, c := range b.customers {
		out = append(out, c.view())
	}
	return out
}

// Customer 依 ID 取得客戶快照；若不存在回傳 ErrCustomerNotFound。
func (b *Bank) Customer(id string) (CustomerView, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, err := b.customer(id)
	if err != nil {
		return CustomerView{}, err
	}
	return c.view(), nil
}

// customer 需在持有鎖的情況下呼叫。
func (b *Bank) customer(id string) (*Customer, error) {
	for _, c := range b.customers {
		if c.id == id {
			return c, nil
		}
	}
	return nil, ErrCustomerNotFound
}

// Accounts 依開戶順序回傳客戶名下所有帳戶的快照。
func (b *Bank) Accounts(customerID string) ([]AccountView, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, err := b.customer(customerID)
	if err != nil {
		return nil, err
	}
	out := make([]AccountView, 0, len(c.accounts))
	for _, a := range c.accounts {
		out = append(out, a.view())
	}
	return out, nil
}

// OpenAccount 為指定客戶開戶；rule 可為 nil（不計息）。
func (b *Bank) OpenAccount(customerID, kind string, rule InterestRule, initial decimal.Decimal) (AccountView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.customer(customerID)
	if err != nil {
		return AccountView{}, err
	}
	a, err := c.OpenAccount(kind, rule, initial)
	if err != nil {
		return AccountView{}, err
	}
	return a.view(), nil
}

// Deposit 存款；於臨界區內同時更新餘額與追加日誌。
func (b *Bank) Deposit(customerID, accountID string, amt decimal.Decimal) (AccountView, error) {
	return b.mutateAccount(customerID, accountID, func(a *Account) error { return a.Deposit(amt) })
}

// Withdraw 提款；餘額不足回傳 ErrInsufficient，且不改變任何狀態。
func (b *Bank) Withdraw(customerID, accountID string, amt decimal.Decimal) (AccountView, error) {
	return b.mutateAccount(customerID, accountID, func(a *Account) error { return a.Withdraw(amt) })
}

func (b *Bank) mutateAccount(customerID, accountID string, fn func(*Account) error) (AccountView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.customer(customerID)
	if err != nil {
		return AccountView{}, err
	}
	a, err := c.Account(accountID)
	if err != nil {
		return AccountView{}, err
	}
	if err := fn(a); err != nil {
		return AccountView{}, err
	}
	return a.view(), nil
}

// Transfer 在同一客戶的兩個帳戶間轉帳，整個操作在單一臨界區內完成。
func (b *Bank) Transfer(customerID, fromID, toID string, amt decimal.Decimal) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.customer(customerID)
	if err != nil {
		return err
	}
	return c.Transfer(fromID, toID, amt)
}

// Logs 回傳指定帳戶的交易日誌（值拷貝），避免外部修改內部切片。
func (b *Bank) Logs(customerID, accountID string) ([]Log, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, err := b.customer(customerID)
	if err != nil {
		return nil, err
	}
	a, err := c.Account(accountID)
	if err != nil {
		return nil, err
	}
	out := make([]Log, len(a.Logs))
	copy(out, a.Logs)
	return out, nil
}
