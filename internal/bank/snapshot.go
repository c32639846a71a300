package bank

import (
	"fmt"

	"bankreport/internal/storage"
)

// Snapshot 匯出銀行狀態到可持久化的 storage.Snapshot，客戶與帳戶保持原有順序。
// 若有帳戶使用無法描述的自訂規則，回傳 ErrUnknownRule。
func (b *Bank) Snapshot() (storage.Snapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s := storage.Snapshot{
		Meta: storage.Meta{
			Version: storage.SnapshotVersion,
		},
		Customers: make([]storage.PersistCustomer, 0, len(b.customers)),
	}
	for _, c := range b.customers {
		pc := storage.PersistCustomer{
			ID:       c.id,
			Name:     c.name,
			Accounts: make([]storage.PersistAccount, 0, len(c.accounts)),
		}
		for _, a := range c.accounts {
			pa, err := persistAccount(a)
			if err != nil {
				return storage.Snapshot{}, fmt.Errorf("account %s: %w", a.ID, err)
			}
			pc.Accounts = append(pc.Accounts, pa)
		}
		s.Customers = append(s.Customers, pc)
	}
	return s, nil
}

func persistAccount(a *Account) (storage.PersistAccount, error) {
	pa := storage.PersistAccount{
		ID:      a.ID,
		Kind:    a.Kind,
		Balance: a.Balance,
		Logs:    make([]storage.PersistLog, 0, len(a.Logs)),
	}
	kind, rate, ok, err := ruleSpec(a.Rule)
	if err != nil {
		return storage.PersistAccount{}, err
	}
	if ok {
		pa.Rule = &storage.PersistRule{Kind: kind, Rate: rate}
	}
	for _, l := range a.Logs {
		pa.Logs = append(pa.Logs, storage.PersistLog(l))
	}
	return pa, nil
}

// Restore 由 storage.Snapshot 還原銀行狀態。
// 先完整建立新的客戶序列再一次替換；任何錯誤都不會改變現有狀態。
//
// 同一個 *Customer 可能被 AddCustomer 加入多次，快照中就會出現重複的客戶 ID。
// 還原時相同 ID 共用同一個 *Customer（以第一次出現的內容為準），
// 之後的異動才會同時反映在每個位置上，與保存前的行為一致。
func (b *Bank) Restore(s storage.Snapshot) error {
	customers := make([]*Customer, 0, len(s.Customers))
	seen := make(map[string]*Customer, len(s.Customers))
	for _, pc := range s.Customers {
		if c, ok := seen[pc.ID]; ok {
			customers = append(customers, c)
			continue
		}
		c := &Customer{id: pc.ID, name: pc.Name}
		seen[pc.ID] = c
		for _, pa := range pc.Accounts {
			a := &Account{ID: pa.ID, Kind: pa.Kind, Balance: pa.Balance}
			if pa.Rule != nil {
				rule, err := RuleFromSpec(pa.Rule.Kind, pa.Rule.Rate)
				if err != nil {
					return fmt.Errorf("account %s: %w", pa.ID, err)
				}
				a.Rule = rule
			}
			for _, l := range pa.Logs {
				a.Logs = append(a.Logs, Log(l))
			}
			c.accounts = append(c.accounts, a)
		}
		customers = append(customers, c)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.customers = customers
	return nil
}
