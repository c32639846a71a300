// internal/bank/bank_test.go
//
// Bank 的單元測試：客戶數、客戶摘要（含單複數）、第一位客戶、利息合計，
// 以及帳戶異動的錯誤條件、併發安全與快照還原。
// 所有測試皆為 in-memory 執行，不依賴外部服務或資料庫。

package bank

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankreport/internal/storage"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// assertDecimal 以數值比較 decimal（忽略內部表示法差異）。
func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s got %s", want, got)
}

// customerWith 建立帶有 n 個不計息帳戶的客戶。
func customerWith(t *testing.T, name string, n int) *Customer {
	t.Helper()
	c := NewCustomer(name)
	for i := 0; i < n; i++ {
		_, err := c.OpenAccount("checking", nil, decimal.Zero)
		require.NoError(t, err)
	}
	return c
}

func TestNumberOfCustomersCountsAdds(t *testing.T) {
	b := NewBank()
	assert.Equal(t, 0, b.NumberOfCustomers())
	for i := 1; i <= 5; i++ {
		b.AddCustomer(NewCustomer(fmt.Sprintf("c%d", i)))
		assert.Equal(t, i, b.NumberOfCustomers())
	}
}

func TestAddCustomerAllowsDuplicates(t *testing.T) {
	b := NewBank()
	c := NewCustomer("Ann")
	b.AddCustomer(c)
	b.AddCustomer(c)
	assert.Equal(t, 2, b.NumberOfCustomers())
}

func TestCustomerSummary(t *testing.T) {
	t.Run("empty bank is header only", func(t *testing.T) {
		assert.Equal(t, "Customer Summary", NewBank().CustomerSummary())
	})

	t.Run("example", func(t *testing.T) {
		b := NewBank()
		b.AddCustomer(customerWith(t, "Ann", 1))
		b.AddCustomer(customerWith(t, "Bob", 2))
		assert.Equal(t, "Customer Summary\n - Ann (1 account)\n - Bob (2 accounts)", b.CustomerSummary())
	})

	t.Run("pluralization", func(t *testing.T) {
		cases := map[int]string{
			0: " - X (0 accounts)",
			1: " - X (1 account)",
			2: " - X (2 accounts)",
			7: " - X (7 accounts)",
		}
		for n, want := range cases {
			b := NewBank()
			b.AddCustomer(customerWith(t, "X", n))
			lines := strings.Split(b.CustomerSummary(), "\n")
			require.Len(t, lines, 2)
			assert.Equal(t, want, lines[1])
		}
	})

	t.Run("one line per customer in insertion order", func(t *testing.T) {
		b := NewBank()
		names := []string{"Zed", "Amy", "Kim", "Amy"}
		for i, n := range names {
			b.AddCustomer(customerWith(t, n, i))
		}
		lines := strings.Split(b.CustomerSummary(), "\n")
		require.Len(t, lines, b.NumberOfCustomers()+1)
		assert.Equal(t, "Customer Summary", lines[0])
		for i, line := range lines[1:] {
			assert.True(t, strings.HasPrefix(line, " - "+names[i]+" ("), line)
		}
	})
}

func TestFirstCustomer(t *testing.T) {
	b := NewBank()
	assert.Equal(t, "No customers found.", b.FirstCustomer())
	name, ok := b.FirstCustomerName()
	assert.False(t, ok)
	assert.Empty(t, name)

	b.AddCustomer(NewCustomer("Ann"))
	b.AddCustomer(NewCustomer("Bob"))
	b.AddCustomer(NewCustomer("Cid"))
	assert.Equal(t, "Ann", b.FirstCustomer())
	name, ok = b.FirstCustomerName()
	assert.True(t, ok)
	assert.Equal(t, "Ann", name)
}

func TestTotalInterestPaid(t *testing.T) {
	t.Run("empty bank is exact zero", func(t *testing.T) {
		b := NewBank()
		for _, days := range []int{-10, 0, 1, 365} {
			got := b.TotalInterestPaid(days)
			assert.True(t, got.IsZero(), "days=%d got %s", days, got)
		}
	})

	t.Run("equals sum of customer interest", func(t *testing.T) {
		b := NewBank()
		ann := NewCustomer("Ann")
		_, err := ann.OpenAccount("savings", SimpleInterest{AnnualRate: dec("0.05")}, dec("1000"))
		require.NoError(t, err)
		_, err = ann.OpenAccount("checking", SimpleInterest{AnnualRate: dec("0.001")}, dec("365000"))
		require.NoError(t, err)
		bob := NewCustomer("Bob")
		_, err = bob.OpenAccount("maxi", DailyCompound{AnnualRate: dec("0.365")}, dec("1000"))
		require.NoError(t, err)
		b.AddCustomer(ann)
		b.AddCustomer(bob)
		b.AddCustomer(NewCustomer("Cid"))

		// ann: 1000*0.05*2/365 = 0.27 ; 365000*0.001*2/365 = 2.00
		// bob: 1000*((1.001)^2-1) = 2.001 -> 2.00
		assertDecimal(t, "4.27", b.TotalInterestPaid(2))
		want := ann.TotalInterestEarned(2).Add(bob.TotalInterestEarned(2))
		assert.True(t, want.Equal(b.TotalInterestPaid(2)))
	})

	t.Run("no float drift over many additions", func(t *testing.T) {
		b := NewBank()
		for i := 0; i < 1000; i++ {
			c := NewCustomer("c")
			// 10 * 0.365 * 1 / 365 = 0.01 per customer
			_, err := c.OpenAccount("savings", SimpleInterest{AnnualRate: dec("0.365")}, dec("10"))
			require.NoError(t, err)
			b.AddCustomer(c)
		}
		assertDecimal(t, "10", b.TotalInterestPaid(1))
	})
}

func TestCustomersAndLookup(t *testing.T) {
	b := NewBank()
	ann := customerWith(t, "Ann", 2)
	b.AddCustomer(ann)
	b.AddCustomer(NewCustomer("Bob"))

	views := b.Customers()
	require.Len(t, views, 2)
	assert.Equal(t, CustomerView{ID: ann.ID(), Name: "Ann", Accounts: 2}, views[0])
	assert.Equal(t, "Bob", views[1].Name)

	got, err := b.Customer(ann.ID())
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)

	_, err = b.Customer("nope")
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestBankAccountOperations(t *testing.T) {
	b := NewBank()
	c := NewCustomer("Ann")
	b.AddCustomer(c)

	a1, err := b.OpenAccount(c.ID(), "checking", nil, dec("100"))
	require.NoError(t, err)
	a2, err := b.OpenAccount(c.ID(), "savings", SimpleInterest{AnnualRate: dec("0.02")}, decimal.Zero)
	require.NoError(t, err)
	assert.NotEqual(t, a1.ID, a2.ID)

	_, err = b.OpenAccount(c.ID(), "checking", nil, dec("-1"))
	assert.ErrorIs(t, err, ErrBadAmount)
	_, err = b.OpenAccount("nope", "checking", nil, decimal.Zero)
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	v, err := b.Deposit(c.ID(), a1.ID, dec("50.25"))
	require.NoError(t, err)
	assertDecimal(t, "150.25", v.Balance)

	v, err = b.Withdraw(c.ID(), a1.ID, dec("30"))
	require.NoError(t, err)
	assertDecimal(t, "120.25", v.Balance)

	_, err = b.Withdraw(c.ID(), a1.ID, dec("9999"))
	assert.ErrorIs(t, err, ErrInsufficient)
	_, err = b.Deposit(c.ID(), a1.ID, decimal.Zero)
	assert.ErrorIs(t, err, ErrBadAmount)
	_, err = b.Deposit(c.ID(), "nope", dec("1"))
	assert.ErrorIs(t, err, ErrAccountNotFound)

	require.NoError(t, b.Transfer(c.ID(), a1.ID, a2.ID, dec("20.25")))
	accounts, err := b.Accounts(c.ID())
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assertDecimal(t, "100", accounts[0].Balance)
	assertDecimal(t, "20.25", accounts[1].Balance)

	logs, err := b.Logs(c.ID(), a1.ID)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, DirectionIn, logs[0].Direction)
	assert.Equal(t, DirectionOut, logs[1].Direction)
	assert.Equal(t, "transfer", logs[2].Note)
	assert.Equal(t, a2.ID, logs[2].CounterID)

	// 回傳的是拷貝，修改不影響內部狀態
	logs[0].Note = "tampered"
	again, _ := b.Logs(c.ID(), a1.ID)
	assert.Equal(t, "deposit", again[0].Note)
}

// TestConcurrentAccess 驗證多執行緒同時新增客戶、存款與產生報表時資料一致。
func TestConcurrentAccess(t *testing.T) {
	b := NewBank()
	c := NewCustomer("Ann")
	b.AddCustomer(c)
	a, err := b.OpenAccount(c.ID(), "savings", SimpleInterest{AnnualRate: dec("0.365")}, decimal.Zero)
	require.NoError(t, err)

	const workers = 100
	var wg sync.WaitGroup
	wg.Add(3 * workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, err := b.Deposit(c.ID(), a.ID, dec("1")); err != nil {
				t.Errorf("deposit err: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			b.AddCustomer(NewCustomer("x"))
		}()
		go func() {
			defer wg.Done()
			_ = b.CustomerSummary()
			_ = b.TotalInterestPaid(1)
		}()
	}
	wg.Wait()

	assert.Equal(t, workers+1, b.NumberOfCustomers())
	accounts, err := b.Accounts(c.ID())
	require.NoError(t, err)
	assertDecimal(t, "100", accounts[0].Balance)
	// 100 * 0.365 * 1 / 365 = 0.10
	assertDecimal(t, "0.1", b.TotalInterestPaid(1))
}

// TestSnapshotRestore 驗證快照匯出與還原：順序、餘額、規則與日誌皆一致。
func TestSnapshotRestore(t *testing.T) {
	b := NewBank()
	ann := NewCustomer("Ann")
	bob := NewCustomer("Bob")
	b.AddCustomer(ann)
	b.AddCustomer(bob)
	s1, err := b.OpenAccount(ann.ID(), "savings", SimpleInterest{AnnualRate: dec("0.05")}, dec("1000"))
	require.NoError(t, err)
	s2, err := b.OpenAccount(ann.ID(), "maxi", DailyCompound{AnnualRate: dec("0.365")}, dec("1000"))
	require.NoError(t, err)
	_, err = b.OpenAccount(bob.ID(), "checking", nil, dec("5"))
	require.NoError(t, err)
	require.NoError(t, b.Transfer(ann.ID(), s1.ID, s2.ID, dec("0.5")))

	snap, err := b.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.Customers, 2)
	assert.Equal(t, "Ann", snap.Customers[0].Name)
	require.NotNil(t, snap.Customers[0].Accounts[0].Rule)
	assert.Equal(t, RuleSimple, snap.Customers[0].Accounts[0].Rule.Kind)
	assert.Nil(t, snap.Customers[1].Accounts[0].Rule)

	b2 := NewBank()
	require.NoError(t, b2.Restore(snap))
	assert.Equal(t, b.CustomerSummary(), b2.CustomerSummary())
	assert.Equal(t, b.FirstCustomer(), b2.FirstCustomer())
	assert.True(t, b.TotalInterestPaid(30).Equal(b2.TotalInterestPaid(30)))

	l1, _ := b.Logs(ann.ID(), s1.ID)
	l1r, err := b2.Logs(ann.ID(), s1.ID)
	require.NoError(t, err)
	assert.Equal(t, len(l1), len(l1r))
}

type opaqueRule struct{}

func (opaqueRule) Interest(decimal.Decimal, int) decimal.Decimal { return decimal.Zero }

func TestSnapshotRejectsCustomRule(t *testing.T) {
	b := NewBank()
	c := NewCustomer("Ann")
	b.AddCustomer(c)
	_, err := b.OpenAccount(c.ID(), "custom", opaqueRule{}, decimal.Zero)
	require.NoError(t, err)

	_, err = b.Snapshot()
	assert.ErrorIs(t, err, ErrUnknownRule)
}

func TestRestoreBadRuleKeepsState(t *testing.T) {
	b := NewBank()
	b.AddCustomer(NewCustomer("Ann"))
	snap, err := b.Snapshot()
	require.NoError(t, err)

	other := NewBank()
	require.NoError(t, other.Restore(snap))
	bad := snap
	bad.Customers = append(bad.Customers[:0:0], snap.Customers...)
	bad.Customers[0].Accounts = []storage.PersistAccount{{
		ID:      "a-x",
		Kind:    "savings",
		Balance: dec("1"),
		Rule:    &storage.PersistRule{Kind: "weird", Rate: dec("0.01")},
	}}

	err = other.Restore(bad)
	assert.ErrorIs(t, err, ErrUnknownRule)
	assert.Equal(t, "Customer Summary\n - Ann (0 accounts)", other.CustomerSummary())
}

// TestRestoreRepeatedCustomer 驗證同一位客戶加入兩次後，還原的銀行仍共用同一份客戶資料。
func TestRestoreRepeatedCustomer(t *testing.T) {
	b := NewBank()
	ann := NewCustomer("Ann")
	b.AddCustomer(ann)
	b.AddCustomer(NewCustomer("Bob"))
	b.AddCustomer(ann)
	a, err := b.OpenAccount(ann.ID(), "savings", nil, dec("10"))
	require.NoError(t, err)

	snap, err := b.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.Customers, 3)
	assert.Equal(t, snap.Customers[0].ID, snap.Customers[2].ID)

	restored := NewBank()
	require.NoError(t, restored.Restore(snap))
	assert.Equal(t, 3, restored.NumberOfCustomers())
	assert.Equal(t, b.CustomerSummary(), restored.CustomerSummary())

	// 還原後的異動必須同時反映在兩個位置上
	_, err = restored.OpenAccount(ann.ID(), "checking", nil, decimal.Zero)
	require.NoError(t, err)
	_, err = restored.Deposit(ann.ID(), a.ID, dec("5"))
	require.NoError(t, err)
	assert.Equal(t, "Customer Summary\n - Ann (2 accounts)\n - Bob (0 accounts)\n - Ann (2 accounts)", restored.CustomerSummary())

	views := restored.Customers()
	assert.Equal(t, views[0], views[2])
}
