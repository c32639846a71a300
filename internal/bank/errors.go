// internal/bank/errors.go
//
// 本檔集中定義「領域錯誤（domain errors）」。
// 報表類操作（摘要、利息合計、客戶數）皆為全函式，不會回傳錯誤；
// 只有帳戶異動與快照轉換會用到以下錯誤，上層以 errors.Is 判斷。

package bank

import "errors"

var (
	// ErrCustomerNotFound 代表客戶不存在。
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrAccountNotFound 代表帳戶不存在（或不屬於該客戶）。
	ErrAccountNotFound = errors.New("account not found")

	// ErrBadAmount 代表金額非法（<=0 或初始餘額為負）。
	ErrBadAmount = errors.New("amount must be > 0")

	// ErrInsufficient 代表餘額不足，導致提款或轉帳失敗。
	ErrInsufficient = errors.New("insufficient balance")

	// ErrSameAccount 代表轉帳來源與目標帳戶相同。
	ErrSameAccount = errors.New("from and to are same")

	// ErrUnknownRule 代表利息規則無法由快照描述或還原。
	ErrUnknownRule = errors.New("unknown interest rule")
)
