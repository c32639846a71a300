// internal/bank/interest.go
//
// 利息計算規則。Account 只知道 InterestRule 介面，實際公式由規則決定，
// 呼叫端也可以注入自訂規則（但自訂規則無法寫入快照）。
//
// 內建規則皆以年利率 (AnnualRate) 表示，一年以 365 天計，
// 單一帳戶的利息四捨六入五成雙 (half-even) 至小數兩位；
// 跨帳戶、跨客戶的加總則一律以精確十進位相加，不再做任何捨入。

package bank

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// 內建規則名稱，同時作為快照中的 rule kind。
const (
	RuleSimple   = "simple"
	RuleCompound = "compound"
)

const (
	daysPerYear = 365
	// centPlaces 為單一帳戶利息的捨入位數。
	centPlaces = 2
	// powPlaces 為複利連乘時中間值保留的位數，避免位數無限增長。
	powPlaces = 24
)

var yearDays = decimal.NewFromInt(daysPerYear)

// InterestRule 依餘額與天數計算應計利息。
type InterestRule interface {
	Interest(balance decimal.Decimal, days int) decimal.Decimal
}

// SimpleInterest：balance × rate × days / 365。
type SimpleInterest struct {
	AnnualRate decimal.Decimal
}

func (r SimpleInterest) Interest(balance decimal.Decimal, days int) decimal.Decimal {
	if days <= 0 || !balance.IsPositive() {
		return decimal.Zero
	}
	return balance.Mul(r.AnnualRate).
		Mul(decimal.NewFromInt(int64(days))).
		Div(yearDays).
		RoundBank(centPlaces)
}

// DailyCompound 以日複利計息：balance × ((1 + rate/365)^days − 1)。
type DailyCompound struct {
	AnnualRate decimal.Decimal
}

func (r DailyCompound) Interest(balance decimal.Decimal, days int) decimal.Decimal {
	if days <= 0 || !balance.IsPositive() {
		return decimal.Zero
	}
	daily := decimal.NewFromInt(1).Add(r.AnnualRate.DivRound(yearDays, powPlaces))
	factor := powInt(daily, days)
	return balance.Mul(factor.Sub(decimal.NewFromInt(1))).RoundBank(centPlaces)
}

// powInt 以平方乘法計算 base^n（n > 0）。
func powInt(base decimal.Decimal, n int) decimal.Decimal {
	result := decimal.NewFromInt(1)
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base).Round(powPlaces)
		}
		base = base.Mul(base).Round(powPlaces)
		n >>= 1
	}
	return result
}

// RuleFromSpec 依規則名稱與年利率建立內建規則；年利率不得為負。
func RuleFromSpec(kind string, rate decimal.Decimal) (InterestRule, error) {
	if rate.IsNegative() {
		return nil, fmt.Errorf("rate %s: %w", rate, ErrBadAmount)
	}
	switch kind {
	case RuleSimple:
		return SimpleInterest{AnnualRate: rate}, nil
	case RuleCompound:
		return DailyCompound{AnnualRate: rate}, nil
	default:
		return nil, fmt.Errorf("%q: %w", kind, ErrUnknownRule)
	}
}

// ruleSpec 為 RuleFromSpec 的反向操作；nil 規則回傳 ok=false 且無錯誤。
func ruleSpec(r InterestRule) (kind string, rate decimal.Decimal, ok bool, err error) {
	switch v := r.(type) {
	case nil:
		return "", decimal.Zero, false, nil
	case SimpleInterest:
		return RuleSimple, v.AnnualRate, true, nil
	case DailyCompound:
		return RuleCompound, v.AnnualRate, true, nil
	default:
		return "", decimal.Zero, false, fmt.Errorf("%T: %w", r, ErrUnknownRule)
	}
}
