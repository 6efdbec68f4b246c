package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"valcoin-api/internal/models"
)

var (
	daysPerYear     = decimal.NewFromInt(365)
	weeksPerYear    = decimal.NewFromInt(52)
	monthsPerYear   = decimal.NewFromInt(12)
	quartersPerYear = decimal.NewFromInt(4)
	hundred         = decimal.NewFromInt(100)
)

// IsPaymentDay decides whether today is a posting day for the given period,
// anchored on the account's start date.
//
// Monthly anchors on the start day-of-month; when the current month is too
// short (start on the 31st, today in February) the posting moves to the last
// day of the month. Quarterly additionally requires a whole number of
// quarters since the start month. At-maturity periods never hit here; their
// posting day is the maturity date itself, checked by the caller.
func IsPaymentDay(period models.PaymentPeriod, start, today time.Time) bool {
	switch period {
	case models.PeriodDaily:
		return true
	case models.PeriodWeekly:
		return today.Weekday() == start.Weekday()
	case models.PeriodMonthly:
		return isMonthlyAnchorDay(start, today)
	case models.PeriodQuarterly:
		monthDiff := (int(today.Month()) - int(start.Month()) + 12) % 12
		return monthDiff%3 == 0 && today.Day() == start.Day()
	default:
		return false
	}
}

func isMonthlyAnchorDay(start, today time.Time) bool {
	if today.Day() == start.Day() {
		return true
	}
	lastDay := daysInMonth(today.Year(), today.Month())
	return start.Day() > lastDay && today.Day() == lastDay
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// PeriodRate converts an annual percentage rate to the per-period rate.
func PeriodRate(period models.PaymentPeriod, annualRate decimal.Decimal) decimal.Decimal {
	switch period {
	case models.PeriodDaily:
		return annualRate.Div(daysPerYear)
	case models.PeriodWeekly:
		return annualRate.Div(weeksPerYear)
	case models.PeriodMonthly:
		return annualRate.Div(monthsPerYear)
	case models.PeriodQuarterly:
		return annualRate.Div(quartersPerYear)
	default:
		return decimal.Zero
	}
}

// PeriodicInterest returns balance x rate / 100 for one period, rounded to
// 2 decimals after the full computation.
func PeriodicInterest(balance, annualRate decimal.Decimal, period models.PaymentPeriod) decimal.Decimal {
	return balance.Mul(PeriodRate(period, annualRate)).Div(hundred).Round(2)
}

// MaturityInterest returns the single at-maturity posting:
// balance x (annual/100) x days-between(start, maturity)/365, rounded to 2
// decimals.
func MaturityInterest(balance, annualRate decimal.Decimal, start, maturity time.Time) decimal.Decimal {
	days := decimal.NewFromInt(int64(daysBetween(start, maturity)))
	return balance.
		Mul(annualRate.Div(hundred)).
		Mul(days.Div(daysPerYear)).
		Round(2)
}

// SameDate compares two instants on their calendar date only.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func daysBetween(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDay.Sub(fromDay).Hours() / 24)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
