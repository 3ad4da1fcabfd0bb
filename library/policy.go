package library

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Circulation policy defaults.
const (
	// MaxOpenLoans is the number of open loans a patron may hold. It is a
	// fixed rule and deliberately absent from Policy.
	MaxOpenLoans = 5

	LoanPeriod        = 14 * 24 * time.Hour
	FirstTierDays     = 7
	FirstTierDailyFee = Money(50)
	LaterDailyFee     = Money(100)
	MaxLateFee        = Money(1500)
)

// Money is an amount in cents.
type Money int64

// Dollars builds a Money value from whole dollars and cents.
func Dollars(d, c int64) Money { return Money(d*100 + c) }

// String renders the amount with exactly two decimals, e.g. "2.50".
func (m Money) String() string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%s%d.%02d", sign, int64(m)/100, int64(m)%100)
}

// MarshalJSON writes a JSON number with two decimals, never 2.5 or 2.4999.
func (m Money) MarshalJSON() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalJSON reads a decimal number back into cents.
func (m *Money) UnmarshalJSON(b []byte) error { return m.parse(string(b)) }

// MarshalYAML writes a float node with two decimals.
func (m Money) MarshalYAML() (any, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: m.String()}, nil
}

// UnmarshalYAML reads a decimal number back into cents.
func (m *Money) UnmarshalYAML(n *yaml.Node) error { return m.parse(n.Value) }

func (m *Money) parse(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse money %q: %w", s, err)
	}
	if f < 0 {
		*m = Money(f*100 - 0.5)
	} else {
		*m = Money(f*100 + 0.5)
	}
	return nil
}

// Policy carries the loan period and the late fee schedule.
type Policy struct {
	LoanPeriod        time.Duration
	FirstTierDays     int
	FirstTierDailyFee Money
	LaterDailyFee     Money
	MaxLateFee        Money
}

// DefaultPolicy returns the standard 14 day loan with $0.50/$1.00 tiers
// capped at $15.00.
func DefaultPolicy() Policy {
	return Policy{
		LoanPeriod:        LoanPeriod,
		FirstTierDays:     FirstTierDays,
		FirstTierDailyFee: FirstTierDailyFee,
		LaterDailyFee:     LaterDailyFee,
		MaxLateFee:        MaxLateFee,
	}
}

// Validate rejects schedules that would break fee monotonicity.
func (p Policy) Validate() error {
	switch {
	case p.LoanPeriod <= 0:
		return fmt.Errorf("loan period must be positive, got %s", p.LoanPeriod)
	case p.FirstTierDays < 0:
		return fmt.Errorf("first tier days must not be negative, got %d", p.FirstTierDays)
	case p.FirstTierDailyFee < 0 || p.LaterDailyFee < 0 || p.MaxLateFee < 0:
		return fmt.Errorf("fees must not be negative")
	}
	return nil
}

// DueDate is the due date of a loan starting at borrowed.
func (p Policy) DueDate(borrowed time.Time) time.Time { return borrowed.Add(p.LoanPeriod) }

// LateFee computes the capped, tiered fee for a number of overdue days.
func (p Policy) LateFee(daysOverdue int) Money {
	if daysOverdue <= 0 {
		return 0
	}
	first := min(daysOverdue, p.FirstTierDays)
	later := max(0, daysOverdue-p.FirstTierDays)
	fee := Money(first)*p.FirstTierDailyFee + Money(later)*p.LaterDailyFee
	return min(fee, p.MaxLateFee)
}

// DaysOverdue counts whole days elapsed since due, truncated, never negative.
func DaysOverdue(due, now time.Time) int {
	if !now.After(due) {
		return 0
	}
	return int(now.Sub(due) / (24 * time.Hour))
}
