package library

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLateFeeBoundaries(t *testing.T) {
	p := DefaultPolicy()
	cases := map[int]string{
		-3: "0.00",
		0:  "0.00",
		1:  "0.50",
		5:  "2.50",
		7:  "3.50",
		8:  "4.50",
		10: "6.50",
		18: "14.50",
		19: "15.00",
		30: "15.00",
		99: "15.00",
	}
	for days, want := range cases {
		assert.Equal(t, want, p.LateFee(days).String(), "days=%d", days)
	}
}

func TestLateFeeMonotoneAndCapped(t *testing.T) {
	p := DefaultPolicy()
	prev := p.LateFee(0)
	for d := 1; d <= 400; d++ {
		fee := p.LateFee(d)
		assert.GreaterOrEqual(t, fee, prev, "days=%d", d)
		assert.LessOrEqual(t, fee, MaxLateFee, "days=%d", d)
		prev = fee
	}
}

func TestDaysOverdue(t *testing.T) {
	due := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	assert.Zero(t, DaysOverdue(due, due.Add(-48*time.Hour)))
	assert.Zero(t, DaysOverdue(due, due))
	assert.Zero(t, DaysOverdue(due, due.Add(23*time.Hour+59*time.Minute)))
	assert.Equal(t, 1, DaysOverdue(due, due.Add(24*time.Hour)))
	assert.Equal(t, 10, DaysOverdue(due, due.Add(10*24*time.Hour+time.Hour)))
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	require.NoError(t, p.Validate())
	assert.Equal(t, 14*24*time.Hour, p.LoanPeriod)
	assert.Equal(t, Dollars(0, 50), p.FirstTierDailyFee)
	assert.Equal(t, Dollars(1, 0), p.LaterDailyFee)
	assert.Equal(t, Dollars(15, 0), p.MaxLateFee)
	assert.Equal(t, 5, MaxOpenLoans)

	bad := p
	bad.LoanPeriod = 0
	assert.Error(t, bad.Validate())
	bad = p
	bad.MaxLateFee = -1
	assert.Error(t, bad.Validate())
}

func TestMoneyEncoding(t *testing.T) {
	b, err := json.Marshal(struct {
		Fee Money `json:"fee"`
	}{Dollars(6, 50)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"fee": 6.50}`, string(b))
	assert.Contains(t, string(b), "6.50")

	var m Money
	require.NoError(t, json.Unmarshal([]byte("0.29"), &m))
	assert.Equal(t, Money(29), m)

	out, err := yaml.Marshal(map[string]Money{"fee": Dollars(15, 0)})
	require.NoError(t, err)
	assert.Equal(t, "fee: 15.00\n", string(out))

	require.NoError(t, yaml.Unmarshal([]byte("1.5"), &m))
	assert.Equal(t, Dollars(1, 50), m)

	assert.Equal(t, "-0.05", Money(-5).String())
}
