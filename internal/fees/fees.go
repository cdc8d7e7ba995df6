// Package fees resolves the monthly fee state of a student.
package fees

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const monthLayout = "2006-01"

// MonthKey is the billing period key of t.
func MonthKey(t time.Time) string { return t.Format(monthLayout) }

// ParseMonthKey validates a "YYYY-MM" key.
func ParseMonthKey(s string) (string, error) {
	if _, err := time.Parse(monthLayout, s); err != nil {
		return "", fmt.Errorf("invalid month %q: %w", s, err)
	}
	return s, nil
}

// Status is the fee state for one month.
type Status struct {
	Month     string `json:"month"`
	IsPaid    bool   `json:"is_paid"`
	AmountDue string `json:"amount_due"`
}

// Resolve treats a month without a log entry as unpaid, and an empty fee as "0".
func Resolve(month, feeAmount string, log map[string]bool) Status {
	st := Status{Month: month, IsPaid: log[month], AmountDue: "0"}
	if fee := strings.TrimSpace(feeAmount); !st.IsPaid && fee != "" {
		st.AmountDue = fee
	}
	return st
}

// Entry is one ledger line.
type Entry struct {
	Month  string `json:"month"`
	IsPaid bool   `json:"is_paid"`
}

// Ledger lists every logged month, newest first.
func Ledger(log map[string]bool) []Entry {
	out := make([]Entry, 0, len(log))
	for m, paid := range log {
		out = append(out, Entry{Month: m, IsPaid: paid})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	return out
}
