package model

import "time"

// Shift is a bounded work session linking a cashier to a branch. Rows are
// never deleted; closing sets EndTime and a later shift for the same pair is
// a new row, not a reopen. At most one open row may exist per (cashier,
// branch) pair at any time.
type Shift struct {
	ID        string     `json:"id"`
	CashierID string     `json:"cashierId"`
	BranchID  string     `json:"branchId"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
}

// Active reports whether the shift is still open.
func (s Shift) Active() bool { return s.EndTime == nil }
