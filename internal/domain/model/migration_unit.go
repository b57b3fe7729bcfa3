package model

import "time"

type UnitStatus string

const (
	UnitStatusQueued    UnitStatus = "queued"
	UnitStatusRunning   UnitStatus = "running"
	UnitStatusSucceeded UnitStatus = "succeeded"
	UnitStatusFailed    UnitStatus = "failed"
)

// Terminal reports whether the status cannot change anymore.
func (s UnitStatus) Terminal() bool {
	return s == UnitStatusSucceeded || s == UnitStatusFailed
}

// MigrationUnit is one product's migration lifecycle. The retry coordinator
// owns it exclusively between queued and a terminal status.
type MigrationUnit struct {
	ID        string // UUID
	BatchID   string
	Product   Product
	Status    UnitStatus
	Attempts  int    // 0..policy.MaxAttempts
	LastError string // short human-readable reason on failure
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UnitResult is the per-unit line of a batch summary.
type UnitResult struct {
	UnitID   string     `json:"unit_id"`
	SourceID string     `json:"source_id"`
	Title    string     `json:"title"`
	Status   UnitStatus `json:"status"`
	Attempts int        `json:"attempts"`
	Reason   string     `json:"reason,omitempty"`
}
