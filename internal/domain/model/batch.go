package model

import "time"

type BatchMode string

const (
	BatchModeBrowser BatchMode = "browser" // drive the destination web UI
	BatchModeWebhook BatchMode = "webhook" // push products to an automation trigger
)

type BatchStatus string

const (
	BatchStatusQueued    BatchStatus = "queued"
	BatchStatusRunning   BatchStatus = "running"
	BatchStatusCompleted BatchStatus = "completed"
	BatchStatusFailed    BatchStatus = "failed" // setup-level failure before any unit ran
)

// MigrationBatch is the durable handle the control API hands back when a
// migration is enqueued.
type MigrationBatch struct {
	ID         string // UUID
	AccountKey string // destination account the batch logs into
	Mode       BatchMode
	Status     BatchStatus
	Total      int
	Succeeded  int
	Failed     int
	LastError  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	FinishedAt *time.Time
}

// BatchSummary is the aggregate result returned to the caller once every
// unit reached a terminal status.
type BatchSummary struct {
	BatchID   string       `json:"batch_id"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Results   []UnitResult `json:"results"`
}
