package model

import "time"

// RunStatus tracks the lifecycle of one analysis run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunRecord is one row of the run-history store.
type RunRecord struct {
	ID           string
	Source       string
	Field        string
	Contiguity   string
	Units        int
	Permutations int
	Alpha        float64
	Seed         int64
	Hotspots     int
	Coldspots    int
	Outliers     int
	NonSig       int
	DurationMs   int64
	Status       RunStatus
	Error        string
	CreatedAt    time.Time
}
