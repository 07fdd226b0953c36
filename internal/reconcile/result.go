// Package reconcile compares catalog assets against the filesystem and trashes
// the ones whose files are gone.
package reconcile

import (
	"time"

	"github.com/jmylchreest/immich-offline-remover/internal/jobs"
)

// Action is what a run ended up doing
type Action string

const (
	ActionNone      Action = ""          // no run has finished yet
	ActionSkipped   Action = "skipped"   // no assets, or nothing missing
	ActionAborted   Action = "aborted"   // safety threshold exceeded
	ActionPreviewed Action = "previewed" // dry run
	ActionDeleted   Action = "deleted"
	ActionFailed    Action = "failed" // delete request rejected or not sent
)

// Result summarises one run. It only lives in memory.
type Result struct {
	Total      int           `json:"total"`
	Missing    int           `json:"missing"`
	Deleted    int           `json:"deleted"`
	Ratio      float64       `json:"ratio"`
	Action     Action        `json:"action"`
	Duration   time.Duration `json:"duration"`
	FinishedAt time.Time     `json:"finished_at"`
}

var _ jobs.StatsJob = (*Job)(nil)
