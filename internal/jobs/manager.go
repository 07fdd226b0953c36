package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"
)

// CycleStats tracks statistics for a single execution cycle
type CycleStats struct {
	StartTime    time.Time      `json:"start_time"`
	EndTime      time.Time      `json:"end_time"`
	Duration     time.Duration  `json:"duration"`
	JobsRun      int            `json:"jobs_run"`
	JobsFailed   int            `json:"jobs_failed"`
	ItemsFound   map[string]int `json:"items_found"`   // job name -> count found
	ItemsRemoved map[string]int `json:"items_removed"` // job name -> count removed
	Errors       []string       `json:"errors,omitempty"`
}

// Manager runs registered jobs one after another
type Manager struct {
	logger    *slog.Logger
	jobs      []Job
	mu        sync.RWMutex
	lastStats *CycleStats
}

// NewManager creates a new job manager
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		logger: logger.With("component", "job_manager"),
		jobs:   make([]Job, 0),
	}
}

// RegisterJob adds a job to the manager's execution list
func (m *Manager) RegisterJob(job Job) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.jobs = append(m.jobs, job)
	m.logger.Info("registered job", "job", job.Name())
}

// RunAll executes all enabled jobs - GRACEFUL: continues on error
func (m *Manager) RunAll(ctx context.Context) error {
	m.mu.RLock()
	jobs := slices.Clone(m.jobs)
	m.mu.RUnlock()

	stats := &CycleStats{
		StartTime:    time.Now(),
		ItemsFound:   make(map[string]int),
		ItemsRemoved: make(map[string]int),
		Errors:       make([]string, 0),
	}

	var failedJobs []string

	for _, job := range jobs {
		if !job.Enabled() {
			m.logger.Debug("skipping disabled job", "job", job.Name())
			continue
		}

		m.logger.Info("running job", "job", job.Name())
		stats.JobsRun++

		if err := job.Run(ctx); err != nil {
			m.logger.Error("job failed, continuing", "job", job.Name(), "error", err)
			failedJobs = append(failedJobs, job.Name())
			stats.JobsFailed++
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", job.Name(), err))
			// CONTINUE - don't terminate!
		} else {
			m.logger.Debug("job completed successfully", "job", job.Name())
		}

		if sj, ok := job.(StatsJob); ok {
			jobStats := sj.Stats()
			stats.ItemsFound[job.Name()] = jobStats.Found
			stats.ItemsRemoved[job.Name()] = jobStats.Removed
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	m.mu.Lock()
	m.lastStats = stats
	m.mu.Unlock()

	m.logCycleSummary(stats)

	if len(failedJobs) > 0 {
		return fmt.Errorf("%d jobs failed: %v", len(failedJobs), failedJobs)
	}

	return nil
}

// JobResult represents the result of a single job for structured logging
type JobResult struct {
	Found   int `json:"found"`
	Removed int `json:"removed"`
}

// logCycleSummary outputs a summary of the execution cycle as structured log
func (m *Manager) logCycleSummary(stats *CycleStats) {
	totalFound := 0
	totalRemoved := 0
	for _, v := range stats.ItemsFound {
		totalFound += v
	}
	for _, v := range stats.ItemsRemoved {
		totalRemoved += v
	}

	jobResults := make(map[string]JobResult)
	for jobName, found := range stats.ItemsFound {
		removed := stats.ItemsRemoved[jobName]
		if found > 0 || removed > 0 {
			jobResults[jobName] = JobResult{Found: found, Removed: removed}
		}
	}

	m.logger.Info("cycle complete",
		slog.Group("cycle",
			slog.Duration("duration", stats.Duration.Round(time.Millisecond)),
			slog.Int("jobs_run", stats.JobsRun),
			slog.Int("jobs_failed", stats.JobsFailed),
		),
		slog.Group("totals",
			slog.Int("found", totalFound),
			slog.Int("removed", totalRemoved),
		),
		slog.Any("jobs", jobResults),
	)

	if len(stats.Errors) > 0 {
		m.logger.Warn("cycle errors",
			slog.Int("count", len(stats.Errors)),
			slog.Any("errors", stats.Errors),
		)
	}
}

// GetLastStats returns a copy of the statistics from the last execution cycle,
// or nil before the first cycle
func (m *Manager) GetLastStats() *CycleStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastStats == nil {
		return nil
	}

	stats := *m.lastStats
	stats.ItemsFound = maps.Clone(m.lastStats.ItemsFound)
	stats.ItemsRemoved = maps.Clone(m.lastStats.ItemsRemoved)
	stats.Errors = slices.Clone(m.lastStats.Errors)
	return &stats
}

// Jobs returns the names of registered jobs
func (m *Manager) Jobs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.jobs))
	for _, job := range m.jobs {
		names = append(names, job.Name())
	}
	return names
}
