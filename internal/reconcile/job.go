package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jmylchreest/immich-offline-remover/internal/catalog"
	"github.com/jmylchreest/immich-offline-remover/internal/immich"
	"github.com/jmylchreest/immich-offline-remover/internal/jobs"
	"github.com/jmylchreest/immich-offline-remover/internal/metrics"
)

// JobName identifies the reconciliation job in logs and stats
const JobName = "remove_offline_assets"

// AssetSource lists catalog assets matching path patterns
type AssetSource interface {
	FindAssets(ctx context.Context, patterns []string) ([]catalog.Asset, error)
}

// Deleter moves assets to the trash
type Deleter interface {
	DeleteAssets(ctx context.Context, ids []uuid.UUID) error
}

// Options controls which assets are considered and what happens to missing ones
type Options struct {
	Patterns        []string
	DryRun          bool
	MaxMissingRatio float64
}

// Job reconciles the catalog against the filesystem and trashes offline assets
type Job struct {
	opts    Options
	source  AssetSource
	checker *Checker
	deleter Deleter
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time

	mu   sync.Mutex
	last Result
}

// NewJob creates a reconciliation job. deleter may be nil when opts.DryRun is set.
func NewJob(
	opts Options,
	source AssetSource,
	checker *Checker,
	deleter Deleter,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Job {
	if logger == nil {
		logger = slog.Default()
	}
	if checker == nil {
		checker = NewChecker(nil)
	}

	return &Job{
		opts:    opts,
		source:  source,
		checker: checker,
		deleter: deleter,
		metrics: m,
		logger:  logger.With("job", JobName),
		now:     time.Now,
	}
}

// Name returns the job name
func (j *Job) Name() string {
	return JobName
}

// Enabled returns whether the job is enabled
func (j *Job) Enabled() bool {
	return true
}

// Run executes one reconciliation. Failures are logged and recorded in the
// result; Run itself only returns nil so the schedule keeps going.
func (j *Job) Run(ctx context.Context) error {
	start := j.now()
	result := j.reconcile(ctx)
	result.Duration = j.now().Sub(start)
	result.FinishedAt = j.now()

	j.mu.Lock()
	j.last = result
	j.mu.Unlock()

	j.metrics.ObserveRun(metrics.RunObservation{
		Action:   string(result.Action),
		Total:    result.Total,
		Missing:  result.Missing,
		Deleted:  result.Deleted,
		Ratio:    result.Ratio,
		Duration: result.Duration,
		At:       result.FinishedAt,
	})

	return nil
}

func (j *Job) reconcile(ctx context.Context) Result {
	j.logger.InfoContext(ctx, "starting scheduled scan",
		"dry_run", j.opts.DryRun,
		"patterns", j.opts.Patterns,
		"max_missing_ratio", j.opts.MaxMissingRatio)

	assets, err := j.source.FindAssets(ctx, j.opts.Patterns)
	if err != nil {
		j.logSourceError(ctx, err)
		assets = nil
	}

	if len(assets) == 0 {
		j.logger.WarnContext(ctx, "No assets found in database")
		return Result{Action: ActionSkipped}
	}

	missing, _ := j.checker.Partition(assets)
	decision := Evaluate(len(assets), len(missing), j.opts.MaxMissingRatio)
	result := Result{
		Total:   len(assets),
		Missing: len(missing),
		Ratio:   decision.Ratio,
	}

	j.logger.InfoContext(ctx, fmt.Sprintf("%d missing of %d assets (%s)", result.Missing, result.Total, formatRatio(result.Ratio)),
		"missing", result.Missing,
		"total", result.Total,
		"ratio", formatRatio(result.Ratio))

	switch decision.Verdict {
	case NothingMissing:
		j.logger.InfoContext(ctx, "no missing assets found")
		result.Action = ActionSkipped
		return result

	case Abort:
		j.logger.WarnContext(ctx, "missing ratio too high, aborting",
			"ratio", formatRatio(result.Ratio),
			"max_ratio", formatRatio(j.opts.MaxMissingRatio),
			"missing", result.Missing,
			"total", result.Total)
		result.Action = ActionAborted
		return result
	}

	if j.opts.DryRun {
		j.logger.InfoContext(ctx, "[DRY RUN] would delete assets", "count", len(missing))
		for _, asset := range missing {
			j.logger.DebugContext(ctx, "preview", "id", asset.ID, "path", asset.Path)
		}
		result.Action = ActionPreviewed
		return result
	}

	j.logger.InfoContext(ctx, "proceeding to delete assets via API", "count", len(missing))

	if err := j.delete(ctx, missing); err != nil {
		j.logDeleteError(ctx, err, len(missing))
		result.Action = ActionFailed
		return result
	}

	j.logger.InfoContext(ctx, "assets trashed", "count", len(missing))
	result.Deleted = len(missing)
	result.Action = ActionDeleted
	return result
}

func (j *Job) delete(ctx context.Context, missing []catalog.Asset) error {
	if j.deleter == nil {
		return errors.New("no deletion client configured")
	}

	ids := make([]uuid.UUID, 0, len(missing))
	for _, asset := range missing {
		ids = append(ids, asset.ID)
	}
	return j.deleter.DeleteAssets(ctx, ids)
}

func (j *Job) logSourceError(ctx context.Context, err error) {
	var connErr *catalog.ConnectionError
	if errors.As(err, &connErr) {
		j.logger.ErrorContext(ctx, "database connection failed",
			"error", err,
			"host", connErr.Host,
			"port", connErr.Port,
			"database", connErr.Database,
			"user", connErr.User,
			"hint", connErr.Hint())
		return
	}
	j.logger.ErrorContext(ctx, "database query failed", "error", err)
}

func (j *Job) logDeleteError(ctx context.Context, err error, count int) {
	var apiErr *immich.APIError
	if errors.As(err, &apiErr) {
		j.logger.ErrorContext(ctx, "API error",
			"status", apiErr.StatusCode,
			"body", apiErr.Body,
			"count", count)
		return
	}
	j.logger.ErrorContext(ctx, "failed to delete assets", "error", err, "count", count)
}

// LastResult returns the result of the most recent run. Before the first run
// the zero Result is returned, with Action set to ActionNone.
func (j *Job) LastResult() Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last
}

// Stats returns the statistics from the last job run
func (j *Job) Stats() jobs.JobStats {
	last := j.LastResult()
	return jobs.JobStats{
		Found:   last.Missing,
		Removed: last.Deleted,
	}
}

func formatRatio(r float64) string {
	return fmt.Sprintf("%.2f%%", r*100)
}
