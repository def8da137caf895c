package jobs

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// FillPruner periodically deletes archived fills whose expiry lies further in
// the past than the retention window. An expired fill can never be submitted,
// so the archive only serves audit lookups.
type FillPruner struct {
	logger    *zap.Logger
	db        DBExecutor // small interface wrapper over pgxpool.Pool
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	stopCh    chan struct{}
}

// DBExecutor defines minimal subset of pgxpool.Pool needed for execution.
type DBExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const pruneQuery = `DELETE FROM activity.anthic_fill WHERE expires_at < $1`

// NewFillPruner constructs a background job that runs periodically.
func NewFillPruner(logger *zap.Logger, db DBExecutor, interval, retention time.Duration) *FillPruner {
	return &FillPruner{
		logger:    logger,
		db:        db,
		interval:  interval,
		retention: retention,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start runs the prune loop until Stop is called or ctx is done.
func (p *FillPruner) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("fill_pruner.started",
		zap.Duration("interval", p.interval),
		zap.Duration("retention", p.retention))

	for {
		select {
		case <-ticker.C:
			p.runOnce(ctx)
		case <-p.stopCh:
			p.logger.Info("fill_pruner.stopped (manual stop)")
			return
		case <-ctx.Done():
			p.logger.Info("fill_pruner.stopped (context canceled)")
			return
		}
	}
}

// Stop halts the pruner. It must be called at most once.
func (p *FillPruner) Stop() {
	close(p.stopCh)
}

// runOnce executes one prune cycle and returns the number of deleted fills.
func (p *FillPruner) runOnce(ctx context.Context) int64 {
	start := time.Now()
	cutoff := p.now().Add(-p.retention).UTC()

	tag, err := p.db.Exec(ctx, pruneQuery, cutoff)
	if err != nil {
		p.logger.Error("fill_pruner.prune_failed", zap.Error(err))
		return 0
	}

	p.logger.Info("fill_pruner.success",
		zap.Int64("deleted", tag.RowsAffected()),
		zap.Time("cutoff", cutoff),
		zap.Duration("duration", time.Since(start)))
	return tag.RowsAffected()
}
