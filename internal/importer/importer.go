// Package importer commits validated roster rows to the worker store and
// tracks the state of one import session.
package importer

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/nconklindev/workerimport/internal/store"
	"github.com/nconklindev/workerimport/internal/types"
)

const maxStoredFailures = 100

var ErrNoOrganization = errors.New("organization id is required")

// Creator is the external "create worker record" operation.
type Creator interface {
	CreateWorker(ctx context.Context, w *store.Worker) error
}

// Target identifies where imported workers are created.
type Target struct {
	OrganizationID uuid.UUID
	SiteID         *uuid.UUID
}

// Validate reports ErrNoOrganization when no organization is set.
func (t Target) Validate() error {
	if t.OrganizationID == uuid.Nil {
		return ErrNoOrganization
	}
	return nil
}

type Config struct {
	// Concurrency bounds how many create calls are in flight. 1 keeps the
	// commit strictly sequential and in source order.
	Concurrency int
	// CreateTimeout bounds a single create call; zero means no limit.
	CreateTimeout time.Duration
	// OnComplete receives the success count once every valid row was
	// attempted. It is not called for a cancelled run.
	OnComplete func(success int)
}

type Importer struct {
	creator Creator
	cfg     Config
	logger  zerolog.Logger
}

func New(creator Creator, cfg Config, logger zerolog.Logger) *Importer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Importer{creator: creator, cfg: cfg, logger: logger}
}

// Commit creates one worker per valid row. A failed create is logged and
// counted and the run moves on; nothing is retried or rolled back. onProgress
// receives round(completed/valid*100) after every row and never decreases.
//
// Cancelling ctx stops new rows from starting; the partial result is returned
// with the context error and unstarted rows are counted as Skipped.
func (im *Importer) Commit(ctx context.Context, target Target, rows []types.ParsedRow, onProgress func(percent int)) (types.ImportResult, error) {
	if err := target.Validate(); err != nil {
		return types.ImportResult{}, err
	}

	valid := make([]types.ParsedRow, 0, len(rows))
	for _, r := range rows {
		if r.IsValid {
			valid = append(valid, r)
		}
	}

	var (
		mu        sync.Mutex
		result    types.ImportResult
		completed int
	)
	total := len(valid)
	start := time.Now()

	finish := func(row types.ParsedRow, err error) {
		mu.Lock()
		defer mu.Unlock()

		completed++
		if err != nil {
			result.Failed++
			if len(result.Failures) < maxStoredFailures {
				result.Failures = append(result.Failures, types.ImportFailure{Row: row.Row, Reason: err.Error()})
			}
			im.logger.Error().Err(err).Int("row", row.Row).Msg("create worker failed")
		} else {
			result.Success++
		}

		if onProgress != nil {
			onProgress(Percent(completed, total))
		}
	}

	sem := semaphore.NewWeighted(int64(im.cfg.Concurrency))
	var wg sync.WaitGroup

	started := 0
	for _, row := range valid {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		if ctx.Err() != nil {
			sem.Release(1)
			break
		}
		started++
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			finish(row, im.create(ctx, target, row))
		}()
	}
	wg.Wait()

	result.Skipped = total - started
	if total == 0 && onProgress != nil {
		onProgress(100)
	}

	evt := im.logger.Info()
	if result.Failed > 0 || result.Skipped > 0 {
		evt = im.logger.Warn()
	}
	evt.Int("valid", total).
		Int("success", result.Success).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Dur("elapsed", time.Since(start)).
		Msg("import finished")

	if result.Skipped > 0 {
		return result, ctx.Err()
	}

	if im.cfg.OnComplete != nil {
		im.cfg.OnComplete(result.Success)
	}
	return result, nil
}

func (im *Importer) create(ctx context.Context, target Target, row types.ParsedRow) error {
	if im.cfg.CreateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, im.cfg.CreateTimeout)
		defer cancel()
	}
	return im.creator.CreateWorker(ctx, store.WorkerFromRow(target.OrganizationID, target.SiteID, row))
}

// Percent is round(done/total*100); an empty batch is complete.
func Percent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}
