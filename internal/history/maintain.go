// Package history trims a group's purchase history once a month and groups
// records into month or week buckets for display.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/basket/internal/model"
)

var ErrNoGroup = errors.New("no active group")

const deleteConcurrency = 4

// Backend lists and deletes history records for a group.
type Backend interface {
	ListHistory(ctx context.Context, code string) ([]model.HistoryRecord, error)
	DeleteHistory(ctx context.Context, code, id string) error
}

// Session supplies the active group and remembers when cleanup last ran.
type Session interface {
	GroupCode() string
	LastCleanup() time.Time
	SetLastCleanup(t time.Time) error
}

type Result struct {
	Skipped bool
	Scanned int
	Deleted int
	Failed  int
	Cutoff  time.Time

	// Failures combines the individual delete errors, if any.
	Failures error
}

type Maintainer struct {
	backend Backend
	session Session
	logger  *slog.Logger
}

func NewMaintainer(backend Backend, session Session, logger *slog.Logger) *Maintainer {
	return &Maintainer{
		backend: backend,
		session: session,
		logger:  logger.With("component", "history"),
	}
}

// Cutoff returns the first instant of the calendar month before now, in
// now's location.
func Cutoff(now time.Time) time.Time {
	y, m, _ := now.Date()
	return time.Date(y, m-1, 1, 0, 0, 0, 0, now.Location())
}

func sameMonth(a, b time.Time) bool {
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	return ay == by && am == bm
}

// Run deletes the active group's records created before Cutoff(now), at most
// once per calendar month. Deletes are independent: failures are logged and
// counted and never stop the rest. The cleanup time is stamped even when some
// deletes fail.
func (m *Maintainer) Run(ctx context.Context, now time.Time) (Result, error) {
	last := m.session.LastCleanup()
	if !last.IsZero() && sameMonth(last.In(now.Location()), now) {
		m.logger.Debug("cleanup already done this month", "last", last)
		return Result{Skipped: true}, nil
	}

	code := m.session.GroupCode()
	if code == "" {
		return Result{}, ErrNoGroup
	}

	records, err := m.backend.ListHistory(ctx, code)
	if err != nil {
		m.logger.Error("list history", "group", code, "error", err)
		return Result{}, fmt.Errorf("list history: %w", err)
	}

	cutoff := Cutoff(now)
	res := Result{Scanned: len(records), Cutoff: cutoff}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(deleteConcurrency)
	for _, rec := range records {
		if rec.CreatedAt.IsZero() || !rec.CreatedAt.Before(cutoff) {
			continue
		}
		g.Go(func() error {
			err := m.backend.DeleteHistory(gctx, code, rec.ID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				m.logger.Warn("delete history record", "group", code, "record", rec.ID, "error", err)
				res.Failed++
				res.Failures = multierr.Append(res.Failures, fmt.Errorf("delete %s: %w", rec.ID, err))
				return nil
			}
			res.Deleted++
			return nil
		})
	}
	_ = g.Wait()

	if err := m.session.SetLastCleanup(now); err != nil {
		return res, fmt.Errorf("save cleanup time: %w", err)
	}

	m.logger.Info("history cleanup complete",
		"group", code,
		"cutoff", cutoff.Format(time.DateOnly),
		"scanned", res.Scanned,
		"deleted", res.Deleted,
		"failed", res.Failed,
	)
	return res, nil
}
