// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch runs a list of rank checks from a YAML job file, one after
// another, and records the outcomes.
package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pdiddy/shoprank/pkg/types"
)

// RankFinder runs a single rank check.
type RankFinder interface {
	FindRank(ctx context.Context, query string, target types.Target, maxPages int) (types.RankResult, error)
}

// Recorder persists a rank check result.
type Recorder interface {
	Save(ctx context.Context, r types.RankResult) (int64, error)
}

// Runner executes job files.
type Runner struct {
	Finder RankFinder

	// Recorder is optional; nil skips persistence.
	Recorder Recorder

	// Out receives one progress line per check; nil discards.
	Out io.Writer

	Logger *slog.Logger

	// Now stamps the summary; nil uses time.Now.
	Now func() time.Time
}

// Run executes the checks in jf sequentially. A failed check is counted and
// the run continues. Context cancellation stops the run and returns the
// outcomes gathered so far together with the context error.
func (r *Runner) Run(ctx context.Context, jf *JobFile) (*ResultsFile, error) {
	logger := r.logger()
	out := r.Out
	if out == nil {
		out = io.Discard
	}

	rf := &ResultsFile{}
	for i, c := range jf.Checks {
		if err := ctx.Err(); err != nil {
			rf.Summary.Timestamp = r.now()
			return rf, err
		}

		maxPages := jf.MaxPagesFor(c)
		logger.Info("batch check",
			slog.Int("index", i+1),
			slog.Int("total", len(jf.Checks)),
			slog.String("name", c.Label()),
			slog.Int("max_pages", maxPages),
		)

		result, err := r.Finder.FindRank(ctx, c.Query, c.Target(), maxPages)
		if err != nil {
			if ctx.Err() != nil {
				rf.Summary.Timestamp = r.now()
				return rf, ctx.Err()
			}
			logger.Warn("batch check failed", slog.String("name", c.Label()), slog.Any("error", err))
			rf.Outcomes = append(rf.Outcomes, Outcome{Check: c, Error: err.Error()})
			rf.Summary.Failed++
			fmt.Fprintf(out, "[%d/%d] %s: error: %v\n", i+1, len(jf.Checks), c.Label(), err)
			continue
		}

		if r.Recorder != nil {
			if _, err := r.Recorder.Save(ctx, result); err != nil {
				logger.Warn("saving batch result", slog.String("name", c.Label()), slog.Any("error", err))
			}
		}

		res := result
		rf.Outcomes = append(rf.Outcomes, Outcome{Check: c, Result: &res})
		if result.Found {
			rf.Summary.Found++
			fmt.Fprintf(out, "[%d/%d] %s: rank %d (page %d, position %d)\n",
				i+1, len(jf.Checks), c.Label(), result.TotalRank, result.Page, result.RankInPage)
		} else {
			rf.Summary.NotFound++
			fmt.Fprintf(out, "[%d/%d] %s: not found in %d pages\n",
				i+1, len(jf.Checks), c.Label(), result.SearchedPages)
		}
	}

	rf.Summary.Timestamp = r.now()
	logger.Info("batch finished",
		slog.Int("found", rf.Summary.Found),
		slog.Int("not_found", rf.Summary.NotFound),
		slog.Int("failed", rf.Summary.Failed),
	)
	return rf, nil
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.DiscardHandler)
}
