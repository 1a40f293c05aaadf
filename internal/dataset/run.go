package dataset

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Kalpithaac/enitity/internal/logger"
	"github.com/Kalpithaac/enitity/internal/types"
)

// Extractor is the per-document pipeline.
type Extractor interface {
	Process(ctx context.Context, req types.ExtractionRequest) (types.FieldValues, error)
}

// Result is one processed manifest entry.
type Result struct {
	Entry      Entry
	Values     types.FieldValues
	Error      string
	DurationMs int64
}

type RunOptions struct {
	Timeout     time.Duration // per document, 0 for none
	Concurrency int
}

// Run processes every entry and returns results in manifest order. A failed
// document is recorded in its Result; Run itself only fails when ctx is done.
func Run(ctx context.Context, proc Extractor, entries []Entry, opts RunOptions, log *logger.Logger) ([]Result, error) {
	if log == nil {
		log = logger.Nop()
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = 1
	}

	results := make([]Result, len(entries))
	for i, e := range entries {
		results[i] = Result{Entry: e, Error: "not processed"}
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, e := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = runOne(gctx, proc, e, opts.Timeout)
			entry := log.WithField("doc_id", e.ID).WithField("duration_ms", results[i].DurationMs)
			if results[i].Error != "" {
				entry.WithField("error", results[i].Error).Warn("document failed")
			} else {
				entry.Info("document processed")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func runOne(ctx context.Context, proc Extractor, e Entry, timeout time.Duration) Result {
	start := time.Now()
	res := Result{Entry: e}

	data, err := os.ReadFile(e.Path)
	if err != nil {
		res.Error = fmt.Sprintf("read file: %v", err)
		res.DurationMs = time.Since(start).Milliseconds()
		return res
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	values, err := proc.Process(ctx, types.ExtractionRequest{
		FileBase64: base64.StdEncoding.EncodeToString(data),
		Fields:     e.Fields,
	})
	if err != nil {
		res.Error = err.Error()
	}
	res.Values = values
	res.DurationMs = time.Since(start).Milliseconds()
	return res
}
