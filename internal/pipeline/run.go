package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/bizdash/internal/model"
	"github.com/theirongolddev/bizdash/internal/sheets"
	"github.com/theirongolddev/bizdash/internal/source"
)

// Result is the outcome of one pipeline run. Snapshot is always populated:
// on failure it holds the fallback data and Err says why.
type Result struct {
	Snapshot         model.Snapshot
	Err              error
	DroppedLines     int
	CoercionFailures int
	Duration         time.Duration
}

// Run fetches the export, parses it and aggregates metrics. Any fetch or
// parse failure yields the fallback snapshot together with the error.
func Run(ctx context.Context, src sheets.Source) (res Result) {
	start := time.Now()
	res.Snapshot = model.Snapshot{
		RunID:     uuid.NewString(),
		FetchedAt: start,
	}
	defer func() { res.Duration = time.Since(start) }()

	text, err := src.Fetch(ctx)
	if err != nil {
		res.useFallback(err)
		return res
	}

	parsed, err := source.Parse(text)
	res.DroppedLines = parsed.DroppedLines
	res.CoercionFailures = parsed.CoercionFailures
	if err != nil {
		res.useFallback(err)
		return res
	}

	res.Snapshot.Records = parsed.Records
	res.Snapshot.Metrics = Aggregate(parsed.Records)
	return res
}

func (r *Result) useFallback(err error) {
	records, metrics := Fallback()
	r.Err = err
	r.Snapshot.Fallback = true
	r.Snapshot.Records = records
	r.Snapshot.Metrics = metrics
}
