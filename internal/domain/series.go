package domain

import (
	"fmt"
	"sort"
	"time"
)

// AggregateSeries assembles per-frame summaries into one series ordered
// by ascending timestamp. Ties in the sort are broken by input order,
// but two points sharing an identical timestamp are rejected with
// ErrDuplicateTimestamp: trend fitting assumes strictly monotonic time,
// so a duplicate is a simulator defect and fails the whole call.
func AggregateSeries(frames []IndexFrame) ([]TimeSeriesPoint, error) {
	points := make([]TimeSeriesPoint, len(frames))
	for i, f := range frames {
		points[i] = SummarizePoint(f)
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	for i := 1; i < len(points); i++ {
		if points[i].Date.Equal(points[i-1].Date) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTimestamp, points[i].Date.Format(time.RFC3339))
		}
	}
	return points, nil
}
