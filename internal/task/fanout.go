package task

import "time"

// DateRange is one consecutive sub-range of a chunked backfill.
// Both endpoints are inclusive.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// PlanChunks partitions [start, today] into consecutive, non-overlapping
// sub-ranges, walking forward from start. Each sub-range ends at
// start + chunkDays, clamped to today; the next sub-range starts the day
// after the previous one ended. A start after today yields no chunks.
//
// Rate-limited providers only return a bounded window per call, so long
// backfills are split with this planner and each chunk becomes a child task.
func PlanChunks(start, today time.Time, chunkDays int) []DateRange {
	if chunkDays <= 0 {
		return nil
	}

	start = truncateToDay(start)
	today = truncateToDay(today)

	var chunks []DateRange
	for current := start; !current.After(today); {
		end := current.AddDate(0, 0, chunkDays)
		if end.After(today) {
			end = today
		}
		chunks = append(chunks, DateRange{Start: current, End: end})
		current = end.AddDate(0, 0, 1)
	}

	return chunks
}

// truncateToDay drops the time-of-day component.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
