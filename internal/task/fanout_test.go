package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestPlanChunksPartitionsRange(t *testing.T) {
	chunks := PlanChunks(day("2024-01-01"), day("2024-01-21"), 10)

	require.Len(t, chunks, 2)
	assert.Equal(t, day("2024-01-01"), chunks[0].Start)
	assert.Equal(t, day("2024-01-11"), chunks[0].End)
	assert.Equal(t, day("2024-01-12"), chunks[1].Start)
	// The last chunk is clamped to today instead of overshooting.
	assert.Equal(t, day("2024-01-21"), chunks[1].End)
}

func TestPlanChunksCoversEveryDayExactlyOnce(t *testing.T) {
	start, today := day("2023-11-03"), day("2024-02-17")
	chunks := PlanChunks(start, today, 7)
	require.NotEmpty(t, chunks)

	assert.Equal(t, start, chunks[0].Start)
	assert.Equal(t, today, chunks[len(chunks)-1].End)
	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, chunks[i-1].End.AddDate(0, 0, 1), chunks[i].Start,
			"chunk %d must start the day after the previous chunk ends", i)
	}
	for i, c := range chunks {
		assert.False(t, c.End.Before(c.Start), "chunk %d end before start", i)
		assert.False(t, c.End.After(today), "chunk %d overshoots today", i)
	}
}

func TestPlanChunksSingleDay(t *testing.T) {
	d := day("2024-06-01")
	chunks := PlanChunks(d, d, 30)
	require.Len(t, chunks, 1)
	assert.Equal(t, d, chunks[0].Start)
	assert.Equal(t, d, chunks[0].End)
}

func TestPlanChunksStartAfterToday(t *testing.T) {
	chunks := PlanChunks(day("2024-06-02"), day("2024-06-01"), 10)
	assert.Empty(t, chunks)
}

func TestPlanChunksTruncatesTimeOfDay(t *testing.T) {
	start := day("2024-01-01").Add(15 * time.Hour)
	today := day("2024-01-05").Add(90 * time.Minute)

	chunks := PlanChunks(start, today, 30)
	require.Len(t, chunks, 1)
	assert.Equal(t, day("2024-01-01"), chunks[0].Start)
	assert.Equal(t, day("2024-01-05"), chunks[0].End)
}
