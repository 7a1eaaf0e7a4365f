package report

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/kvist-dev/bronzeload/pkg/bronzeload"
)

func sampleReport() *bronzeload.BatchReport {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	validated := int64(5)
	return &bronzeload.BatchReport{
		RunID:    uuid.MustParse("3f9c0a1e-5a2b-4d7c-9e8f-0123456789ab"),
		BasePath: "/data/landing",
		Start:    start,
		End:      start.Add(2300 * time.Millisecond),
		Results: []bronzeload.LoadResult{
			{
				Entry: bronzeload.LoadEntry{
					DestinationSchema: "bronze",
					DestinationTable:  "customers",
				},
				RowsLoaded: 3,
				Duration:   800 * time.Millisecond,
			},
			{
				Entry: bronzeload.LoadEntry{
					DestinationSchema: "bronze",
					DestinationTable:  "orders",
				},
				RowsLoaded:    4,
				RejectedLines: 2,
				Duration:      1500 * time.Millisecond,
				ValidatedRows: &validated,
			},
		},
	}
}

func TestRender_Plain(t *testing.T) {
	out := Render(sampleReport(), false)

	assert.Contains(t, out, "Batch run 3f9c0a1e-5a2b-4d7c-9e8f-0123456789ab")
	assert.Contains(t, out, "Base path: /data/landing")
	assert.Contains(t, out, "bronze.customers: 3 rows")
	assert.Contains(t, out, "bronze.orders: 4 rows")
	assert.Contains(t, out, "2 malformed lines rejected")
	assert.Contains(t, out, "2 tables, 7 rows in 2.3s")

	// Plain output carries no ANSI escape sequences.
	assert.NotContains(t, out, "\x1b[")
}

func TestRender_ValidatedCountMatchesIsSilent(t *testing.T) {
	r := sampleReport()
	matching := int64(3)
	r.Results[0].ValidatedRows = &matching
	r.Results = r.Results[:1]

	out := Render(r, false)
	assert.NotContains(t, out, "expected")
}

func TestRender_ValidatedCountMismatchIsReported(t *testing.T) {
	out := Render(sampleReport(), false)
	assert.Contains(t, out, "row count is 5, expected 4")
}
