// Package report renders the end-of-run batch summary.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/kvist-dev/bronzeload/pkg/bronzeload"
)

// Render formats a batch summary. With styled=false the output is plain
// text suitable for logs and CI; with styled=true it uses colors and a
// box border.
func Render(r *bronzeload.BatchReport, styled bool) string {
	var b strings.Builder

	title := fmt.Sprintf("Batch run %s", r.RunID)
	if styled {
		title = TitleStyle.Render(title)
	}
	b.WriteString(title)
	b.WriteString("\n")

	base := fmt.Sprintf("Base path: %s", r.BasePath)
	if styled {
		base = MutedStyle.Render(base)
	}
	b.WriteString(base)
	b.WriteString("\n\n")

	for _, res := range r.Results {
		b.WriteString(renderResult(res, styled))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	total := fmt.Sprintf("%d tables, %d rows in %s",
		len(r.Results), r.TotalRows(), r.Duration().Round(time.Millisecond))
	if styled {
		total = TitleStyle.Render(total)
	}
	b.WriteString(total)

	if styled {
		return BoxStyle.Render(b.String())
	}
	return b.String()
}

func renderResult(res bronzeload.LoadResult, styled bool) string {
	line := fmt.Sprintf("%s %s: %d rows (%s)",
		SymbolCheck, res.Entry.Destination(), res.RowsLoaded, res.Duration.Round(time.Millisecond))
	if styled {
		line = SuccessStyle.Render(line)
	}

	var notes []string
	if res.RejectedLines > 0 {
		note := fmt.Sprintf("  %d malformed lines rejected", res.RejectedLines)
		if styled {
			note = WarningStyle.Render(note)
		}
		notes = append(notes, note)
	}
	if res.ValidatedRows != nil && *res.ValidatedRows != res.RowsLoaded {
		note := fmt.Sprintf("  row count is %d, expected %d", *res.ValidatedRows, res.RowsLoaded)
		if styled {
			note = WarningStyle.Render(note)
		}
		notes = append(notes, note)
	}

	if len(notes) == 0 {
		return line
	}
	return line + "\n" + strings.Join(notes, "\n")
}
