// Package export renders a group's walk log as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/marinarosell/dora-bot/internal/domain"
)

// Filename is the attachment name used when the CSV is sent over chat.
const Filename = "dora_walks.csv"

// Local timestamps are minute precision with offset, UTC ones full RFC3339.
const localLayout = "2006-01-02T15:04-07:00"

var header = []string{"timestamp_local", "timestamp_utc", "user", "poop"}

// Write streams the walk log as CSV, one row per walk ascending by
// timestamp. With no walks the output is the header alone: an empty
// table, not an error.
func Write(w io.Writer, walks []domain.Walk, loc *time.Location) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, walk := range walks {
		row := []string{
			walk.WalkedAt.In(loc).Format(localLayout),
			walk.WalkedAt.UTC().Format(time.RFC3339),
			walk.ReporterName,
			string(walk.Outcome),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
