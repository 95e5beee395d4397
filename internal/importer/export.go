package importer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"time"
)

// FileName is the suggested download name for an export taken at t.
func FileName(t time.Time) string {
	return "money-manager-export-" + t.UTC().Format(time.DateOnly) + ".txt"
}

// Export writes every transaction in the legacy format, oldest first,
// preceded by the header line. It returns the number of records written.
func (im *Importer) Export(ctx context.Context, w io.Writer) (int, error) {
	ds, err := im.store.Snapshot(ctx)
	if err != nil {
		return 0, err
	}

	names := make(map[string]string, len(ds.Categories))
	for _, c := range ds.Categories {
		names[c.ID] = c.Name
	}

	txns := ds.Transactions
	sort.SliceStable(txns, func(i, j int) bool {
		if !txns[i].Date.Equal(txns[j].Date) {
			return txns[i].Date.Before(txns[j].Date)
		}
		return txns[i].ID < txns[j].ID
	})

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(Header); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	for i := range txns {
		line := FormatLine(&txns[i], names[txns[i].CategoryID], im.loc)
		if _, err := bw.WriteString("\n" + line); err != nil {
			return 0, fmt.Errorf("write record %s: %w", txns[i].ID, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("flush export: %w", err)
	}
	return len(txns), nil
}
