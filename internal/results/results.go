// Package results tabulates marker counts per group and summarizes saved marker files.
package results

import (
	"encoding/csv"
	"io"
	"strconv"

	"syncytia-counter/internal/groups"
	"syncytia-counter/internal/markers"
)

// Row is one line of the counts table.
type Row struct {
	Group int
	Label string
	Count int
}

// Compute returns the number of markers in every allocated group,
// including groups that have no markers.
func Compute(store *markers.Store, registry *groups.Registry) map[int]int {
	counts := make(map[int]int, registry.Len())
	for _, g := range registry.Groups() {
		counts[g] = 0
	}
	for _, m := range store.Markers() {
		if _, ok := counts[m.Group]; ok {
			counts[m.Group]++
		}
	}
	return counts
}

// Table returns the counts in registry order, single cells first.
func Table(store *markers.Store, registry *groups.Registry) []Row {
	counts := Compute(store, registry)
	rows := make([]Row, 0, len(counts))
	for _, g := range registry.Groups() {
		rows = append(rows, Row{Group: g, Label: groups.Name(g), Count: counts[g]})
	}
	return rows
}

// WriteCSV writes the counts table with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Label", "Count"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Label, strconv.Itoa(r.Count)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
