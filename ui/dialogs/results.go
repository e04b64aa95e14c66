// Package dialogs provides application dialogs.
package dialogs

import (
	"fmt"
	"strconv"

	"syncytia-counter/internal/results"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

// ResultsDialog shows the counts table for the current markers.
type ResultsDialog struct {
	rows   []results.Row
	title  string
	window fyne.Window

	onExported func(uri fyne.URI)
}

// NewResultsDialog creates a results dialog for the given rows. The title
// names the image or markers file the counts belong to.
func NewResultsDialog(rows []results.Row, title string, window fyne.Window) *ResultsDialog {
	return &ResultsDialog{
		rows:   rows,
		title:  title,
		window: window,
	}
}

// OnExported sets a callback run after a successful CSV export.
func (d *ResultsDialog) OnExported(callback func(uri fyne.URI)) {
	d.onExported = callback
}

// Show displays the dialog.
func (d *ResultsDialog) Show() {
	title := "Results"
	if d.title != "" {
		title += ": " + d.title
	}
	dlg := dialog.NewCustom(title, "Close", d.createContent(), d.window)
	dlg.Resize(fyne.NewSize(360, 420))
	dlg.Show()
}

func (d *ResultsDialog) createContent() fyne.CanvasObject {
	table := widget.NewTable(
		func() (int, int) { return len(d.rows) + 1, 2 },
		func() fyne.CanvasObject { return widget.NewLabel("Syncytium 000") },
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			label := obj.(*widget.Label)
			label.TextStyle = fyne.TextStyle{Bold: id.Row == 0}
			label.SetText(d.cell(id.Row, id.Col))
		},
	)
	table.SetColumnWidth(0, 180)
	table.SetColumnWidth(1, 80)

	exportButton := widget.NewButton("Export CSV...", d.export)

	return container.NewBorder(
		widget.NewLabel(Summary(d.rows)),
		exportButton,
		nil, nil,
		table,
	)
}

func (d *ResultsDialog) cell(row, col int) string {
	if row == 0 {
		if col == 0 {
			return "Label"
		}
		return "Count"
	}
	r := d.rows[row-1]
	if col == 0 {
		return r.Label
	}
	return strconv.Itoa(r.Count)
}

func (d *ResultsDialog) export() {
	save := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, d.window)
			return
		}
		if writer == nil {
			return
		}
		defer writer.Close()
		if err := results.WriteCSV(writer, d.rows); err != nil {
			dialog.ShowError(fmt.Errorf("export results: %w", err), d.window)
			return
		}
		if d.onExported != nil {
			d.onExported(writer.URI())
		}
	}, d.window)
	save.SetFilter(storage.NewExtensionFileFilter([]string{".csv"}))
	save.SetFileName("results.csv")
	save.Show()
}

// Summary describes the rows in one line: total markers, single cells and
// the number of syncytia holding at least one marker.
func Summary(rows []results.Row) string {
	var total, single, syncytia int
	for _, r := range rows {
		total += r.Count
		if r.Group == 0 {
			single += r.Count
		} else if r.Count > 0 {
			syncytia++
		}
	}
	return fmt.Sprintf("%d markers: %d single cells, %d syncytia", total, single, syncytia)
}
