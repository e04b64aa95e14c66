package panels

import (
	"os"
	"path/filepath"
	"testing"

	"syncytia-counter/internal/app"
	"syncytia-counter/internal/image"
	"syncytia-counter/internal/selection"
	"syncytia-counter/pkg/geometry"
	"syncytia-counter/ui/prefs"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	panel   *ControlPanel
	session *app.Session
	host    *selection.MemoryHost
	prefs   *prefs.Prefs
	open    bool
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	test.NewApp()

	f := &fixture{
		session: app.NewSession(app.DefaultConfig()),
		host:    selection.NewMemoryHost(),
		prefs:   prefs.LoadFrom(filepath.Join(t.TempDir(), "preferences.json")),
		open:    true,
	}
	doc := image.NewDocument("cells.tif", nil)
	f.panel = NewControlPanel(f.session, f.prefs, func() (selection.Host, *image.Document) {
		if !f.open {
			return nil, nil
		}
		return f.host, doc
	})
	w := test.NewWindow(f.panel.Container())
	t.Cleanup(w.Close)
	return f
}

func (f *fixture) link(t *testing.T) {
	t.Helper()
	test.Tap(f.panel.linkButton)
	require.Equal(t, app.ModeActive, f.session.Mode())
}

func TestInitialControlState(t *testing.T) {
	f := newFixture(t)

	assert.False(t, f.panel.linkButton.Disabled())
	assert.False(t, f.panel.loadButton.Disabled())
	assert.False(t, f.panel.resultsButton.Disabled())
	assert.False(t, f.panel.saveButton.Disabled())

	assert.True(t, f.panel.addGroupButton.Disabled())
	assert.True(t, f.panel.clearGroupButton.Disabled())
	assert.True(t, f.panel.clearAllButton.Disabled())
	assert.True(t, f.panel.hideMarkersCheck.Disabled())
	assert.True(t, f.panel.sizeSelect.Disabled())

	assert.Equal(t, []int{0}, f.panel.groupIDs)
	assert.True(t, f.panel.showNumbersCheck.Checked)
	assert.Equal(t, "Medium", f.panel.sizeSelect.Selected)
	assert.Equal(t, "Dot", f.panel.shapeSelect.Selected)
}

func TestLinkEnablesEditing(t *testing.T) {
	f := newFixture(t)
	f.link(t)

	assert.False(t, f.panel.addGroupButton.Disabled())
	assert.False(t, f.panel.clearGroupButton.Disabled())
	assert.False(t, f.panel.shapeSelect.Disabled())
	assert.Equal(t, "Linked to cells.tif", f.panel.Status())

	test.Tap(f.panel.linkButton)
	assert.Equal(t, "cells.tif is already linked", f.panel.Status())
}

func TestLinkWithoutImage(t *testing.T) {
	f := newFixture(t)
	f.open = false
	test.Tap(f.panel.linkButton)
	assert.Equal(t, app.ModeUnlinked, f.session.Mode())
	assert.Contains(t, f.panel.Status(), "no open image")
}

func TestAddGroupAndCounts(t *testing.T) {
	f := newFixture(t)
	f.link(t)

	f.host.Click(geometry.NewPoint2D(1, 1))
	test.Tap(f.panel.addGroupButton)
	f.host.Click(geometry.NewPoint2D(2, 2))
	f.host.Click(geometry.NewPoint2D(3, 3))

	assert.Equal(t, []int{0, 1}, f.panel.groupIDs)
	assert.Equal(t, map[int]int{0: 1, 1: 2}, f.panel.counts)
	assert.Equal(t, 1, f.session.Registry().Active())
}

func TestListSelectsActiveGroup(t *testing.T) {
	f := newFixture(t)
	f.link(t)
	test.Tap(f.panel.addGroupButton)
	test.Tap(f.panel.addGroupButton)

	f.panel.groupList.Select(1)
	assert.Equal(t, 1, f.session.Registry().Active())

	f.host.Click(geometry.NewPoint2D(5, 5))
	m, err := f.session.Store().At(0)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Group)
}

func TestDisplayControlsDriveSession(t *testing.T) {
	f := newFixture(t)
	f.link(t)

	test.Tap(f.panel.hideSingleCheck)
	f.panel.sizeSelect.SetSelected("XL")
	f.panel.shapeSelect.SetSelected("Circle")

	d := f.session.Display()
	assert.True(t, d.HideSingleCells)
	assert.Equal(t, selection.SizeXL, d.Size)
	assert.Equal(t, selection.ShapeCircle, d.Shape)
	assert.Equal(t, selection.ShapeCircle, f.host.Style().Shape)

	assert.True(t, f.prefs.Bool(prefs.KeyHideSingleCells, false))
	assert.Equal(t, "XL", f.prefs.String(prefs.KeyMarkerSize))
}

func TestClearAllWithoutConfirmation(t *testing.T) {
	f := newFixture(t)
	f.link(t)
	f.host.Click(geometry.NewPoint2D(1, 1))
	f.host.Click(geometry.NewPoint2D(2, 2))

	test.Tap(f.panel.clearAllButton)
	assert.Equal(t, 0, f.session.Store().Len())
	assert.Equal(t, 0, f.host.Len())
	assert.Equal(t, "Removed all 2 markers", f.panel.Status())
}

func TestClearGroupDisabledByPolicy(t *testing.T) {
	test.NewApp()
	cfg := app.DefaultConfig()
	cfg.ClearGroupEnabled = false
	s := app.NewSession(cfg)
	host := selection.NewMemoryHost()
	cp := NewControlPanel(s, prefs.LoadFrom(filepath.Join(t.TempDir(), "p.json")),
		func() (selection.Host, *image.Document) { return host, image.NewDocument("a.png", nil) })

	test.Tap(cp.linkButton)
	assert.False(t, cp.addGroupButton.Disabled())
	assert.True(t, cp.clearGroupButton.Disabled())
}

func TestHostClosedDisablesEditing(t *testing.T) {
	f := newFixture(t)
	f.link(t)
	f.host.Click(geometry.NewPoint2D(1, 1))

	f.host.Close()
	assert.Equal(t, app.ModeUnlinked, f.session.Mode())
	assert.True(t, f.panel.addGroupButton.Disabled())
	assert.False(t, f.panel.saveButton.Disabled())
	assert.Contains(t, f.panel.Status(), "closed")
	assert.Contains(t, f.panel.Status(), "1 markers are kept")
}

func TestLoadMarkersReportsFormatErrors(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "bad_markers.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"format":"rois","data":[]}`), 0o644))

	f.panel.LoadMarkers(path)
	assert.Contains(t, f.panel.Status(), "bad_markers.json is not a valid markers file")
	assert.Equal(t, app.ModeUnlinked, f.session.Mode())
}

func TestLoadMarkersGrowsList(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "cells_markers.json")
	doc := `{"format":"markers","data":[{"idx":0,"position":[1,1]},{"idx":3,"position":[2,2]}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	f.panel.LoadMarkers(path)
	assert.Equal(t, app.ModeLinked, f.session.Mode())
	assert.Equal(t, []int{0, 1, 2, 3}, f.panel.groupIDs)
	assert.Equal(t, 1, f.panel.counts[3])
	assert.Contains(t, f.panel.Status(), "Loaded 2 markers")
}

func TestLinkAfterLoadKeepsMarkers(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "cells_markers.json")
	doc := `{"format":"markers","data":[{"idx":0,"position":[1,1]},{"idx":1,"position":[2,2]}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	f.panel.LoadMarkers(path)
	f.link(t)
	assert.Equal(t, 2, f.host.Len())
	assert.Equal(t, 1, f.panel.counts[1])
}

func TestSaveWithoutMarkers(t *testing.T) {
	f := newFixture(t)
	test.Tap(f.panel.saveButton)
	assert.Equal(t, app.ErrNothingToSave.Error(), f.panel.Status())
}

func TestResultsSummaryInStatus(t *testing.T) {
	f := newFixture(t)
	f.link(t)
	f.host.Click(geometry.NewPoint2D(1, 1))
	test.Tap(f.panel.addGroupButton)
	f.host.Click(geometry.NewPoint2D(2, 2))

	test.Tap(f.panel.resultsButton)
	assert.Equal(t, "2 markers: 1 single cells, 1 syncytia", f.panel.Status())
}
