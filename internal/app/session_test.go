package app

import (
	"os"
	"path/filepath"
	"testing"

	"syncytia-counter/internal/groups"
	"syncytia-counter/internal/image"
	"syncytia-counter/internal/markers"
	"syncytia-counter/internal/results"
	"syncytia-counter/internal/selection"
	"syncytia-counter/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioDoc = `{"format":"markers","data":[{"idx":0,"position":[10,10]},{"idx":1,"position":[20,30]}]}`

func pt(x, y float64) geometry.Point2D {
	return geometry.NewPoint2D(x, y)
}

func linkedSession(t *testing.T, cfg Config) (*Session, *selection.MemoryHost) {
	t.Helper()
	s := NewSession(cfg)
	host := selection.NewMemoryHost()
	require.NoError(t, s.LinkImage(host, image.NewDocument("cells.tif", nil)))
	return s, host
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestScenarioLinkAddSerialize(t *testing.T) {
	s, host := linkedSession(t, DefaultConfig())
	assert.Equal(t, ModeActive, s.Mode())

	host.Click(pt(10, 10))
	_, err := s.AddGroup()
	require.NoError(t, err)
	host.Click(pt(20, 30))

	data, err := s.Store().Serialize()
	require.NoError(t, err)
	assert.Equal(t, scenarioDoc, string(data))
	assert.True(t, s.Modified())
}

func TestScenarioLoadRemoveResults(t *testing.T) {
	s, host := linkedSession(t, DefaultConfig())
	require.NoError(t, s.LoadMarkers(writeFile(t, "cells_markers.json", scenarioDoc)))
	assert.False(t, s.Modified())
	require.Equal(t, 2, host.Len())

	require.NoError(t, host.ModifierClick(0))

	assert.Equal(t, []markers.Marker{{Group: 1, Position: pt(20, 30)}}, s.Store().Markers())
	assert.Equal(t, map[int]int{0: 0, 1: 1}, s.Counts())
	assert.Equal(t, []results.Row{
		{Group: 0, Label: "Single Cells", Count: 0},
		{Group: 1, Label: "Syncytium 1", Count: 1},
	}, s.Results())
}

func TestScenarioLoadWrongFormat(t *testing.T) {
	s, host := linkedSession(t, DefaultConfig())
	host.Click(pt(1, 2))
	before := s.Store().Markers()

	err := s.LoadMarkers(writeFile(t, "x_markers.json", `{"format":"roi","data":[]}`))
	var fe *markers.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, before, s.Store().Markers())
	assert.Equal(t, 1, host.Len())
}

func TestLoadGrowsRegistry(t *testing.T) {
	s, _ := linkedSession(t, DefaultConfig())
	var seen []int
	s.On(EventGroupsChanged, func(data interface{}) { seen = data.([]int) })

	require.NoError(t, s.LoadMarkers(writeFile(t, "m.json",
		`{"format":"markers","data":[{"idx":3,"position":[1,1]}]}`)))
	assert.Equal(t, []int{0, 1, 2, 3}, s.Registry().Groups())
	assert.Equal(t, []int{0, 1, 2, 3}, seen)
}

func TestLoadWhileUnlinkedHoldsMarkers(t *testing.T) {
	s := NewSession(DefaultConfig())
	assert.Equal(t, ModeUnlinked, s.Mode())

	require.NoError(t, s.LoadMarkers(writeFile(t, "m.json", scenarioDoc)))
	assert.Equal(t, ModeLinked, s.Mode())
	assert.Equal(t, 2, s.Store().Len())

	assert.True(t, s.Enabled(ControlSaveMarkers))
	assert.True(t, s.Enabled(ControlResults))
	assert.False(t, s.Enabled(ControlAddGroup))
	_, err := s.AddGroup()
	assert.ErrorIs(t, err, ErrNotLinked)
}

func TestEnabledPerMode(t *testing.T) {
	s := NewSession(DefaultConfig())
	always := []Control{ControlLinkImage, ControlLoadMarkers, ControlResults, ControlSaveMarkers}
	gated := []Control{ControlAddGroup, ControlClearGroup, ControlClearAll, ControlSelectGroup,
		ControlShowNumbers, ControlHideMarkers, ControlHideSingleCells, ControlMarkerSize, ControlMarkerShape}

	for _, c := range always {
		assert.True(t, s.Enabled(c))
	}
	for _, c := range gated {
		assert.False(t, s.Enabled(c))
	}

	host := selection.NewMemoryHost()
	require.NoError(t, s.LinkImage(host, image.NewDocument("a.png", nil)))
	for _, c := range append(always, gated...) {
		assert.True(t, s.Enabled(c))
	}

	host.Close()
	for _, c := range gated {
		assert.False(t, s.Enabled(c))
	}
}

func TestHostClosedDisablesEditing(t *testing.T) {
	s, host := linkedSession(t, DefaultConfig())
	host.Click(pt(5, 5))

	closed := false
	s.On(EventImageClosed, func(interface{}) { closed = true })
	host.Close()

	assert.Equal(t, ModeUnlinked, s.Mode())
	assert.True(t, closed)
	assert.Nil(t, s.Image())

	_, err := s.AddGroup()
	assert.ErrorIs(t, err, selection.ErrHostUnavailable)
	assert.ErrorIs(t, s.ClearAll(), selection.ErrHostUnavailable)

	// Markers survive and can still be saved.
	path := filepath.Join(t.TempDir(), "kept_markers.json")
	require.NoError(t, s.SaveMarkers(path))
	assert.False(t, s.Modified())
}

func TestLinkSameImageTwice(t *testing.T) {
	s, host := linkedSession(t, DefaultConfig())
	err := s.LinkImage(host, image.NewDocument("cells.tif", nil))
	assert.ErrorIs(t, err, ErrAlreadyLinked)
	assert.Equal(t, ModeActive, s.Mode())
}

func TestLinkClosedImage(t *testing.T) {
	s := NewSession(DefaultConfig())
	host := selection.NewMemoryHost()
	host.Close()
	assert.ErrorIs(t, s.LinkImage(host, image.NewDocument("a.png", nil)), selection.ErrHostUnavailable)
	assert.Equal(t, ModeUnlinked, s.Mode())
}

func TestRelinkPolicy(t *testing.T) {
	t.Run("clears by default", func(t *testing.T) {
		s, first := linkedSession(t, DefaultConfig())
		_, err := s.AddGroup()
		require.NoError(t, err)
		first.Click(pt(1, 1))

		second := selection.NewMemoryHost()
		require.NoError(t, s.LinkImage(second, image.NewDocument("b.png", nil)))
		assert.Equal(t, 0, s.Store().Len())
		assert.Equal(t, []int{0}, s.Registry().Groups())

		// The old image no longer feeds the session.
		first.Click(pt(9, 9))
		assert.Equal(t, 0, s.Store().Len())
	})

	t.Run("keeps markers when disabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RelinkClearsMarkers = false
		s, first := linkedSession(t, cfg)
		first.Click(pt(1, 1))

		second := selection.NewMemoryHost()
		require.NoError(t, s.LinkImage(second, image.NewDocument("b.png", nil)))
		assert.Equal(t, 1, s.Store().Len())
		assert.Equal(t, 1, second.Len(), "markers are pushed to the new image")
	})
}

func TestLoadThenLinkKeepsMarkers(t *testing.T) {
	s := NewSession(DefaultConfig())
	require.NoError(t, s.LoadMarkers(writeFile(t, "cells_markers.json", scenarioDoc)))
	require.Equal(t, ModeLinked, s.Mode())
	assert.False(t, s.ClearsOnLink())

	host := selection.NewMemoryHost()
	require.NoError(t, s.LinkImage(host, image.NewDocument("cells.tif", nil)))
	assert.Equal(t, ModeActive, s.Mode())
	assert.Equal(t, 2, s.Store().Len())
	assert.Equal(t, 2, host.Len())
	assert.Equal(t, []int{0, 1}, s.Registry().Groups())
	assert.False(t, s.Modified())
}

func TestRelinkAfterCloseClears(t *testing.T) {
	s, first := linkedSession(t, DefaultConfig())
	first.Click(pt(1, 1))
	first.Close()
	require.Equal(t, ModeUnlinked, s.Mode())
	assert.True(t, s.ClearsOnLink())

	second := selection.NewMemoryHost()
	require.NoError(t, s.LinkImage(second, image.NewDocument("b.png", nil)))
	assert.Equal(t, 0, s.Store().Len())

	// A set loaded after the close is a fresh one and carries over.
	second.Close()
	require.NoError(t, s.LoadMarkers(writeFile(t, "m.json", scenarioDoc)))
	assert.False(t, s.ClearsOnLink())
	third := selection.NewMemoryHost()
	require.NoError(t, s.LinkImage(third, image.NewDocument("c.png", nil)))
	assert.Equal(t, 2, third.Len())
}

func TestClearGroup(t *testing.T) {
	s, host := linkedSession(t, DefaultConfig())
	host.Click(pt(1, 1))
	_, err := s.AddGroup()
	require.NoError(t, err)
	host.Click(pt(2, 2))
	host.Click(pt(3, 3))
	require.NoError(t, s.SelectGroup(0))
	host.Click(pt(4, 4))
	require.NoError(t, s.SelectGroup(1))

	n, err := s.ClearGroup()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []markers.Marker{
		{Group: 0, Position: pt(1, 1)},
		{Group: 0, Position: pt(4, 4)},
	}, s.Store().Markers())
	assert.Equal(t, 2, host.Len())
	assert.True(t, s.Registry().Has(1), "the syncytium stays allocated")
}

func TestClearGroupDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClearGroupEnabled = false
	s, host := linkedSession(t, cfg)
	host.Click(pt(1, 1))

	_, err := s.ClearGroup()
	assert.ErrorIs(t, err, ErrClearGroupDisabled)
	assert.False(t, s.Enabled(ControlClearGroup))
	assert.Equal(t, 1, s.Store().Len())
}

func TestClearAllKeepsGroups(t *testing.T) {
	s, host := linkedSession(t, DefaultConfig())
	_, err := s.AddGroup()
	require.NoError(t, err)
	host.Click(pt(1, 1))

	require.NoError(t, s.ClearAll())
	assert.Equal(t, 0, s.Store().Len())
	assert.Equal(t, 0, host.Len())
	assert.Equal(t, []int{0, 1}, s.Registry().Groups())
}

func TestSelectInvalidGroup(t *testing.T) {
	s, _ := linkedSession(t, DefaultConfig())
	err := s.SelectGroup(4)
	var ig *groups.InvalidGroupError
	require.ErrorAs(t, err, &ig)
}

func TestSaveEmpty(t *testing.T) {
	s, _ := linkedSession(t, DefaultConfig())
	assert.ErrorIs(t, s.SaveMarkers(filepath.Join(t.TempDir(), "x.json")), ErrNothingToSave)
}

func TestSaveRoundTrip(t *testing.T) {
	s, host := linkedSession(t, DefaultConfig())
	host.Click(pt(10, 10))
	_, err := s.AddGroup()
	require.NoError(t, err)
	host.Click(pt(20, 30))
	require.NoError(t, host.Drag(0, pt(11, 12)))

	path := filepath.Join(t.TempDir(), "cells_markers.json")
	var savedPath string
	s.On(EventMarkersSaved, func(data interface{}) { savedPath = data.(string) })
	require.NoError(t, s.SaveMarkers(path))
	assert.Equal(t, path, savedPath)

	other := NewSession(DefaultConfig())
	require.NoError(t, other.LoadMarkers(path))
	assert.True(t, s.Store().Equal(other.Store()))
}

func TestDisplayOptionsReachHost(t *testing.T) {
	s, host := linkedSession(t, DefaultConfig())
	host.Click(pt(1, 1))

	require.NoError(t, s.SetShowNumbers(false))
	require.NoError(t, s.SetMarkerSize(selection.SizeLarge))
	require.NoError(t, s.SetMarkerShape(selection.ShapeCross))
	require.NoError(t, s.SetHideSingleCells(true))
	require.NoError(t, s.SetHideMarkers(true))

	assert.Equal(t, selection.Style{
		Size:       selection.SizeLarge,
		Shape:      selection.ShapeCross,
		ShowLabels: false,
		Visible:    false,
	}, host.Style())
	assert.True(t, host.Points()[0].Hidden)
}

func TestDisplayOptionsWhileUnlinked(t *testing.T) {
	s := NewSession(DefaultConfig())
	require.NoError(t, s.SetMarkerSize(selection.SizeTiny))
	assert.Equal(t, selection.SizeTiny, s.Display().Size)

	host := selection.NewMemoryHost()
	require.NoError(t, s.LinkImage(host, image.NewDocument("a.png", nil)))
	assert.Equal(t, selection.SizeTiny, host.Style().Size)
}

func TestSyncWarningResyncs(t *testing.T) {
	s, host := linkedSession(t, DefaultConfig())
	host.Click(pt(1, 1))

	var warning error
	s.On(EventSyncWarning, func(data interface{}) { warning = data.(error) })

	// A point added through the host toolbar, outside the adapter.
	host.Append(selection.Point{Position: pt(50, 50)})
	host.Click(pt(2, 2))

	var se *selection.SyncError
	require.ErrorAs(t, warning, &se)
	assert.Equal(t, s.Store().Len(), host.Len())
}

func TestDefaultMarkersPath(t *testing.T) {
	s := NewSession(DefaultConfig())
	assert.Equal(t, "", s.DefaultMarkersPath())

	path := writeFile(t, "old_markers.json", scenarioDoc)
	require.NoError(t, s.LoadMarkers(path))
	assert.Equal(t, path, s.DefaultMarkersPath())

	require.NoError(t, s.LinkImage(selection.NewMemoryHost(), image.NewDocument(filepath.Join("d", "img.tif"), nil)))
	assert.Equal(t, filepath.Join("d", "img_markers.json"), s.DefaultMarkersPath())
}

func TestModeEvents(t *testing.T) {
	s := NewSession(DefaultConfig())
	var modes []Mode
	s.On(EventModeChanged, func(data interface{}) { modes = append(modes, data.(Mode)) })

	require.NoError(t, s.LoadMarkers(writeFile(t, "m.json", scenarioDoc)))
	host := selection.NewMemoryHost()
	require.NoError(t, s.LinkImage(host, image.NewDocument("a.png", nil)))
	host.Close()
	s.CheckHost()

	assert.Equal(t, []Mode{ModeLinked, ModeActive, ModeUnlinked}, modes)
}
