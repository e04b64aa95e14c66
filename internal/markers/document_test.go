package markers

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioDoc = `{"format":"markers","data":[{"idx":0,"position":[10,10]},{"idx":1,"position":[20,30]}]}`

func TestSerializeScenario(t *testing.T) {
	s := NewStore()
	s.Add(0, pt(10, 10))
	s.Add(1, pt(20, 30))

	data, err := s.Serialize()
	require.NoError(t, err)
	assert.Equal(t, scenarioDoc, string(data))
}

func TestSerializeEmptyStore(t *testing.T) {
	data, err := NewStore().Serialize()
	require.NoError(t, err)
	assert.Equal(t, `{"format":"markers","data":[]}`, string(data))
}

func TestSerializeKeepsInsertionOrderAcrossGroups(t *testing.T) {
	s := NewStore()
	s.Add(2, pt(1.5, 2.25))
	s.Add(0, pt(3, 4))
	s.Add(2, pt(5, 6))
	s.Add(1, pt(7, 8))

	doc := s.Document()
	groups := make([]int, 0, len(doc.Data))
	for _, r := range doc.Data {
		groups = append(groups, r.Idx)
	}
	assert.Equal(t, []int{2, 0, 2, 1}, groups)
	assert.Equal(t, [2]float64{1.5, 2.25}, doc.Data[0].Position)
}

func TestRoundTrip(t *testing.T) {
	s := NewStore()
	s.Add(3, pt(0.125, 99))
	s.Add(0, pt(-4, 1e6))
	s.Add(1, pt(17.5, 17.5))
	s.Add(3, pt(2, 3))

	data, err := s.Serialize()
	require.NoError(t, err)

	restored := NewStore()
	require.NoError(t, restored.Deserialize(data))
	assert.True(t, s.Equal(restored))
}

func TestDeserializeThenRemove(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Deserialize([]byte(scenarioDoc)))
	require.NoError(t, s.RemoveAt(0))

	data, err := s.Serialize()
	require.NoError(t, err)
	assert.Equal(t, `{"format":"markers","data":[{"idx":1,"position":[20,30]}]}`, string(data))
}

func TestDeserializeRejectsBadDocuments(t *testing.T) {
	cases := map[string]string{
		"roi format":         `{"format":"roi","data":[]}`,
		"missing format":     `{"data":[]}`,
		"format not string":  `{"format":1,"data":[]}`,
		"missing data":       `{"format":"markers"}`,
		"data null":          `{"format":"markers","data":null}`,
		"data not array":     `{"format":"markers","data":{}}`,
		"not json":           `format=markers`,
		"top-level array":    `[]`,
		"record not object":  `{"format":"markers","data":[5]}`,
		"missing idx":        `{"format":"markers","data":[{"position":[1,2]}]}`,
		"fractional idx":     `{"format":"markers","data":[{"idx":1.5,"position":[1,2]}]}`,
		"string idx":         `{"format":"markers","data":[{"idx":"1","position":[1,2]}]}`,
		"negative idx":       `{"format":"markers","data":[{"idx":-1,"position":[1,2]}]}`,
		"missing position":   `{"format":"markers","data":[{"idx":1}]}`,
		"short position":     `{"format":"markers","data":[{"idx":1,"position":[1]}]}`,
		"long position":      `{"format":"markers","data":[{"idx":1,"position":[1,2,3]}]}`,
		"string coordinate":  `{"format":"markers","data":[{"idx":1,"position":["1",2]}]}`,
		"null coordinate":    `{"format":"markers","data":[{"idx":1,"position":[1,null]}]}`,
		"bad second record":  `{"format":"markers","data":[{"idx":1,"position":[1,2]},{"idx":1}]}`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			s := NewStore()
			s.Add(4, pt(7, 7))

			err := s.Deserialize([]byte(doc))
			var fe *FormatError
			require.ErrorAs(t, err, &fe)

			assert.Equal(t, []Marker{{Group: 4, Position: pt(7, 7)}}, s.Markers(), "store must be untouched")
		})
	}
}

func TestFormatErrorRecordIndex(t *testing.T) {
	_, err := ParseDocument([]byte(`{"format":"markers","data":[{"idx":0,"position":[1,2]},{"idx":0}]}`))
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 1, fe.Record)
	assert.Contains(t, fe.Error(), "record 1")
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cells_markers.json")

	s := NewStore()
	s.Add(0, pt(10, 10))
	s.Add(1, pt(20, 30))
	require.NoError(t, s.SaveFile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, scenarioDoc, string(raw))

	loaded := NewStore()
	require.NoError(t, loaded.LoadFile(path))
	assert.True(t, s.Equal(loaded))
}

func TestLoadFileMissing(t *testing.T) {
	s := NewStore()
	err := s.LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)

	var fe *FormatError
	assert.False(t, errors.As(err, &fe), "read failures are not format errors")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
