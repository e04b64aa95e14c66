package markers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"syncytia-counter/pkg/geometry"
)

// FormatTag is the value of the "format" key in a markers file.
const FormatTag = "markers"

// FormatError reports a markers document that cannot be loaded.
type FormatError struct {
	Record int // index of the offending record, or -1 for the document itself
	Reason string
}

func (e *FormatError) Error() string {
	if e.Record < 0 {
		return "wrong format of the markers file: " + e.Reason
	}
	return fmt.Sprintf("wrong format of the markers file: record %d: %s", e.Record, e.Reason)
}

// Document is the persisted form of a store.
type Document struct {
	Format string   `json:"format"`
	Data   []Record `json:"data"`
}

// Record is one persisted marker.
type Record struct {
	Idx      int        `json:"idx"`
	Position [2]float64 `json:"position"`
}

// Document builds the persisted form of the store, in store order.
func (s *Store) Document() Document {
	doc := Document{
		Format: FormatTag,
		Data:   make([]Record, 0, len(s.markers)),
	}
	for _, m := range s.markers {
		doc.Data = append(doc.Data, Record{
			Idx:      m.Group,
			Position: [2]float64{m.Position.X, m.Position.Y},
		})
	}
	return doc
}

// Serialize encodes the store as a markers JSON document.
func (s *Store) Serialize() ([]byte, error) {
	data, err := json.Marshal(s.Document())
	if err != nil {
		return nil, fmt.Errorf("failed to encode markers: %w", err)
	}
	return data, nil
}

// Deserialize validates a markers document and, only if it is valid,
// replaces the entire contents of the store with it.
func (s *Store) Deserialize(data []byte) error {
	markers, err := ParseDocument(data)
	if err != nil {
		return err
	}
	s.replace(markers)
	return nil
}

// ParseDocument validates a markers document and returns its markers in file order.
func ParseDocument(data []byte) ([]Marker, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &FormatError{Record: -1, Reason: "not a JSON object: " + err.Error()}
	}

	var format string
	if tag, ok := raw["format"]; !ok {
		return nil, &FormatError{Record: -1, Reason: `missing "format"`}
	} else if err := json.Unmarshal(tag, &format); err != nil || format != FormatTag {
		return nil, &FormatError{Record: -1, Reason: fmt.Sprintf(`"format" is %s, want %q`, bytes.TrimSpace(tag), FormatTag)}
	}

	rawData, ok := raw["data"]
	if !ok {
		return nil, &FormatError{Record: -1, Reason: `missing "data"`}
	}
	var records []json.RawMessage
	if err := json.Unmarshal(rawData, &records); err != nil || records == nil {
		return nil, &FormatError{Record: -1, Reason: `"data" is not an array`}
	}

	markers := make([]Marker, 0, len(records))
	for i, rec := range records {
		m, err := parseRecord(rec)
		if err != nil {
			return nil, &FormatError{Record: i, Reason: err.Error()}
		}
		markers = append(markers, m)
	}
	return markers, nil
}

func parseRecord(data json.RawMessage) (Marker, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return Marker{}, fmt.Errorf("not an object")
	}

	rawIdx, ok := fields["idx"]
	if !ok {
		return Marker{}, fmt.Errorf(`missing "idx"`)
	}
	idx, err := strconv.Atoi(string(bytes.TrimSpace(rawIdx)))
	if err != nil || idx < 0 {
		return Marker{}, fmt.Errorf(`"idx" must be a non-negative integer, got %s`, bytes.TrimSpace(rawIdx))
	}

	rawPos, ok := fields["position"]
	if !ok {
		return Marker{}, fmt.Errorf(`missing "position"`)
	}
	var coords []json.RawMessage
	if err := json.Unmarshal(rawPos, &coords); err != nil || len(coords) != 2 {
		return Marker{}, fmt.Errorf(`"position" must be a pair of numbers`)
	}
	var xy [2]float64
	for j, c := range coords {
		v, err := strconv.ParseFloat(string(bytes.TrimSpace(c)), 64)
		if err != nil {
			return Marker{}, fmt.Errorf(`"position" must be a pair of numbers`)
		}
		xy[j] = v
	}

	return Marker{Group: idx, Position: geometry.NewPoint2D(xy[0], xy[1])}, nil
}

// LoadFile reads a markers file into the store. On any error the store is left untouched.
func (s *Store) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read markers: %w", err)
	}
	return s.Deserialize(data)
}

// SaveFile writes the store to a markers file.
func (s *Store) SaveFile(path string) error {
	data, err := s.Serialize()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write markers: %w", err)
	}
	return nil
}
