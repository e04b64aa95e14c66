package results

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"syncytia-counter/internal/groups"
	"syncytia-counter/internal/markers"

	"gonum.org/v1/gonum/stat"
)

// MarkersFilePattern matches the files written by Save Markers.
const MarkersFilePattern = "*_markers.json"

// Summary aggregates syncytium sizes over many marker files.
type Summary struct {
	Files   int      // files included
	Skipped []string // files ignored for a wrong format tag or bad records

	// Histogram maps a size in nuclei to the number of cells of that size.
	// Single cells count towards size 1.
	Histogram map[int]int

	SingleCells       int
	NucleiInSyncytia  int
	FusionIndex       int     // total fusion events, sum of (size-1) per cell
	MeanSyncytiumSize float64 // mean nuclei per syncytium of size 2 or more; 0 if none
}

// MaxSize returns the largest size present in the histogram, at least 1.
func (s Summary) MaxSize() int {
	maxSize := 1
	for k := range s.Histogram {
		if k > maxSize {
			maxSize = k
		}
	}
	return maxSize
}

// Counts returns the histogram as a dense slice; index i holds size i+1.
func (s Summary) Counts() []int {
	counts := make([]int, s.MaxSize())
	for k, n := range s.Histogram {
		if k >= 1 {
			counts[k-1] = n
		}
	}
	return counts
}

// Summarize builds the summary for a set of marker lists, one per image.
func Summarize(images [][]markers.Marker) Summary {
	hist := map[int]int{1: 0}
	for _, ms := range images {
		perGroup := make(map[int]int)
		for _, m := range ms {
			perGroup[m.Group]++
		}
		hist[1] += perGroup[groups.SingleCells]
		delete(perGroup, groups.SingleCells)
		for _, n := range perGroup {
			hist[n]++
		}
	}

	s := Summary{Files: len(images), Histogram: hist}
	var sizes, weights []float64
	for i, n := range s.Counts() {
		size := i + 1
		s.NucleiInSyncytia += size * n
		s.FusionIndex += (size - 1) * n
		if size >= 2 && n > 0 {
			sizes = append(sizes, float64(size))
			weights = append(weights, float64(n))
		}
	}
	s.SingleCells = hist[1]
	s.NucleiInSyncytia -= hist[1]
	if len(sizes) > 0 {
		s.MeanSyncytiumSize = stat.Mean(sizes, weights)
	}
	return s
}

// SummarizeDir summarizes every markers file in dir. Files that are not
// valid markers documents are listed in Skipped rather than failing the run.
func SummarizeDir(dir string) (Summary, error) {
	paths, err := filepath.Glob(filepath.Join(dir, MarkersFilePattern))
	if err != nil {
		return Summary{}, err
	}
	sort.Strings(paths)

	var images [][]markers.Marker
	var skipped []string
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return Summary{}, fmt.Errorf("failed to read %s: %w", path, err)
		}
		ms, err := markers.ParseDocument(data)
		if err != nil {
			var fe *markers.FormatError
			if !errors.As(err, &fe) {
				return Summary{}, err
			}
			log.Printf("Summary: skipping %s: %v", filepath.Base(path), err)
			skipped = append(skipped, path)
			continue
		}
		images = append(images, ms)
	}

	s := Summarize(images)
	s.Skipped = skipped
	return s, nil
}

// WriteHistogramCSV writes one "nuclei,counts" line per size.
func WriteHistogramCSV(w io.Writer, s Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"nuclei", "counts"}); err != nil {
		return err
	}
	for i, n := range s.Counts() {
		if err := cw.Write([]string{strconv.Itoa(i + 1), strconv.Itoa(n)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
