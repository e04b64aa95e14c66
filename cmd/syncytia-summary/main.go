// Command syncytia-summary tallies syncytium sizes over a folder of saved
// markers files and prints the histogram.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"

	"syncytia-counter/internal/results"
)

func main() {
	dir := flag.String("dir", "", "Folder containing *_markers.json files")
	csvPath := flag.String("csv", "", "Also write the histogram as CSV to this file")
	quiet := flag.Bool("q", false, "Only print the summary totals")
	flag.Parse()

	if *dir == "" && flag.NArg() > 0 {
		*dir = flag.Arg(0)
	}
	if *dir == "" {
		fmt.Println("Usage: syncytia-summary -dir <folder> [-csv <out.csv>] [-q]")
		os.Exit(1)
	}

	s, err := results.SummarizeDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to summarize %s: %v\n", *dir, err)
		os.Exit(1)
	}
	if s.Files == 0 {
		fmt.Fprintf(os.Stderr, "No markers files matching %s in %s\n", results.MarkersFilePattern, *dir)
		os.Exit(1)
	}

	if !*quiet {
		printHistogram(os.Stdout, s)
		fmt.Println()
	}
	printTotals(os.Stdout, s)

	if *csvPath != "" {
		if err := writeCSV(*csvPath, s); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", *csvPath, err)
			os.Exit(1)
		}
		log.Printf("Wrote histogram to %s", *csvPath)
	}
}

func printHistogram(w io.Writer, s results.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "nuclei\tcounts\t")
	for i, n := range s.Counts() {
		fmt.Fprintf(tw, "%d\t%d\t\n", i+1, n)
	}
	tw.Flush()
}

func printTotals(w io.Writer, s results.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "Files:\t%d\n", s.Files)
	for _, path := range s.Skipped {
		fmt.Fprintf(tw, "Skipped:\t%s\n", filepath.Base(path))
	}
	fmt.Fprintf(tw, "Single cells:\t%d\n", s.SingleCells)
	fmt.Fprintf(tw, "Nuclei in syncytia:\t%d\n", s.NucleiInSyncytia)
	fmt.Fprintf(tw, "Fusion index:\t%d\n", s.FusionIndex)
	fmt.Fprintf(tw, "Mean syncytium size:\t%.2f\n", s.MeanSyncytiumSize)
	tw.Flush()
}

func writeCSV(path string, s results.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := results.WriteHistogramCSV(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
