package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

func main() {
	numRows := flag.Int("rows", 1000, "Number of rows to generate")
	output := flag.String("output", "large_test.tsv", "Output file path")
	seed := flag.Int64("seed", 1, "Random seed")
	flag.Parse()

	if *numRows < 1 {
		fmt.Fprintf(os.Stderr, "rows must be at least 1\n")
		os.Exit(1)
	}

	// Ensure directory exists
	dir := filepath.Dir(*output)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create directory: %v\n", err)
			os.Exit(1)
		}
	}

	f, err := os.Create(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create file: %v\n", err)
		os.Exit(1)
	}
	w := bufio.NewWriter(f)
	rng := rand.New(rand.NewSource(*seed))
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for i := 1; i <= *numRows; i++ {
		fmt.Fprintln(w, generateRow(rng, i))
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write file: %v\n", err)
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write file: %v\n", err)
		os.Exit(1)
	}

	info, err := os.Stat(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to stat file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated %s rows\n", humanize.Comma(int64(*numRows)))
	fmt.Printf("Saved to: %s\n", *output)
	fmt.Printf("File size: %s\n", humanize.Bytes(uint64(info.Size())))
}

var header = []string{"id", "category", "description", "amount", "duration", "date", "counter"}

// generateRow returns one tab separated row mixing text, decimal numbers
// with and without thousands separators, times of day, dates and Unix
// seconds, so every column command has something to work on.
func generateRow(rng *rand.Rand, index int) string {
	categories := []string{
		"Task", "Note", "Idea", "Bug", "Feature", "Enhancement",
		"Documentation", "Refactor", "Test", "Optimization",
	}
	descriptions := []string{
		"Core functionality",
		"User interface",
		"Performance improvement",
		"API integration",
		"Data validation",
		"Error handling",
		"Caching layer",
		"Database schema",
	}

	amount := fmt.Sprintf("%.2f", rng.Float64()*10000)
	if index%7 == 0 {
		amount = humanize.CommafWithDigits(rng.Float64()*1e6, 2)
	}
	if index%11 == 0 {
		amount = "-" + amount
	}
	duration := fmt.Sprintf("%d:%02d:%02d", rng.Intn(48), rng.Intn(60), rng.Intn(60))
	at := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(rng.Int63n(int64(5 * 365 * 24 * time.Hour))))

	return strings.Join([]string{
		fmt.Sprint(index),
		categories[index%len(categories)],
		descriptions[index%len(descriptions)],
		amount,
		duration,
		at.Format("2006-01-02 15:04:05"),
		fmt.Sprint(at.Unix()),
	}, "\t")
}
