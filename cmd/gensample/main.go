package main

import (
	"flag"
	"fmt"
	"os"

	"cloud.google.com/go/civil"

	"finassist/internal/logger"
	"finassist/internal/sample"
)

func main() {
	log := logger.New()

	var (
		rows    int
		seed    int64
		start   string
		end     string
		outPath string
	)

	flag.IntVar(&rows, "rows", 200, "Number of transactions to generate")
	flag.Int64Var(&seed, "seed", 42, "Random seed; the same seed yields the same data")
	flag.StringVar(&start, "start", "", "First date of the window, YYYY-MM-DD (default 2023-09-01)")
	flag.StringVar(&end, "end", "", "Last date of the window, YYYY-MM-DD (default 2024-02-28)")
	flag.StringVar(&outPath, "o", "", "Output CSV file (default stdout)")
	flag.Parse()

	opts := sample.Options{Rows: rows, Seed: seed}

	if start != "" {
		parsed, err := civil.ParseDate(start)
		if err != nil {
			log.Fatal().Err(err).Msg("Bad -start date, want YYYY-MM-DD")
		}
		opts.Start = parsed
	}
	if end != "" {
		parsed, err := civil.ParseDate(end)
		if err != nil {
			log.Fatal().Err(err).Msg("Bad -end date, want YYYY-MM-DD")
		}
		opts.End = parsed
	}

	generated := sample.Generate(opts)

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create output file")
		}
		defer f.Close()
		out = f
	}

	if err := sample.WriteCSV(out, generated); err != nil {
		log.Fatal().Err(err).Msg("Failed to write CSV")
	}

	if outPath != "" {
		fmt.Printf("Wrote %d transactions to %s\n", len(generated), outPath)
	}
}
