// cmd/tools/dataset-check/main.go
//
// Loads a benefits CSV and reports how each row normalizes, plus which
// plan columns have gaps. Useful before publishing a new dataset.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"benefits-assistant/internal/common/logger"
	"benefits-assistant/internal/dataset"
	"benefits-assistant/internal/normalize"
)

func main() {
	path := flag.String("path", "", "Path to the benefits CSV file")
	labelColumn := flag.String("label", "Benefit", "Name of the benefit label column")
	query := flag.String("query", "", "Optional query to normalize and match against the dataset")
	flag.Parse()

	if *path == "" {
		fmt.Println("Error: -path is required.")
		flag.Usage()
		os.Exit(1)
	}

	log := logger.NewStructured("warn", "console")
	ds := dataset.Load(context.Background(), &dataset.FileSource{Path: *path}, *labelColumn, log)

	if ds.Len() == 0 {
		fmt.Printf("dataset at %s produced no usable rows\n", *path)
		os.Exit(1)
	}

	plans := ds.Plans()
	fmt.Printf("loaded %d benefits across %d plans: %v\n\n", ds.Len(), len(plans), plans)

	for _, rec := range ds.Records() {
		var missing []string
		for _, plan := range plans {
			if !rec.HasValue(plan) {
				missing = append(missing, plan)
			}
		}
		fmt.Printf("%-40s -> %s", rec.Label, rec.NormalizedName)
		if len(missing) > 0 {
			fmt.Printf("  (missing: %v)", missing)
		}
		fmt.Println()
	}

	if *query != "" {
		normalized := normalize.Normalize(*query)
		fmt.Printf("\nquery %q normalizes to %q\n", *query, normalized)
		for _, rec := range ds.Records() {
			if normalized != "" && strings.Contains(rec.NormalizedName, normalized) {
				fmt.Printf("  matches: %s\n", rec.Label)
			}
		}
	}
}
