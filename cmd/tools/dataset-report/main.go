// Command dataset-report loads a nuScenes dataset root and writes an HTML
// report: frames per segment and 3D boxes per category.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/meridian-data/fusionbay/internal/report"
	"github.com/meridian-data/fusionbay/opendataset/nuscenes"
)

func main() {
	root := flag.String("root", "", "dataset root directory (required)")
	output := flag.String("o", "dataset-report.html", "output HTML file")
	flag.Parse()

	if *root == "" {
		log.Fatal("missing -root")
	}

	ds, err := nuscenes.Load(*root)
	if err != nil {
		log.Fatalf("load dataset: %v", err)
	}

	summary := report.Summarize(ds)

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("create output: %v", err)
	}
	defer f.Close()

	if err := summary.Render(f); err != nil {
		log.Fatalf("render report: %v", err)
	}
	log.Printf("✓ Report for %d segments written to %s", len(summary.SegmentNames), *output)
}
