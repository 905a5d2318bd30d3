// Command catalog-export loads a nuScenes dataset root and exports its
// catalog (segments, frames, data records, boxes) into a sqlite file.
package main

import (
	"flag"
	"log"

	"github.com/meridian-data/fusionbay/internal/catalogdb"
	"github.com/meridian-data/fusionbay/opendataset/nuscenes"
)

func main() {
	root := flag.String("root", "", "dataset root directory (required)")
	output := flag.String("o", "catalog.db", "output sqlite file")
	flag.Parse()

	if *root == "" {
		log.Fatal("missing -root")
	}

	ds, err := nuscenes.Load(*root)
	if err != nil {
		log.Fatalf("load dataset: %v", err)
	}

	db, err := catalogdb.Open(*output)
	if err != nil {
		log.Fatalf("open catalog db: %v", err)
	}
	defer db.Close()

	if err := db.ExportDataset(ds); err != nil {
		log.Fatalf("export: %v", err)
	}

	segments, err := db.CountSegments()
	if err != nil {
		log.Fatalf("count segments: %v", err)
	}
	log.Printf("✓ Exported %d segments to %s", segments, *output)
}
