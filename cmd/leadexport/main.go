// leadscope-leadexport
//
// One-shot exporter: reads collector artifacts from the data directory,
// classifies and filters the rows, and writes the payload JSON to --output.
// The flag contract matches what the local-process loader invokes, so a
// leadserve instance running next to a collector can use this binary as its
// EXPORT_CMD.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"leadscope/internal/artifact"
	"leadscope/internal/lead"
	"leadscope/internal/vertical"
)

func main() {
	var (
		output             = flag.String("output", "", "path to write the payload JSON (required)")
		limit              = flag.Int("limit", 200, "maximum rows in the payload")
		minScore           = flag.Int("min-score", 65, "minimum score a row must reach")
		onlyTarget         = flag.Bool("only-target", true, "keep only rows classified as target customers")
		excludeCompetitors = flag.Bool("exclude-competitors", true, "drop rows classified as competitors")
		verticalKey        = flag.String("vertical", vertical.Default, "vertical playbook to classify against")
		dataDir            = flag.String("data-dir", "data", "collector data directory")
		verticalsFile      = flag.String("verticals-file", "", "optional verticals override YAML")
	)
	flag.Parse()

	if *output == "" {
		log.Fatal("[leadexport] --output is required")
	}
	if err := vertical.LoadOverrides(*verticalsFile); err != nil {
		log.Fatalf("[leadexport] Verticals file: %v", err)
	}

	key := vertical.Normalize(*verticalKey)
	pb := vertical.Get(key)

	fields := artifact.Collect(*dataDir)
	rows := make([]lead.Row, 0, len(fields))
	for _, f := range fields {
		if row, ok := lead.Build(f, pb); ok {
			rows = append(rows, row)
		}
	}
	rows = lead.Dedupe(rows)
	lead.Sort(rows)

	payload := lead.BuildPayload(rows, lead.Filter{
		Limit:              *limit,
		MinScore:           *minScore,
		OnlyTarget:         *onlyTarget,
		ExcludeCompetitors: *excludeCompetitors,
	}, key, time.Now())

	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		log.Fatalf("[leadexport] Encode payload: %v", err)
	}
	if dir := filepath.Dir(*output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("[leadexport] Create output dir: %v", err)
		}
	}
	if err := os.WriteFile(*output, raw, 0o644); err != nil {
		log.Fatalf("[leadexport] Write %s: %v", *output, err)
	}

	log.Printf("[leadexport] Wrote %d of %d collected rows to %s", len(payload.Rows), len(fields), *output)
}
