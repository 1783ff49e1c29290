// Command export-predictions dumps the prediction log as newline-delimited
// JSON, one applicant per line with the served decision, for auditing and
// for building the next training set.
package main

import (
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"loanscore/internal/storage"
)

// ExportRecord is one line of the export.
type ExportRecord struct {
	Timestamp   time.Time      `json:"timestamp"`
	RequestID   string         `json:"request_id,omitempty"`
	Applicant   map[string]any `json:"applicant,omitempty"`
	LoanStatus  int            `json:"loan_status"`
	Label       string         `json:"label,omitempty"`
	PApprove    float64        `json:"p_approve"`
	ModelSHA256 string         `json:"model_sha256,omitempty"`
	ErrorKind   string         `json:"error_kind,omitempty"`
}

func main() {
	var (
		dataPath      = flag.String("data", "data", "Directory of the prediction log")
		outputPath    = flag.String("output", "predictions.jsonl", "Output file, - for stdout")
		days          = flag.Int("days", 30, "Number of days to export (0 for all)")
		label         = flag.String("label", "", "Only export this decision (Approved, Rejected)")
		includeErrors = flag.Bool("include-errors", false, "Also export failed calls")
	)
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	store, err := storage.New(*dataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open prediction log")
	}
	defer store.Close()

	end := time.Now()
	start := time.Unix(0, 0)
	if *days > 0 {
		start = end.AddDate(0, 0, -*days)
	}
	records, err := store.GetPredictions(start, end)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read prediction log")
	}

	out := os.Stdout
	if *outputPath != "-" {
		f, err := os.Create(*outputPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create output file")
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	counts := make(map[string]int)
	for _, r := range records {
		if r.Error != "" && !*includeErrors {
			continue
		}
		if *label != "" && r.Label != *label {
			continue
		}
		rec := ExportRecord{
			Timestamp:   r.Timestamp,
			RequestID:   r.RequestID,
			Applicant:   r.Applicant,
			Label:       r.Label,
			PApprove:    r.PApprove,
			ModelSHA256: r.ModelSHA256,
			ErrorKind:   r.ErrorKind,
		}
		if r.Label == "Approved" {
			rec.LoanStatus = 1
		}
		if err := enc.Encode(rec); err != nil {
			log.Fatal().Err(err).Msg("Failed to write record")
		}
		counts[r.Label]++
	}

	total := 0
	for l, n := range counts {
		total += n
		log.Info().Str("label", l).Int("count", n).Msg("Exported")
	}
	if total == 0 {
		log.Warn().Msg("No records found matching criteria")
	}
	log.Info().Int("records", total).Str("output", *outputPath).Msg("Export finished")
}
