package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"loanscore/internal/client"
	"loanscore/internal/loan"
	"loanscore/internal/storage"
)

func (a *app) historyCmd() *cobra.Command {
	var (
		limit  int
		remote bool
		url    string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently served predictions",
		Long: `List the newest entries of the prediction log kept by "loanscore serve".

The log is locked while a server runs; use --remote to read it through the
server instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				limit = a.settings.HistoryLimit
			}

			var (
				records []storage.PredictionRecord
				err     error
			)
			if remote {
				if url == "" {
					url = a.settings.ServerURL
				}
				records, err = client.New(url, a.settings.RequestTimeout).Recent(limit)
			} else {
				records, err = readHistory(a.settings.DataPath, limit)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			return renderHistory(out, records)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of entries (default from HISTORY_LIMIT)")
	cmd.Flags().BoolVar(&remote, "remote", false, "read the log from a running server")
	cmd.Flags().StringVar(&url, "url", "", "server URL for --remote (default from SERVER_URL)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	return cmd
}

func readHistory(dataPath string, limit int) ([]storage.PredictionRecord, error) {
	store, err := storage.New(dataPath)
	if err != nil {
		return nil, fmt.Errorf("open prediction log: %w", err)
	}
	defer store.Close()
	return store.Recent(limit)
}

func renderHistory(out io.Writer, records []storage.PredictionRecord) error {
	if len(records) == 0 {
		fmt.Fprintln(out, dimStyle.Render("No predictions logged yet."))
		return nil
	}

	fmt.Fprintln(out, headerStyle.Render("Recent predictions"))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tREQUEST\tDECISION\tAPPROVAL\tERROR")
	for _, r := range records {
		decision := r.Label
		if r.Error == "" {
			decision = decisionStyle(loan.Decision(r.Label)).Render(r.Label)
		}
		approval := percent(r.PApprove)
		if r.Error != "" {
			approval = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.RequestID,
			decision,
			approval,
			r.ErrorKind)
	}
	return w.Flush()
}
