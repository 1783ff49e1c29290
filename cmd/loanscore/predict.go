package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"loanscore/internal/client"
	"loanscore/internal/loan"
	"loanscore/internal/preprocess"
	"loanscore/internal/server"
)

func (a *app) predictCmd() *cobra.Command {
	var (
		sample string
		file   string
		remote bool
		url    string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score one applicant or a batch of applicants",
		Long: `Score applicants read from a JSON file (an object or an array of objects),
or one of the built-in demo applicants.

A batch is preprocessed as a whole: outlier capping and income imputation use
statistics of the rows submitted together.`,
		Example: `  # Score the demo applicant that should be approved
  loanscore predict --sample approved

  # Score a batch from a file against a running server
  loanscore predict --file applicants.json --remote`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := readInput(cmd.InOrStdin(), sample, file)
			if err != nil {
				return err
			}

			var preds []server.Prediction
			if remote {
				if url == "" {
					url = a.settings.ServerURL
				}
				resp, err := client.New(url, a.settings.RequestTimeout).Predict(in, "")
				if err != nil {
					return err
				}
				preds = resp.Predictions
			} else {
				preds, err = a.predictLocal(in)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(preds)
			}
			renderPredictions(out, "Loan decision", preds)
			return nil
		},
	}

	cmd.Flags().StringVar(&sample, "sample", "", "score a demo applicant (approved, rejected)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with applicants, - for stdin")
	cmd.Flags().BoolVar(&remote, "remote", false, "score on a running server instead of locally")
	cmd.Flags().StringVar(&url, "url", "", "server URL for --remote (default from SERVER_URL)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print predictions as JSON")
	cmd.MarkFlagsMutuallyExclusive("sample", "file")
	return cmd
}

func readInput(stdin io.Reader, sample, file string) (preprocess.Input, error) {
	switch {
	case sample != "":
		a, err := loan.Sample(sample)
		if err != nil {
			return nil, err
		}
		return preprocess.Record(a.Record()), nil
	case file != "":
		var (
			data []byte
			err  error
		)
		if file == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(file)
		}
		if err != nil {
			return nil, fmt.Errorf("read applicants: %w", err)
		}
		in, err := preprocess.ParseJSON(data)
		if err != nil {
			return nil, fmt.Errorf("parse applicants: %w", err)
		}
		return in, nil
	default:
		return nil, fmt.Errorf("nothing to score: pass --sample or --file")
	}
}

func (a *app) predictLocal(in preprocess.Input) ([]server.Prediction, error) {
	b, err := loadBundle(a.settings)
	if err != nil {
		return nil, err
	}
	p, err := newPredictor(b, a.settings)
	if err != nil {
		return nil, err
	}
	res, err := p.PredictLoanStatus(in)
	if err != nil {
		return nil, err
	}
	preds := make([]server.Prediction, len(res.Labels))
	for i, label := range res.Labels {
		preds[i] = server.Prediction{
			Label:                label,
			ApprovalProbability:  res.Probabilities[i].Approve(),
			RejectionProbability: res.Probabilities[i].Reject(),
		}
	}
	return preds, nil
}
