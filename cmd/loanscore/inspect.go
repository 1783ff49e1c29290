package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"loanscore/internal/artifact"
)

func (a *app) inspectCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the loaded model bundle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := loadBundle(a.settings)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					artifact.Info
					Features []string `json:"features"`
				}{b.Info, b.FeatureNames()})
			}
			return renderBundle(out, b)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print bundle info as JSON")
	return cmd
}

func renderBundle(out io.Writer, b *artifact.Bundle) error {
	fmt.Fprintln(out, headerStyle.Render("Model bundle"))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Model:\t%s\n", b.Info.ModelPath)
	fmt.Fprintf(w, "Preprocessing:\t%s\n", b.Info.PreprocessingPath)
	fmt.Fprintf(w, "Kind:\t%s\n", b.Info.ModelKind)
	fmt.Fprintf(w, "Features:\t%d\n", b.Info.NumFeatures)
	fmt.Fprintf(w, "Model SHA-256:\t%s\n", b.Info.ModelSHA256)
	fmt.Fprintf(w, "Modified:\t%s\n", b.Info.ModelModTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Numerical:\t%s\n", strings.Join(b.Roles.Numerical, ", "))
	fmt.Fprintf(w, "Nominal:\t%s\n", strings.Join(b.Roles.NonHierarchical, ", "))
	fmt.Fprintf(w, "Ordinal:\t%s (%s)\n", b.Roles.Hierarchical, strings.Join(b.Ordinal.Categories, " < "))
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render("Categories"))
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for j, col := range b.OneHot.Columns {
		fmt.Fprintf(w, "%s\t%s\n", col, strings.Join(b.OneHot.Categories[j], ", "))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if names := b.FeatureNames(); len(names) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, headerStyle.Render("Feature order"))
		for i, n := range names {
			fmt.Fprintf(out, "%s %s\n", dimStyle.Render(fmt.Sprintf("%3d", i)), n)
		}
	}
	return nil
}
