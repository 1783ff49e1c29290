package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) bundleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Manage versioned model bundles",
		Long: `Register, list, activate and roll back model bundles kept in the bundle
directory. "serve" and "predict" use the active bundle when --bundle-dir is set.`,
		Example: `  # Register a freshly trained bundle and make it active
  loanscore bundle add models/best_model.json models/preprocessing_objects.json --activate

  # Go back to the previous bundle
  loanscore bundle rollback`,
	}

	cmd.AddCommand(a.bundleListCmd())
	cmd.AddCommand(a.bundleAddCmd())
	cmd.AddCommand(a.bundleActivateCmd())
	cmd.AddCommand(a.bundleRollbackCmd())
	return cmd
}

func (a *app) bundleListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered bundles, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := openRegistry(a.settings)
			if err != nil {
				return err
			}
			versions := reg.List()
			out := cmd.OutOrStdout()
			if len(versions) == 0 {
				fmt.Fprintln(out, dimStyle.Render("No bundles registered."))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "VERSION\tACTIVE\tCREATED\tMODEL SHA-256\tNOTE")
			for _, v := range versions {
				active := ""
				if v.IsActive {
					active = "*"
				}
				sha := v.ModelSHA256
				if len(sha) > 12 {
					sha = sha[:12]
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					v.Version, active, v.CreatedAt.Local().Format("2006-01-02 15:04:05"), sha, v.Note)
			}
			return w.Flush()
		},
	}
}

func (a *app) bundleAddCmd() *cobra.Command {
	var (
		note     string
		activate bool
	)
	cmd := &cobra.Command{
		Use:   "add MODEL PREPROCESSING",
		Short: "Validate and register a bundle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := openRegistry(a.settings)
			if err != nil {
				return err
			}
			v, err := reg.Add(args[0], args[1], note)
			if err != nil {
				return fmt.Errorf("failed to register bundle: %w", err)
			}
			if activate {
				if err := reg.Activate(v.Version); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s\n", headerStyle.Render(v.Version))
			return nil
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "free-form note stored with the version")
	cmd.Flags().BoolVar(&activate, "activate", false, "make the new bundle active")
	return cmd
}

func (a *app) bundleActivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate VERSION",
		Short: "Make a registered bundle active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := openRegistry(a.settings)
			if err != nil {
				return err
			}
			if err := reg.Activate(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Activated %s\n", headerStyle.Render(args[0]))
			return nil
		},
	}
}

func (a *app) bundleRollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback",
		Short: "Activate the bundle registered before the active one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := openRegistry(a.settings)
			if err != nil {
				return err
			}
			v, err := reg.Rollback()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rolled back to %s\n", headerStyle.Render(v.Version))
			return nil
		},
	}
}
