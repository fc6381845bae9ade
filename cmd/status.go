package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the persisted lead state table and recorded failures",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Migrate(ctx); err != nil {
			return err
		}

		states, err := store.Load(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(states) == 0 {
			fmt.Fprintln(out, "No leads processed yet.")
		} else {
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "LEAD ID\tSTATUS\tFOLLOW-UPS\tLAST CONTACT\tNEXT ACTION")
			for _, st := range states {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					st.LeadID, st.Status, st.FollowUpCount,
					st.LastContact.Format(time.RFC3339), st.NextAction)
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}

		failures, err := store.ListFailures(ctx)
		if err != nil {
			return err
		}
		if len(failures) > 0 {
			fmt.Fprintf(out, "\n%d recorded failure(s):\n", len(failures))
			for _, f := range failures {
				fmt.Fprintf(out, "  %s  lead %s: %s\n",
					f.CreatedAt.Format(time.RFC3339), f.LeadID, f.Error)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
