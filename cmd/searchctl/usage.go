package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newUsageCmd(g *globalFlags) *cobra.Command {
	var (
		reset   bool
		profile string
		tokens  int64
	)

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show, record or reset per-profile token usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if reset {
				if err := c.ResetUsage(ctx); err != nil {
					return err
				}
				fmt.Fprintln(out, "Usage counters reset.")
				return nil
			}
			if profile != "" {
				if err := c.TrackUsage(ctx, profile, tokens); err != nil {
					return err
				}
			}

			stats, err := c.Usage(ctx)
			if err != nil {
				return err
			}
			if len(stats) == 0 {
				fmt.Fprintln(out, "No usage recorded.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROFILE\tREQUESTS\tTOKENS\tEST. COST")
			for _, s := range stats {
				fmt.Fprintf(w, "%s\t%d\t%d\t%.4f\n", s.Profile, s.Requests, s.Tokens, s.EstimatedCost)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "reset all counters")
	cmd.Flags().StringVar(&profile, "track", "", "record usage for this profile before listing")
	cmd.Flags().Int64Var(&tokens, "tokens", 0, "tokens to record with --track")
	return cmd
}
