package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newProfilesCmd(g *globalFlags) *cobra.Command {
	var showRules bool

	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List model profiles and routing rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			resp, err := c.Profiles(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tMODEL\tMAX TOKENS\tWINDOW\tCOST/1K")
			for _, p := range resp.Profiles {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.2f\n", p.ID, p.Model, p.MaxTokens, p.ContextWindowLimit, p.CostPerThousand)
			}
			if showRules {
				rules := resp.Rules
				sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority > rules[j].Priority })
				fmt.Fprintln(w, "\nRULE\tTARGET\tPRIORITY\tWORDS\tKEYWORDS")
				for _, r := range rules {
					words := fmt.Sprintf("%d+", r.MinWords)
					if r.MaxWords > 0 {
						words = fmt.Sprintf("%d-%d", r.MinWords, r.MaxWords)
					}
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", r.Name, r.Target, r.Priority, words, strings.Join(r.Keywords, ","))
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&showRules, "rules", false, "also list routing rules")
	return cmd
}
