package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/searchcore/pkg/client"
)

func newSearchCmd(g *globalFlags) *cobra.Command {
	var (
		maxResults     int
		progressive    bool
		conversationID string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a search",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			req := client.SearchRequest{
				Query:          strings.Join(args, " "),
				MaxResults:     maxResults,
				ConversationID: conversationID,
			}
			out := cmd.OutOrStdout()

			if !progressive {
				resp, err := c.Search(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printResults(out, resp)
			}

			resp, err := c.SearchStream(cmd.Context(), req, func(ev client.ProgressEvent) {
				fmt.Fprintf(out, "batch %d: %d results\n", ev.Batch, len(ev.Results))
			})
			if err != nil {
				return err
			}
			return printResults(out, resp)
		},
	}

	cmd.Flags().IntVarP(&maxResults, "max", "n", 0, "maximum results (server default when 0)")
	cmd.Flags().BoolVar(&progressive, "progressive", false, "stream results batch by batch")
	cmd.Flags().StringVar(&conversationID, "conversation", "", "conversation id for local retrieval")
	return cmd
}

func printResults(out io.Writer, resp client.SearchResponse) error {
	if len(resp.Results) == 0 {
		fmt.Fprintln(out, "No results.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSCORE\tSOURCE\tTITLE\tLINK")
	for i, r := range resp.Results {
		fmt.Fprintf(w, "%d\t%.3f\t%s\t%s\t%s\n", i+1, r.Score, r.Source, r.Title, r.Link)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d results via %s in %.1fms (cached: %t)\n",
		resp.TotalFound, resp.Path, resp.ResponseTimeMs, resp.FromCache)
	return nil
}
