package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/searchcore/pkg/client"
)

func newRouteCmd(g *globalFlags) *cobra.Command {
	var (
		profile     string
		totalTokens int
	)

	cmd := &cobra.Command{
		Use:   "route <query>",
		Short: "Show which model profile a query routes to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			req := client.RouteRequest{Query: strings.Join(args, " "), Profile: profile}
			if totalTokens > 0 {
				req.ConversationContext = &client.ConversationContext{TotalTokens: totalTokens}
			}

			resp, err := c.Route(cmd.Context(), req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Profile:    %s (%s)\n", resp.Profile.ID, resp.Profile.Model)
			if resp.Rule != "" {
				fmt.Fprintf(out, "Rule:       %s\n", resp.Rule)
			}
			fmt.Fprintf(out, "Downgraded: %t\nReasoning:  %s\n", resp.Downgraded, resp.Reasoning)
			return nil
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "force a profile")
	cmd.Flags().IntVar(&totalTokens, "conversation-tokens", 0, "tokens already used by the conversation")
	return cmd
}
