package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/searchcore/internal/version"
	"github.com/kailas-cloud/searchcore/pkg/client"
)

type globalFlags struct {
	addr   string
	apiKey string
}

func (g *globalFlags) client() (*client.Client, error) {
	return client.New(g.addr, client.WithAPIKey(g.apiKey))
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "searchctl",
		Short:         "Command line client for the searchcore API",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.addr, "addr", envOr("SEARCHCORE_ADDR", "http://localhost:8080"), "server address")
	root.PersistentFlags().StringVar(&g.apiKey, "api-key", os.Getenv("SEARCHCORE_API_KEY"), "API key")

	root.AddCommand(
		newSearchCmd(g),
		newRouteCmd(g),
		newUsageCmd(g),
		newCacheCmd(g),
		newProfilesCmd(g),
		newHealthCmd(g),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
