package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nicolaschan/baybridge/client"
	"github.com/nicolaschan/baybridge/event"
)

var namespaceCmd = &cobra.Command{
	Use:   "namespace NAME",
	Short: "Resolve NAME's current value for every principal that has published under it",
	Args:  cobra.ExactArgs(1),
	RunE:  runNamespace,
}

func init() {
	rootCmd.AddCommand(namespaceCmd)
}

func runNamespace(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	name := event.Name(args[0])
	c := client.New(dialPeers(cfg))
	results, err := c.GetNamespace(context.Background(), name, time.Now())
	if err != nil {
		return fmt.Errorf("namespace query failed: %w", err)
	}

	for _, r := range results {
		fmt.Printf("%s\t%s\n", r.VerifyingKey.String(), string(r.Value))
	}
	return nil
}
