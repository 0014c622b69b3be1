package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nicolaschan/baybridge/client"
)

var keyspaceCmd = &cobra.Command{
	Use:   "keyspace",
	Short: "List the distinct verifying keys known across configured peers",
	Args:  cobra.NoArgs,
	RunE:  runKeyspace,
}

func init() {
	rootCmd.AddCommand(keyspaceCmd)
}

func runKeyspace(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	c := client.New(dialPeers(cfg))
	keys, err := c.ListKeyspace(context.Background())
	if err != nil {
		return fmt.Errorf("keyspace query failed: %w", err)
	}

	for _, k := range keys {
		fmt.Println(k.String())
	}
	return nil
}
