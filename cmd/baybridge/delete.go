package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nicolaschan/baybridge/client"
	"github.com/nicolaschan/baybridge/event"
)

var deletePriority uint64

var deleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Publish a tombstone for NAME in the local principal's keyspace",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().Uint64Var(&deletePriority, "priority", 0, "last-writer-wins priority for the tombstone")
}

func runDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	key, err := loadSigningKey(cfg)
	if err != nil {
		return fmt.Errorf("loading signing key: %w", err)
	}

	priority := deletePriority
	if !cmd.Flags().Changed("priority") {
		priority = uint64(time.Now().Unix())
	}

	name := args[0]
	inner := event.DeletionEvent{Name: event.Name(name), Priority: event.Priority(priority)}
	signed := key.Sign(inner)

	c := client.New(dialPeers(cfg))
	if err := c.Delete(context.Background(), signed); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	fmt.Printf("deleted %q\n", name)
	return nil
}
