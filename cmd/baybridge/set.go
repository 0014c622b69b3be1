package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nicolaschan/baybridge/client"
	"github.com/nicolaschan/baybridge/event"
)

var (
	setTTLSeconds  int64
	setExpiresAt   int64
	setPriority    uint64
)

var setCmd = &cobra.Command{
	Use:   "set NAME VALUE",
	Short: "Publish a signed value under NAME in the local principal's keyspace",
	Args:  cobra.ExactArgs(2),
	RunE:  runSet,
}

func init() {
	rootCmd.AddCommand(setCmd)
	setCmd.Flags().Int64Var(&setTTLSeconds, "ttl", 0, "expire this value after N seconds from now")
	setCmd.Flags().Int64Var(&setExpiresAt, "expires-at", 0, "expire this value at a specific Unix timestamp")
	setCmd.Flags().Uint64Var(&setPriority, "priority", 0, "last-writer-wins priority (higher wins ties against equal priority by envelope bytes)")
}

func runSet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	key, err := loadSigningKey(cfg)
	if err != nil {
		return fmt.Errorf("loading signing key: %w", err)
	}

	var expiresAt *uint64
	switch {
	case setExpiresAt > 0:
		v := uint64(setExpiresAt)
		expiresAt = &v
	case setTTLSeconds > 0:
		expiresAt = parseTTL(setTTLSeconds)
	}

	priority := setPriority
	if !cmd.Flags().Changed("priority") {
		priority = uint64(time.Now().Unix())
	}

	name, value := args[0], args[1]
	inner := event.SetEvent{
		Name:      event.Name(name),
		Value:     event.Value(value),
		Priority:  event.Priority(priority),
		ExpiresAt: expiresAt,
	}
	signed := key.Sign(inner)

	c := client.New(dialPeers(cfg))
	if err := c.Set(context.Background(), signed); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}

	fmt.Printf("set %q (priority=%d)\n", name, priority)
	return nil
}
