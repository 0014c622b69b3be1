package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nicolaschan/baybridge/client"
	"github.com/nicolaschan/baybridge/event"
)

var getCmd = &cobra.Command{
	Use:   "get VERIFYING_KEY NAME",
	Short: "Resolve the current value of NAME under a principal's keyspace across peers",
	Args:  cobra.ExactArgs(2),
	RunE:  runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	vk, err := event.ParseVerifyingKey(args[0])
	if err != nil {
		return fmt.Errorf("parsing verifying key: %w", err)
	}
	name := event.Name(args[1])

	c := client.New(dialPeers(cfg))
	value, ok, err := c.Get(context.Background(), vk, name, time.Now())
	if err != nil {
		return fmt.Errorf("get failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("%s/%s: not found or deleted", args[0], args[1])
	}

	fmt.Println(string(value))
	return nil
}
