package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Print the local principal's verifying key, generating one if none exists yet",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

func runWhoami(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	key, err := loadSigningKey(cfg)
	if err != nil {
		return fmt.Errorf("loading signing key: %w", err)
	}
	fmt.Println(key.VerifyingKey().String())
	return nil
}
