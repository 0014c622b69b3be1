// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "baybridge",
	Short: "baybridge - a signed, eventually-consistent key/value mesh",
	Long: `baybridge runs and talks to peers of a small, signed, eventually
consistent key/value store distributed over a gossiping mesh. Every write
is an Ed25519-signed event; peers converge through pull-based anti-entropy
and a content-addressed immutable blob store sits alongside the keyspace.

This tool supports:
- Running a peer process (serve)
- Publishing and tombstoning values (set, delete)
- Reading a value or an entire namespace across peers (get, namespace)
- Inspecting the local principal's identity (whoami)`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML or JSON config file (default: config/<env>.yaml, config/default.yaml or config/config.yaml, else built-in defaults)")
}
