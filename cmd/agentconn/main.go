// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/agentconn/internal/logger"
	"github.com/sage-x-project/agentconn/internal/metrics"
)

var rootCmd = &cobra.Command{
	Use:   "agentconn",
	Short: "agentconn CLI - pairwise agent connection management",
	Long: `agentconn CLI drives the connection lifecycle: creating pairwise
identities, sending and accepting mediated invitations, polling for
acceptance, and tearing connections down.`,
	// PersistentPreRunE runs after cobra has parsed flags, unlike code in
	// main() itself, which runs before Execute() populates metricsAddr from
	// --metrics-addr.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if metricsAddr != "" {
			go func() {
				if err := metrics.StartServer(metricsAddr); err != nil {
					logger.GetDefaultLogger().Warn("metrics server stopped", logger.Error(err))
				}
			}()
		}
		return nil
	},
}

var (
	configPath  string
	storeDir    string
	metricsAddr string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML/JSON config file (institution profile, agency endpoint)")
	rootCmd.PersistentFlags().StringVar(&storeDir, "store", defaultStoreDir(), "directory holding serialized connections, one file per connection id")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "if set, expose Prometheus metrics on this address for the life of the command (e.g. during poll)")
}

func defaultStoreDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".agentconn"
	}
	return home + "/.agentconn/connections"
}
