package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/agentconn/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the agentconn version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
