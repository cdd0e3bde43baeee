package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/agentconn/pkg/agent/connection"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved connections and their lifecycle state",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ids, err := listIDs()
	if err != nil {
		return err
	}

	for _, id := range ids {
		rec, err := loadRecord(id)
		if err != nil {
			fmt.Printf("%s\t<unreadable: %v>\n", id, err)
			continue
		}
		entity, err := connection.FromString(rec.Entity)
		if err != nil {
			fmt.Printf("%s\t<malformed entity: %v>\n", id, err)
			continue
		}
		fmt.Printf("%s\t%s\n", id, entity.State)
	}
	if len(ids) == 0 {
		fmt.Println("(no connections)")
	}
	return nil
}
