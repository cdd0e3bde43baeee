package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var deleteID string

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a connection on the cloud agent and locally",
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().StringVar(&deleteID, "id", "", "connection to delete")
	deleteCmd.MarkFlagRequired("id")
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := newSession()
	if err != nil {
		return err
	}

	handle, err := s.resume(ctx, deleteID)
	if err != nil {
		return err
	}

	if err := s.manager.DeleteConnection(ctx, handle); err != nil {
		return err
	}

	path, err := recordPath(deleteID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return err
	}

	fmt.Printf("deleted connection %q\n", deleteID)
	return nil
}
