package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var createID string

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new connection in the Initialized state",
	RunE:  runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringVar(&createID, "id", "", "source_id for the new connection")
	createCmd.MarkFlagRequired("id")
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := newSession()
	if err != nil {
		return err
	}

	handle, err := s.manager.CreateConnection(ctx, createID)
	if err != nil {
		return err
	}
	if err := s.persist(ctx, createID, handle); err != nil {
		return err
	}

	fmt.Printf("created connection %q, state=%s\n", createID, s.manager.GetState(handle))
	return nil
}
