package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var pollID string

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Poll the cloud agent for an acceptance message (update_state)",
	RunE:  runPoll,
}

func init() {
	rootCmd.AddCommand(pollCmd)
	pollCmd.Flags().StringVar(&pollID, "id", "", "connection to poll")
	pollCmd.MarkFlagRequired("id")
}

func runPoll(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := newSession()
	if err != nil {
		return err
	}

	handle, err := s.resume(ctx, pollID)
	if err != nil {
		return err
	}

	if err := s.manager.UpdateState(ctx, handle); err != nil {
		return err
	}
	if err := s.persist(ctx, pollID, handle); err != nil {
		return err
	}

	fmt.Printf("connection %q is now %s\n", pollID, s.manager.GetState(handle))
	return nil
}
