package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	inviteID          string
	inviteAbbreviated bool
)

var inviteCmd = &cobra.Command{
	Use:   "invite",
	Short: "Print a connection's invitation payload",
	RunE:  runInvite,
}

func init() {
	rootCmd.AddCommand(inviteCmd)
	inviteCmd.Flags().StringVar(&inviteID, "id", "", "connection to read")
	inviteCmd.Flags().BoolVar(&inviteAbbreviated, "abbreviated", false, "emit the abbreviated, QR-code-sized form")
	inviteCmd.MarkFlagRequired("id")
}

func runInvite(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := newSession()
	if err != nil {
		return err
	}

	handle, err := s.resume(ctx, inviteID)
	if err != nil {
		return err
	}

	raw, err := s.manager.GetInviteDetails(handle, inviteAbbreviated)
	if err != nil {
		return err
	}

	fmt.Println(string(raw))
	return nil
}
