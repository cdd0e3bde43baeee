package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	acceptID          string
	acceptInviteFile  string
	acceptAbbreviated bool
)

var acceptCmd = &cobra.Command{
	Use:   "accept",
	Short: "Create a connection from an invitation and accept it",
	Long: `accept reads an invitation payload (from --invite-file, or stdin if
omitted), creates a new connection in RequestReceived, then immediately
drives it to Accepted the way a standalone create-with-invite followed by
connect would.`,
	RunE: runAccept,
}

func init() {
	rootCmd.AddCommand(acceptCmd)
	acceptCmd.Flags().StringVar(&acceptID, "id", "", "source_id for the new connection")
	acceptCmd.Flags().StringVar(&acceptInviteFile, "invite-file", "", "path to the invitation JSON (default: stdin)")
	acceptCmd.Flags().BoolVar(&acceptAbbreviated, "abbreviated", false, "the invitation is in abbreviated key form")
	acceptCmd.MarkFlagRequired("id")
}

func runAccept(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := newSession()
	if err != nil {
		return err
	}

	invite, err := readInvite()
	if err != nil {
		return err
	}

	handle, err := s.manager.CreateConnectionWithInvite(ctx, acceptID, invite, acceptAbbreviated)
	if err != nil {
		return err
	}
	if err := s.manager.Connect(ctx, handle, nil); err != nil {
		return err
	}
	if err := s.persist(ctx, acceptID, handle); err != nil {
		return err
	}

	fmt.Printf("connection %q is now %s\n", acceptID, s.manager.GetState(handle))
	return nil
}

func readInvite() ([]byte, error) {
	if acceptInviteFile == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(acceptInviteFile)
}
