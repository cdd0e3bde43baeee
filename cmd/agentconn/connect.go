package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/agentconn/pkg/agent/connection"
)

var (
	connectID           string
	connectPhone        string
	connectUsePublicDID bool
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Advance a connection's state machine (send/resend invite, or accept)",
	RunE:  runConnect,
}

func init() {
	rootCmd.AddCommand(connectCmd)
	connectCmd.Flags().StringVar(&connectID, "id", "", "connection to advance")
	connectCmd.Flags().StringVar(&connectPhone, "phone", "", "phone number to pass to send-invite")
	connectCmd.Flags().BoolVar(&connectUsePublicDID, "use-public-did", false, "include the institution public DID")
	connectCmd.MarkFlagRequired("id")
}

func runConnect(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := newSession()
	if err != nil {
		return err
	}

	handle, err := s.resume(ctx, connectID)
	if err != nil {
		return err
	}

	opts, err := json.Marshal(connection.ConnectOptions{Phone: connectPhone, UsePublicDID: connectUsePublicDID})
	if err != nil {
		return err
	}

	if err := s.manager.Connect(ctx, handle, opts); err != nil {
		return err
	}
	if err := s.persist(ctx, connectID, handle); err != nil {
		return err
	}

	fmt.Printf("connection %q is now %s\n", connectID, s.manager.GetState(handle))
	return nil
}
