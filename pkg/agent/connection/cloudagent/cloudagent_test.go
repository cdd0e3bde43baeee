package cloudagent_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/agentconn/pkg/agent/connection/cloudagent"
)

func noopSign(_ context.Context, _ string, _ []byte) ([]byte, error) {
	return []byte("sig"), nil
}

func TestCreateKeysAndSendInvite(t *testing.T) {
	mock := cloudagent.NewMockTransport()
	client := cloudagent.NewClient(mock, noopSign)
	ctx := context.Background()

	keys, err := client.CreateKeys(ctx, "pwverkey", cloudagent.CreateKeysInput{ForDID: "did:sov:me", ForVerkey: "pwverkey"})
	require.NoError(t, err)
	require.NotEmpty(t, keys.AgentDID)
	require.NotEmpty(t, keys.AgentVK)

	invite, err := client.SendInvite(ctx, "pwverkey", keys.AgentDID, keys.AgentVK, cloudagent.SendInviteInput{})
	require.NoError(t, err)
	require.NotEmpty(t, invite.ConnReqID)
	require.NotEmpty(t, invite.InviteURL)

	sent := mock.SentRequests()
	require.Len(t, sent, 2)
	require.Equal(t, cloudagent.TypeCreateKeys, sent[0].Type)
	require.Equal(t, cloudagent.TypeSendInvite, sent[1].Type)
	require.Equal(t, []byte("sig"), sent[0].Sig)
}

func TestGetMessagesDrainsQueue(t *testing.T) {
	mock := cloudagent.NewMockTransport()
	client := cloudagent.NewClient(mock, noopSign)
	ctx := context.Background()

	mock.QueueMessage(cloudagent.Message{StatusCode: cloudagent.StatusAccepted, MsgType: cloudagent.MsgTypeConnReqAnswer})

	msgs, err := client.GetMessages(ctx, "pwverkey", "agentdid", "agentvk")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, cloudagent.StatusAccepted, msgs[0].StatusCode)

	msgs, err = client.GetMessages(ctx, "pwverkey", "agentdid", "agentvk")
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestDeleteConnection(t *testing.T) {
	mock := cloudagent.NewMockTransport()
	client := cloudagent.NewClient(mock, noopSign)

	err := client.DeleteConnection(context.Background(), "pwverkey", "agentdid", "agentvk")
	require.NoError(t, err)
}

func TestSendFuncOverride(t *testing.T) {
	mock := cloudagent.NewMockTransport()
	mock.SendFunc = func(_ context.Context, req *cloudagent.Request) (*cloudagent.Response, error) {
		if req.Type == cloudagent.TypeDeleteConnection {
			return nil, context.DeadlineExceeded
		}
		return nil, nil
	}
	client := cloudagent.NewClient(mock, noopSign)

	err := client.DeleteConnection(context.Background(), "pwverkey", "agentdid", "agentvk")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
