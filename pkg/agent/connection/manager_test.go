package connection

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/agentconn/config"
	"github.com/sage-x-project/agentconn/pkg/agent/connection/abbrev"
	"github.com/sage-x-project/agentconn/pkg/agent/connection/cloudagent"
	"github.com/sage-x-project/agentconn/pkg/agent/wallet"
)

func noopSign(_ context.Context, _ string, _ []byte) ([]byte, error) {
	return []byte("sig"), nil
}

// newTestManager builds a Manager sharing w (so an invitee Manager built
// over the same wallet can decrypt payloads sealed to an inviter identity
// minted by a different Manager), each with its own mock cloud agent.
func newTestManager(t *testing.T, w wallet.Wallet, protocolType string) (*Manager, *cloudagent.MockTransport) {
	t.Helper()
	mock := cloudagent.NewMockTransport()
	client := cloudagent.NewClient(mock, noopSign)
	cfg := &config.ConnectionConfig{
		InstitutionDID:     "did:sov:institution",
		InstitutionName:    "Faber College",
		InstitutionLogoURL: "https://example.com/logo.png",
		ProtocolType:       protocolType,
		AgencyEndpoint:     "https://agency.example.com",
	}
	return NewManager(cfg, w, client, nil), mock
}

// --- Invariants (spec §8) ---

func TestInvariant1And2_CreateConnection(t *testing.T) {
	m, _ := newTestManager(t, wallet.NewMemoryWallet(), "2.0")
	ctx := context.Background()

	h, err := m.CreateConnection(ctx, "alice")
	require.NoError(t, err)
	require.NotZero(t, h)

	pwDID, err := m.GetPwDID(h)
	require.NoError(t, err)
	require.NotEmpty(t, pwDID)

	pwVerkey, err := m.GetPwVerkey(h)
	require.NoError(t, err)
	require.NotEmpty(t, pwVerkey)

	require.Equal(t, StateInitialized, m.GetState(h))
}

func TestInvariant3_ToStringFromStringRoundTrip(t *testing.T) {
	m, _ := newTestManager(t, wallet.NewMemoryWallet(), "2.0")
	ctx := context.Background()

	h, err := m.CreateConnection(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, m.Connect(ctx, h, nil))

	s1, err := m.ToString(h)
	require.NoError(t, err)

	h2, err := m.FromString(s1)
	require.NoError(t, err)

	s2, err := m.ToString(h2)
	require.NoError(t, err)
	require.Equal(t, s1, s2)
}

func TestInvariant4_AbbreviationRoundTrip(t *testing.T) {
	tree := map[string]any{
		"statusCode": "MS-102",
		"connReqId":  "req-1",
		"senderDetail": map[string]any{
			"name":    "Faber",
			"DID":     "did:sov:faber",
			"verKey":  "faberVk",
			"logoUrl": "https://example.com/logo.png",
			"agentKeyDlgProof": map[string]any{
				"agentDID":          "did:sov:faberAgent",
				"agentDelegatedKey": "faberAgentVk",
				"signature":         "sig",
			},
		},
		"senderAgencyDetail": map[string]any{
			"DID":      "did:sov:faberAgency",
			"verKey":   "faberAgencyVk",
			"endpoint": "https://agency.example.com",
		},
		"targetName": "alice",
		"statusMsg":  "message created",
	}

	abbreviated, err := abbrev.Abbreviate(tree, abbrev.Abbreviations)
	require.NoError(t, err)
	restored, err := abbrev.Unabbreviate(abbreviated, abbrev.Unabbreviations)
	require.NoError(t, err)
	require.Equal(t, tree, restored)

	reAbbreviated, err := abbrev.Abbreviate(restored, abbrev.Abbreviations)
	require.NoError(t, err)
	require.Equal(t, abbreviated, reAbbreviated)
}

func TestInvariant5_ReleaseThenAnyOpFails(t *testing.T) {
	m, _ := newTestManager(t, wallet.NewMemoryWallet(), "2.0")
	ctx := context.Background()

	h, err := m.CreateConnection(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, m.Release(h))

	_, err = m.GetPwDID(h)
	require.Error(t, err)
	var connErr *Error
	require.ErrorAs(t, err, &connErr)
	require.Equal(t, KindInvalidHandle, connErr.Kind)

	err = m.Release(h)
	require.Error(t, err)
}

func TestInvariant6_ReleaseAll(t *testing.T) {
	m, _ := newTestManager(t, wallet.NewMemoryWallet(), "2.0")
	ctx := context.Background()

	h1, err := m.CreateConnection(ctx, "alice")
	require.NoError(t, err)
	h2, err := m.CreateConnection(ctx, "bob")
	require.NoError(t, err)

	m.ReleaseAll()

	_, err = m.GetPwDID(h1)
	require.Error(t, err)
	_, err = m.GetPwDID(h2)
	require.Error(t, err)
}

func TestInvariant7_ConnectIllegalStateFails(t *testing.T) {
	m, _ := newTestManager(t, wallet.NewMemoryWallet(), "2.0")
	ctx := context.Background()

	h, err := m.CreateConnection(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, m.DeleteConnection(ctx, h))

	// Re-add a bare entity directly in None state to exercise the
	// transition guard without going through delete's release.
	h2, err := m.registry.Add(&Entity{SourceID: "bob", PwDID: "did", PwVerkey: "vk", State: StateNone})
	require.NoError(t, err)

	err = m.Connect(ctx, h2, nil)
	require.Error(t, err)
	var connErr *Error
	require.ErrorAs(t, err, &connErr)
	require.Equal(t, KindCommonError, connErr.Kind)
	require.Equal(t, CodeConnectionError, connErr.Code)
}

func TestInvariant8_DeleteConnectionThenReleaseFails(t *testing.T) {
	m, _ := newTestManager(t, wallet.NewMemoryWallet(), "2.0")
	ctx := context.Background()

	h, err := m.CreateConnection(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, m.DeleteConnection(ctx, h))

	err = m.Release(h)
	require.Error(t, err)
}

func TestInvariant9_GetStateUnknownHandleReturnsNone(t *testing.T) {
	m, _ := newTestManager(t, wallet.NewMemoryWallet(), "2.0")
	require.Equal(t, StateNone, m.GetState(Handle(999999)))
}

// --- Scenarios (spec §8) ---

func TestS1_InviterHappyPath(t *testing.T) {
	m, _ := newTestManager(t, wallet.NewMemoryWallet(), "2.0")
	ctx := context.Background()

	h, err := m.CreateConnection(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, m.Connect(ctx, h, nil))
	require.Equal(t, StateOfferSent, m.GetState(h))

	raw, err := m.GetInviteDetails(h, false)
	require.NoError(t, err)

	var tree map[string]any
	require.NoError(t, json.Unmarshal(raw, &tree))
	require.Contains(t, tree, "statusCode")
	require.Contains(t, tree, "senderDetail")
	require.Contains(t, tree, "senderAgencyDetail")
}

func TestS2_QRCodeAbbreviation(t *testing.T) {
	m, _ := newTestManager(t, wallet.NewMemoryWallet(), "2.0")
	ctx := context.Background()

	h, err := m.CreateConnection(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, m.Connect(ctx, h, nil))

	raw, err := m.GetInviteDetails(h, true)
	require.NoError(t, err)

	var tree map[string]any
	require.NoError(t, json.Unmarshal(raw, &tree))

	allowed := map[string]bool{"sc": true, "id": true, "s": true, "sa": true, "t": true, "sm": true}
	for k := range tree {
		require.True(t, allowed[k], "unexpected top-level key %q", k)
	}

	sender, ok := tree["s"].(map[string]any)
	require.True(t, ok, "expected abbreviated senderDetail under 's'")
	require.Contains(t, sender, "dp")
}

func TestS3_InviteeAcceptance(t *testing.T) {
	sharedWallet := wallet.NewMemoryWallet()
	inviter, _ := newTestManager(t, sharedWallet, "2.0")
	ctx := context.Background()

	h, err := inviter.CreateConnection(ctx, "alice")
	require.NoError(t, err)
	opts, _ := json.Marshal(ConnectOptions{UsePublicDID: true})
	require.NoError(t, inviter.Connect(ctx, h, opts))

	abbr, err := inviter.GetInviteDetails(h, true)
	require.NoError(t, err)

	invitee, _ := newTestManager(t, sharedWallet, "2.0")
	h2, err := invitee.CreateConnectionWithInvite(ctx, "faber", abbr, true)
	require.NoError(t, err)
	require.Equal(t, StateRequestReceived, invitee.GetState(h2))

	require.NoError(t, invitee.Connect(ctx, h2, nil))
	require.Equal(t, StateAccepted, invitee.GetState(h2))

	theirPublicDID, err := invitee.GetTheirPublicDID(h2)
	require.NoError(t, err)
	require.Equal(t, "did:sov:institution", theirPublicDID)
}

func TestS4_AcceptancePoll(t *testing.T) {
	sharedWallet := wallet.NewMemoryWallet()
	inviter, inviterMock := newTestManager(t, sharedWallet, "2.0")
	ctx := context.Background()

	h, err := inviter.CreateConnection(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, inviter.Connect(ctx, h, nil))

	inviterVerkey, err := inviter.GetPwVerkey(h)
	require.NoError(t, err)
	encPub, err := sharedWallet.EncryptionPublicKey(ctx, inviterVerkey)
	require.NoError(t, err)

	details := acceptanceDetails{SenderDetail: SenderDetail{DID: "did:sov:invitee", VerKey: "inviteeVk"}}
	plaintext, err := json.Marshal(details)
	require.NoError(t, err)
	payload, err := wallet.SealV2(encPub, plaintext)
	require.NoError(t, err)

	inviterMock.QueueMessage(cloudagent.Message{
		StatusCode: cloudagent.StatusAccepted,
		MsgType:    cloudagent.MsgTypeConnReqAnswer,
		Payload:    payload,
	})

	require.NoError(t, inviter.UpdateState(ctx, h))
	require.Equal(t, StateAccepted, inviter.GetState(h))

	theirDID, err := inviter.GetTheirPwDID(h)
	require.NoError(t, err)
	require.Equal(t, "did:sov:invitee", theirDID)
	theirVerkey, err := inviter.GetTheirPwVerkey(h)
	require.NoError(t, err)
	require.Equal(t, "inviteeVk", theirVerkey)
}

func TestS5_RoundTripByteForByte(t *testing.T) {
	m, _ := newTestManager(t, wallet.NewMemoryWallet(), "2.0")
	ctx := context.Background()

	h, err := m.CreateConnection(ctx, "alice")
	require.NoError(t, err)

	s, err := m.ToString(h)
	require.NoError(t, err)
	require.NoError(t, m.Release(h))

	h2, err := m.FromString(s)
	require.NoError(t, err)

	s2, err := m.ToString(h2)
	require.NoError(t, err)
	require.Equal(t, s, s2)
}

func TestS6_AbbreviationTableExample(t *testing.T) {
	tree := map[string]any{"statusCode": "MS-102"}
	abbreviated, err := abbrev.Abbreviate(tree, abbrev.Abbreviations)
	require.NoError(t, err)
	obj := abbreviated.(map[string]any)
	require.Equal(t, "MS-102", obj["sc"])

	restored, err := abbrev.Unabbreviate(abbreviated, abbrev.Unabbreviations)
	require.NoError(t, err)
	require.Equal(t, "MS-102", restored.(map[string]any)["statusCode"])
}

func TestS7_InvalidInviteFails(t *testing.T) {
	m, _ := newTestManager(t, wallet.NewMemoryWallet(), "2.0")
	ctx := context.Background()

	_, err := m.CreateConnectionWithInvite(ctx, "alice", []byte("BadDetailsFoobar"), false)
	require.Error(t, err)
	var connErr *Error
	require.ErrorAs(t, err, &connErr)
	require.Equal(t, KindCommonError, connErr.Kind)
	require.Equal(t, CodeInvalidJSON, connErr.Code)
}

func TestOfferSentConnectIsReentrant(t *testing.T) {
	m, _ := newTestManager(t, wallet.NewMemoryWallet(), "2.0")
	ctx := context.Background()

	h, err := m.CreateConnection(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, m.Connect(ctx, h, nil))
	require.Equal(t, StateOfferSent, m.GetState(h))

	require.NoError(t, m.Connect(ctx, h, nil))
	require.Equal(t, StateOfferSent, m.GetState(h))
}

func TestReadyToConnect(t *testing.T) {
	m, _ := newTestManager(t, wallet.NewMemoryWallet(), "2.0")
	ctx := context.Background()

	h, err := m.CreateConnection(ctx, "alice")
	require.NoError(t, err)

	ready, err := m.ReadyToConnect(h)
	require.NoError(t, err)
	require.True(t, ready)

	require.NoError(t, m.DeleteConnection(ctx, h))
}
