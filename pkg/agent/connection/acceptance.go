package connection

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/sage-x-project/agentconn/pkg/agent/wallet"
)

// ProtocolVersion selects the acceptance-payload envelope the Acceptance
// Parser decodes.
type ProtocolVersion int

const (
	// ProtocolV1 is the MessagePack, double-wrapped envelope.
	ProtocolV1 ProtocolVersion = iota
	// ProtocolV2 is the JSON-over-AEAD envelope.
	ProtocolV2
)

// ParseProtocolVersion maps the configured protocol_type string to a
// ProtocolVersion: "1.0" selects V1, anything else selects V2.
func ParseProtocolVersion(protocolType string) ProtocolVersion {
	if protocolType == "1.0" {
		return ProtocolV1
	}
	return ProtocolV2
}

// connectionPayload is the outer MessagePack envelope carried inside a V1
// packed message.
type connectionPayload struct {
	Msg []byte `msgpack:"@msg"`
}

// invitationAcceptanceDetails is the inner MessagePack envelope decoded
// from connectionPayload.Msg.
type invitationAcceptanceDetails struct {
	SenderDetail SenderDetail `msgpack:"senderDetail"`
}

// acceptanceDetails is the V2 JSON payload.
type acceptanceDetails struct {
	SenderDetail SenderDetail `json:"senderDetail"`
}

// ParseAcceptance dispatches on version to recover the peer's SenderDetail
// from a raw acceptance payload addressed to myVerkey.
func ParseAcceptance(ctx context.Context, w wallet.Wallet, version ProtocolVersion, myVerkey string, payload []byte) (*SenderDetail, error) {
	if len(payload) == 0 {
		return nil, wrapCommon(CodeInvalidMsgpack, "empty acceptance payload", nil)
	}

	switch version {
	case ProtocolV1:
		return parseAcceptanceV1(ctx, w, myVerkey, payload)
	default:
		return parseAcceptanceV2(ctx, w, myVerkey, payload)
	}
}

func parseAcceptanceV1(ctx context.Context, w wallet.Wallet, myVerkey string, payload []byte) (*SenderDetail, error) {
	_, innerBytes, err := w.Unpack(ctx, myVerkey, payload)
	if err != nil {
		return nil, wrapCommon(CodeInvalidWalletHandle, "wallet unpack failed", err)
	}
	return decodeAcceptanceV1(innerBytes)
}

// decodeAcceptanceV1 unwraps the double-MessagePack acceptance envelope
// (connectionPayload carrying a msgpack-encoded invitationAcceptanceDetails
// under its @msg key) once the outer wallet seal has already been removed.
// Split out from parseAcceptanceV1 so it can be driven directly off a raw
// wire fixture in tests, without a wallet in the loop.
func decodeAcceptanceV1(innerBytes []byte) (*SenderDetail, error) {
	var wrapped connectionPayload
	if err := msgpack.Unmarshal(innerBytes, &wrapped); err != nil {
		return nil, wrapCommon(CodeInvalidMsgpack, "malformed connection payload", err)
	}

	var details invitationAcceptanceDetails
	if err := msgpack.Unmarshal(wrapped.Msg, &details); err != nil {
		return nil, wrapCommon(CodeInvalidMsgpack, "malformed acceptance details", err)
	}

	return &details.SenderDetail, nil
}

func parseAcceptanceV2(ctx context.Context, w wallet.Wallet, myVerkey string, payload []byte) (*SenderDetail, error) {
	cleartext, err := w.DecryptPayloadV2(ctx, myVerkey, payload)
	if err != nil {
		return nil, wrapCommon(CodeInvalidWalletHandle, "wallet decrypt_payload_v2 failed", err)
	}

	var details acceptanceDetails
	if err := json.Unmarshal(cleartext, &details); err != nil {
		return nil, ErrInvalidJSON(fmt.Errorf("acceptance details: %w", err))
	}

	return &details.SenderDetail, nil
}
