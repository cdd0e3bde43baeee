// Package connection implements the pairwise agent-to-agent connection core:
// the entity, lifecycle state machine, cloud-agent protocol client,
// acceptance-payload parser, and handle registry described by the
// mediated invitation/acceptance protocol.
package connection

import "time"

// Handle is an opaque, process-wide non-zero identifier for a live Entity.
type Handle uint32

// State is the lifecycle state of a connection entity.
type State int

const (
	StateNone            State = 0
	StateInitialized     State = 1
	StateOfferSent       State = 2
	StateRequestReceived State = 3
	StateAccepted        State = 4
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "None"
	case StateInitialized:
		return "Initialized"
	case StateOfferSent:
		return "OfferSent"
	case StateRequestReceived:
		return "RequestReceived"
	case StateAccepted:
		return "Accepted"
	default:
		return "Unknown"
	}
}

// AgentKeyDlgProof is the cloud-agent key delegation proof nested inside
// SenderDetail.
type AgentKeyDlgProof struct {
	AgentDID          string `json:"agentDID" msgpack:"agentDID"`
	AgentDelegatedKey string `json:"agentDelegatedKey" msgpack:"agentDelegatedKey"`
	Signature         string `json:"signature" msgpack:"signature"`
}

// SenderDetail is the inviter's identity as advertised in an invitation, or
// as recovered from an acceptance payload. It carries both json and msgpack
// tags: the V2 envelope is JSON, the V1 envelope nests this struct inside a
// MessagePack-encoded invitationAcceptanceDetails.
type SenderDetail struct {
	Name             string           `json:"name,omitempty" msgpack:"name,omitempty"`
	DID              string           `json:"DID" msgpack:"DID"`
	VerKey           string           `json:"verKey" msgpack:"verKey"`
	LogoURL          string           `json:"logoUrl,omitempty" msgpack:"logoUrl,omitempty"`
	PublicDID        string           `json:"publicDID,omitempty" msgpack:"publicDID,omitempty"`
	AgentKeyDlgProof AgentKeyDlgProof `json:"agentKeyDlgProof" msgpack:"agentKeyDlgProof"`
}

// SenderAgencyDetail is the inviter's cloud-agent endpoint information.
type SenderAgencyDetail struct {
	DID      string `json:"DID"`
	VerKey   string `json:"verKey"`
	Endpoint string `json:"endpoint"`
}

// InviteDetail is the full invitation payload exchanged between parties.
type InviteDetail struct {
	StatusCode         string             `json:"statusCode"`
	ConnReqID          string             `json:"connReqId"`
	SenderDetail       SenderDetail       `json:"senderDetail"`
	SenderAgencyDetail SenderAgencyDetail `json:"senderAgencyDetail"`
	TargetName         string             `json:"targetName,omitempty"`
	StatusMsg          string             `json:"statusMsg,omitempty"`
}

// ConnectOptions is the options JSON accepted by Connect.
type ConnectOptions struct {
	ConnectionType string `json:"connection_type,omitempty"`
	Phone          string `json:"phone,omitempty"`
	UsePublicDID   bool   `json:"use_public_did,omitempty"`
}

// Entity is the Connection Entity: pure data plus lifecycle state. All
// mutation happens under the Registry's per-handle exclusive lock.
type Entity struct {
	SourceID string `json:"source_id"`

	PwDID    string `json:"pw_did"`
	PwVerkey string `json:"pw_verkey"`

	State State `json:"state"`

	UUID     string `json:"uuid,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`

	AgentDID string `json:"agent_did,omitempty"`
	AgentVK  string `json:"agent_vk,omitempty"`

	TheirPwDID    string `json:"their_pw_did,omitempty"`
	TheirPwVerkey string `json:"their_pw_verkey,omitempty"`

	PublicDID      string `json:"public_did,omitempty"`
	TheirPublicDID string `json:"their_public_did,omitempty"`

	InviteDetail *InviteDetail `json:"invite_detail,omitempty"`
	InviteURL    string        `json:"invite_url,omitempty"`
	InvitedAt    time.Time     `json:"invited_at,omitempty"`
}

// ReadyToConnect reports whether the entity may still undergo a Connect
// call: true unless the state is terminal-ish (None or Accepted).
func (e *Entity) ReadyToConnect() bool {
	return e.State != StateNone && e.State != StateAccepted
}

// Clock is a seam over time.Now, overridable in tests for deterministic
// invitation/QR timestamps. It does not change any observable state-machine
// behavior.
type Clock func() time.Time

func defaultClock() time.Time { return time.Now() }
