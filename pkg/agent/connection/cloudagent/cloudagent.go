// Package cloudagent implements the Protocol Client: typed request builders
// addressed to a cloud-agent mediator (create-keys, update-data,
// send-invite, accept-invite, delete-connection, get-messages), dispatched
// through an injected Transport.
package cloudagent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Request is the signed envelope every cloud-agent call is wrapped in.
type Request struct {
	ID       string          `json:"id"`
	To       string          `json:"to"`
	ToVK     string          `json:"to_vk"`
	AgentDID string          `json:"agent_did,omitempty"`
	AgentVK  string          `json:"agent_vk,omitempty"`
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Sig      []byte          `json:"sig,omitempty"`
}

// Response is the decoded result of a cloud-agent call.
type Response struct {
	Payload json.RawMessage
}

// Transport dispatches a signed Request to the cloud agent and returns its
// Response. Implementations own the wire protocol (HTTP, in-memory mock,
// etc); errors surface to the caller as-is and are wrapped by the Lifecycle
// Controller.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// Message is one entry of a get-messages poll response.
type Message struct {
	StatusCode string `json:"status_code"`
	MsgType    string `json:"msg_type"`
	Payload    []byte `json:"payload"`
}

const (
	TypeCreateKeys       = "CREATE_KEYS"
	TypeUpdateData        = "UPDATE_DATA"
	TypeSendInvite        = "SEND_INVITE"
	TypeAcceptInvite      = "ACCEPT_INVITE"
	TypeDeleteConnection  = "DELETE_CONNECTION"
	TypeGetMessages       = "GET_MESSAGES"

	StatusAccepted  = "MS-104"
	MsgTypeConnReqAnswer = "connReqAnswer"
)

// Signer produces a signature over a request's payload bytes, addressed by
// the connection's own pairwise verkey.
type Signer func(ctx context.Context, verkey string, message []byte) ([]byte, error)

// Client composes signed Requests and dispatches them over Transport.
type Client struct {
	transport Transport
	sign      Signer
}

// NewClient builds a Client over transport, signing outbound requests with
// sign.
func NewClient(transport Transport, sign Signer) *Client {
	return &Client{transport: transport, sign: sign}
}

func (c *Client) dispatch(ctx context.Context, pwVerkey, to, toVK, agentDID, agentVK, reqType string, payload any) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req := &Request{
		ID:       uuid.NewString(),
		To:       to,
		ToVK:     toVK,
		AgentDID: agentDID,
		AgentVK:  agentVK,
		Type:     reqType,
		Payload:  body,
	}

	if c.sign != nil && pwVerkey != "" {
		sig, err := c.sign(ctx, pwVerkey, body)
		if err != nil {
			return nil, fmt.Errorf("sign request: %w", err)
		}
		req.Sig = sig
	}

	return c.transport.Send(ctx, req)
}

// CreateKeysInput/Output

type CreateKeysInput struct {
	ForDID    string `json:"for_did"`
	ForVerkey string `json:"for_verkey"`
}

type CreateKeysOutput struct {
	AgentDID string `json:"agent_did"`
	AgentVK  string `json:"agent_verkey"`
}

// CreateKeys asks the cloud agent to mint an agent-side pairwise DID/verkey
// for this connection.
func (c *Client) CreateKeys(ctx context.Context, pwVerkey string, in CreateKeysInput) (*CreateKeysOutput, error) {
	resp, err := c.dispatch(ctx, pwVerkey, "", "", "", "", TypeCreateKeys, in)
	if err != nil {
		return nil, err
	}
	var out CreateKeysOutput
	if err := json.Unmarshal(resp.Payload, &out); err != nil {
		return nil, fmt.Errorf("create_keys: decode response: %w", err)
	}
	return &out, nil
}

// UpdateDataInput carries the institution profile pushed before an invite.
type UpdateDataInput struct {
	Name       string `json:"name"`
	LogoURL    string `json:"logo_url"`
	PublicDID  string `json:"public_did,omitempty"`
}

// UpdateData pushes the institution profile to the cloud agent.
func (c *Client) UpdateData(ctx context.Context, pwVerkey, agentDID, agentVK string, in UpdateDataInput) error {
	_, err := c.dispatch(ctx, pwVerkey, "", "", agentDID, agentVK, TypeUpdateData, in)
	return err
}

// SendInviteInput/Output

type SendInviteInput struct {
	Phone     string `json:"phone,omitempty"`
	PublicDID string `json:"public_did,omitempty"`
}

type SendInviteOutput struct {
	ConnReqID          string `json:"conn_req_id"`
	InviteURL          string `json:"invite_url"`
}

// SendInvite requests a fresh invitation from the cloud agent.
func (c *Client) SendInvite(ctx context.Context, pwVerkey, agentDID, agentVK string, in SendInviteInput) (*SendInviteOutput, error) {
	resp, err := c.dispatch(ctx, pwVerkey, "", "", agentDID, agentVK, TypeSendInvite, in)
	if err != nil {
		return nil, err
	}
	var out SendInviteOutput
	if err := json.Unmarshal(resp.Payload, &out); err != nil {
		return nil, fmt.Errorf("send_invite: decode response: %w", err)
	}
	return &out, nil
}

// AcceptInviteInput is the invitee's reply to an invitation.
type AcceptInviteInput struct {
	SenderDetail       json.RawMessage `json:"sender_detail"`
	SenderAgencyDetail json.RawMessage `json:"sender_agency_detail"`
	AnswerStatusCode   string          `json:"answer_status_code"`
	ReplyToMsgID       string          `json:"reply_to_msg_id"`
}

// AcceptInvite replies to an invitation on behalf of the invitee.
func (c *Client) AcceptInvite(ctx context.Context, pwVerkey, agentDID, agentVK string, in AcceptInviteInput) error {
	_, err := c.dispatch(ctx, pwVerkey, "", "", agentDID, agentVK, TypeAcceptInvite, in)
	return err
}

// DeleteConnection tears down the cloud-agent side of a connection.
func (c *Client) DeleteConnection(ctx context.Context, pwVerkey, agentDID, agentVK string) error {
	_, err := c.dispatch(ctx, pwVerkey, "", "", agentDID, agentVK, TypeDeleteConnection, struct{}{})
	return err
}

// GetMessages polls the cloud agent for new messages addressed to this
// connection.
func (c *Client) GetMessages(ctx context.Context, pwVerkey, agentDID, agentVK string) ([]Message, error) {
	resp, err := c.dispatch(ctx, pwVerkey, "", "", agentDID, agentVK, TypeGetMessages, struct{}{})
	if err != nil {
		return nil, err
	}
	var out []Message
	if err := json.Unmarshal(resp.Payload, &out); err != nil {
		return nil, fmt.Errorf("get_messages: decode response: %w", err)
	}
	return out, nil
}
