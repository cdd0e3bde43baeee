package cloudagent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MockTransport is an in-memory Transport standing in for a real cloud
// agent, the way pkg/agent/transport.MockTransport stands in for a real
// MessageTransport in tests. Unlike that transport, this mock also keeps a
// queue of inbound messages and answers every message type with a default
// response when SendFunc doesn't override it; agent keys are minted fresh on
// each create-keys request and are not stored.
type MockTransport struct {
	// SendFunc, if set, is invoked for every request before the default
	// behavior; returning a non-nil Response or error short-circuits it.
	SendFunc func(ctx context.Context, req *Request) (*Response, error)

	mu       sync.Mutex
	sent     []*Request
	messages []Message // queued inbound messages, drained by GetMessages
}

// NewMockTransport returns an empty MockTransport.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// QueueMessage appends a message the next GetMessages call will return.
func (m *MockTransport) QueueMessage(msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

// SentRequests returns the captured requests, in call order.
func (m *MockTransport) SentRequests() []*Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Request, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *MockTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	m.mu.Lock()
	m.sent = append(m.sent, req)
	m.mu.Unlock()

	if m.SendFunc != nil {
		resp, err := m.SendFunc(ctx, req)
		if resp != nil || err != nil {
			return resp, err
		}
	}

	return m.defaultResponse(req)
}

func (m *MockTransport) defaultResponse(req *Request) (*Response, error) {
	switch req.Type {
	case TypeCreateKeys:
		out := CreateKeysOutput{
			AgentDID: "did:sov:agent-" + uuid.NewString()[:8],
			AgentVK:  "agentvk-" + uuid.NewString()[:8],
		}
		return jsonResponse(out)
	case TypeUpdateData:
		return &Response{Payload: json.RawMessage(`{}`)}, nil
	case TypeSendInvite:
		out := SendInviteOutput{
			ConnReqID: "conn-" + uuid.NewString()[:8],
			InviteURL: "https://agency.example.com/invite/" + uuid.NewString(),
		}
		return jsonResponse(out)
	case TypeAcceptInvite:
		return &Response{Payload: json.RawMessage(`{}`)}, nil
	case TypeDeleteConnection:
		return &Response{Payload: json.RawMessage(`{}`)}, nil
	case TypeGetMessages:
		m.mu.Lock()
		msgs := m.messages
		m.messages = nil
		m.mu.Unlock()
		if msgs == nil {
			msgs = []Message{}
		}
		return jsonResponse(msgs)
	default:
		return nil, fmt.Errorf("mock transport: unknown request type %q", req.Type)
	}
}

func jsonResponse(v any) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &Response{Payload: body}, nil
}
