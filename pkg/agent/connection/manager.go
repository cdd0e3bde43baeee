package connection

import (
	"context"
	"encoding/json"

	"github.com/sage-x-project/agentconn/config"
	"github.com/sage-x-project/agentconn/internal/logger"
	"github.com/sage-x-project/agentconn/pkg/agent/connection/abbrev"
	"github.com/sage-x-project/agentconn/pkg/agent/connection/cloudagent"
	"github.com/sage-x-project/agentconn/pkg/agent/wallet"
)

// Manager is the external, handle-indexed surface over the connection
// lifecycle: every exported operation here is what a caller external to
// this package addresses. It owns a Registry and a controller built from
// an injected configuration snapshot, wallet, and cloud-agent client.
type Manager struct {
	registry *Registry
	ctrl     *controller
}

// NewManager builds a Manager. cfg is copied once at construction time (the
// injected-configuration-snapshot redesign): later mutation of the caller's
// *config.ConnectionConfig has no effect on an already-built Manager.
func NewManager(cfg *config.ConnectionConfig, w wallet.Wallet, agent *cloudagent.Client, log logger.Logger) *Manager {
	if cfg == nil {
		cfg = &config.ConnectionConfig{}
	}
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &Manager{
		registry: NewRegistry(),
		ctrl:     newController(*cfg, w, agent, log),
	}
}

// CreateConnection creates a fresh Initialized connection under sourceID.
func (m *Manager) CreateConnection(ctx context.Context, sourceID string) (Handle, error) {
	entity, err := m.ctrl.create(ctx, sourceID)
	if err != nil {
		return 0, err
	}
	handle, err := m.registry.Add(entity)
	if err != nil {
		return 0, err
	}
	return handle, nil
}

// CreateConnectionWithInvite creates a RequestReceived connection from an
// invitation payload (abbreviated or not) the invitee obtained out-of-band.
func (m *Manager) CreateConnectionWithInvite(ctx context.Context, sourceID string, invite []byte, abbreviated bool) (Handle, error) {
	entity, err := m.ctrl.createWithInvite(ctx, sourceID, invite, abbreviated)
	if err != nil {
		return 0, err
	}
	handle, err := m.registry.Add(entity)
	if err != nil {
		return 0, err
	}
	return handle, nil
}

// Connect runs the state-dispatched connect step; optionsJSON is the
// `{connection_type, phone, use_public_did}` options document, empty or nil
// for defaults.
func (m *Manager) Connect(ctx context.Context, handle Handle, optionsJSON []byte) error {
	opts, err := parseConnectOptions(optionsJSON)
	if err != nil {
		return err
	}

	var connectErr error
	err = m.registry.GetMut(handle, func(e *Entity) error {
		connectErr = m.ctrl.connect(ctx, e, opts)
		return nil
	})
	if err != nil {
		return err
	}
	return connectErr
}

func parseConnectOptions(raw []byte) (ConnectOptions, error) {
	if len(raw) == 0 {
		return ConnectOptions{}, nil
	}
	var opts ConnectOptions
	if err := json.Unmarshal(raw, &opts); err != nil {
		return ConnectOptions{}, wrapCommon(CodeInvalidOption, "malformed connect options", err)
	}
	return opts, nil
}

// UpdateState polls the cloud agent for acceptance messages and advances
// the connection's state. The identifiers the poll needs are copied out
// under a brief read lock, the get-messages call and acceptance parsing run
// with no registry lock held at all, and the registry is re-entered only to
// apply the parsed result — so a network round trip never blocks any other
// handle's access, matching the non-blocking poll the component design
// requires.
func (m *Manager) UpdateState(ctx context.Context, handle Handle) error {
	var state State
	var pwVerkey, agentDID, agentVK string
	err := m.registry.Get(handle, func(e *Entity) error {
		state = e.State
		pwVerkey = e.PwVerkey
		agentDID = e.AgentDID
		agentVK = e.AgentVK
		return nil
	})
	if err != nil {
		return err
	}
	if state == StateInitialized || state == StateAccepted {
		return nil
	}

	senders, err := m.ctrl.pollAcceptance(ctx, pwVerkey, agentDID, agentVK)
	if err != nil {
		return err
	}

	return m.registry.GetMut(handle, func(e *Entity) error {
		m.ctrl.applyAcceptance(e, senders)
		return nil
	})
}

// DeleteConnection dispatches the agent-side delete call, transitions the
// entity to None, then releases the handle.
func (m *Manager) DeleteConnection(ctx context.Context, handle Handle) error {
	var deleteErr error
	err := m.registry.GetMut(handle, func(e *Entity) error {
		deleteErr = m.ctrl.deleteConnection(ctx, e)
		return nil
	})
	if err != nil {
		return err
	}
	if deleteErr != nil {
		return deleteErr
	}
	return m.registry.Release(handle)
}

// Release drops handle without any agent-side teardown.
func (m *Manager) Release(handle Handle) error {
	return m.registry.Release(handle)
}

// ReleaseAll drops every outstanding handle unconditionally.
func (m *Manager) ReleaseAll() {
	m.registry.Drain()
}

// ToString emits the versioned persistence envelope for handle.
func (m *Manager) ToString(handle Handle) (string, error) {
	var out string
	err := m.registry.Get(handle, func(e *Entity) error {
		s, err := ToString(e)
		if err != nil {
			return wrapCommon(CodeInvalidConnectionHandle, "to_string failed", err)
		}
		out = s
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// FromString parses a persistence envelope into a new registry entry,
// returning its handle.
func (m *Manager) FromString(text string) (Handle, error) {
	entity, err := FromString(text)
	if err != nil {
		return 0, err
	}
	return m.registry.Add(entity)
}

// GetInviteDetails returns the invitation payload for handle, optionally
// rewritten through the abbreviation codec for low-bandwidth transport.
func (m *Manager) GetInviteDetails(handle Handle, abbreviated bool) (json.RawMessage, error) {
	var out json.RawMessage
	err := m.registry.Get(handle, func(e *Entity) error {
		if e.InviteDetail == nil {
			return ErrInviteDetail("no invite_detail on this connection")
		}
		raw, err := json.Marshal(e.InviteDetail)
		if err != nil {
			return ErrInvalidJSON(err)
		}
		if !abbreviated {
			out = raw
			return nil
		}

		var tree any
		if err := json.Unmarshal(raw, &tree); err != nil {
			return ErrInvalidJSON(err)
		}
		rewritten, err := abbrev.Abbreviate(tree, abbrev.Abbreviations)
		if err != nil {
			return ErrInvalidJSON(err)
		}
		abbr, err := json.Marshal(rewritten)
		if err != nil {
			return ErrInvalidJSON(err)
		}
		out = abbr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetInviteDetails overwrites handle's invitation payload with detail.
func (m *Manager) SetInviteDetails(handle Handle, detail *InviteDetail) error {
	return m.registry.GetMut(handle, func(e *Entity) error {
		e.InviteDetail = detail
		return nil
	})
}

// ReadyToConnect reports whether handle may still undergo Connect.
func (m *Manager) ReadyToConnect(handle Handle) (bool, error) {
	var ready bool
	err := m.registry.Get(handle, func(e *Entity) error {
		ready = e.ReadyToConnect()
		return nil
	})
	return ready, err
}

// GetState returns handle's lifecycle state, or StateNone for an unknown
// handle — the one getter that does not fail on InvalidHandle, preserved
// for compatibility with callers that treat state as always-readable.
func (m *Manager) GetState(handle Handle) State {
	var state State
	_ = m.registry.Get(handle, func(e *Entity) error {
		state = e.State
		return nil
	})
	return state
}

// field getters/setters: each fails with InvalidHandle for an unknown
// handle (the single exception is GetState, above).

func (m *Manager) GetPwDID(handle Handle) (string, error) {
	return m.getString(handle, func(e *Entity) string { return e.PwDID })
}

func (m *Manager) GetPwVerkey(handle Handle) (string, error) {
	return m.getString(handle, func(e *Entity) string { return e.PwVerkey })
}

func (m *Manager) GetTheirPwDID(handle Handle) (string, error) {
	return m.getString(handle, func(e *Entity) string { return e.TheirPwDID })
}

func (m *Manager) SetTheirPwDID(handle Handle, v string) error {
	return m.setString(handle, v, func(e *Entity, v string) { e.TheirPwDID = v })
}

func (m *Manager) GetTheirPwVerkey(handle Handle) (string, error) {
	return m.getString(handle, func(e *Entity) string { return e.TheirPwVerkey })
}

func (m *Manager) SetTheirPwVerkey(handle Handle, v string) error {
	return m.setString(handle, v, func(e *Entity, v string) { e.TheirPwVerkey = v })
}

func (m *Manager) GetTheirPublicDID(handle Handle) (string, error) {
	return m.getString(handle, func(e *Entity) string { return e.TheirPublicDID })
}

func (m *Manager) SetTheirPublicDID(handle Handle, v string) error {
	return m.setString(handle, v, func(e *Entity, v string) { e.TheirPublicDID = v })
}

func (m *Manager) GetAgentDID(handle Handle) (string, error) {
	return m.getString(handle, func(e *Entity) string { return e.AgentDID })
}

func (m *Manager) GetAgentVerkey(handle Handle) (string, error) {
	return m.getString(handle, func(e *Entity) string { return e.AgentVK })
}

func (m *Manager) GetUUID(handle Handle) (string, error) {
	return m.getString(handle, func(e *Entity) string { return e.UUID })
}

func (m *Manager) SetUUID(handle Handle, v string) error {
	return m.setString(handle, v, func(e *Entity, v string) { e.UUID = v })
}

func (m *Manager) GetEndpoint(handle Handle) (string, error) {
	return m.getString(handle, func(e *Entity) string { return e.Endpoint })
}

func (m *Manager) SetEndpoint(handle Handle, v string) error {
	return m.setString(handle, v, func(e *Entity, v string) { e.Endpoint = v })
}

func (m *Manager) GetSourceID(handle Handle) (string, error) {
	return m.getString(handle, func(e *Entity) string { return e.SourceID })
}

func (m *Manager) getString(handle Handle, get func(*Entity) string) (string, error) {
	var out string
	err := m.registry.Get(handle, func(e *Entity) error {
		out = get(e)
		return nil
	})
	return out, err
}

func (m *Manager) setString(handle Handle, v string, set func(*Entity, string)) error {
	return m.registry.GetMut(handle, func(e *Entity) error {
		set(e, v)
		return nil
	})
}
