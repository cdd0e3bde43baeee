package connection

import (
	"context"
	"encoding/json"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sage-x-project/agentconn/config"
	"github.com/sage-x-project/agentconn/internal/logger"
	"github.com/sage-x-project/agentconn/internal/metrics"
	"github.com/sage-x-project/agentconn/pkg/agent/connection/abbrev"
	"github.com/sage-x-project/agentconn/pkg/agent/connection/cloudagent"
	"github.com/sage-x-project/agentconn/pkg/agent/wallet"
)

// controller implements the lifecycle state machine described in the
// component design: create, create-with-invite, connect (branching on
// state), update-state (poll and parse answers), delete. It holds the
// injected configuration snapshot the Design Notes call for, rather than
// reading a global configuration store mid-call.
type controller struct {
	cfg    config.ConnectionConfig
	wallet wallet.Wallet
	agent  *cloudagent.Client
	log    logger.Logger
	proto  ProtocolVersion
	clock  Clock
}

func newController(cfg config.ConnectionConfig, w wallet.Wallet, agent *cloudagent.Client, log logger.Logger) *controller {
	return &controller{
		cfg:    cfg,
		wallet: w,
		agent:  agent,
		log:    log,
		proto:  ParseProtocolVersion(cfg.ProtocolType),
		clock:  defaultClock,
	}
}

// create builds a fresh Initialized entity from a caller-supplied source ID.
func (c *controller) create(ctx context.Context, sourceID string) (*Entity, error) {
	if sourceID == "" {
		return nil, newError(KindInviteDetailError, "source_id must not be empty")
	}
	id, err := c.wallet.CreatePairwiseDID(ctx)
	if err != nil {
		return nil, wrapCommon(CodeInvalidWalletHandle, "create_pairwise_did failed", err)
	}
	metrics.ConnectionsCreated.Inc()
	return &Entity{
		SourceID: sourceID,
		PwDID:    id.DID,
		PwVerkey: id.Verkey,
		State:    StateInitialized,
	}, nil
}

// createWithInvite builds a RequestReceived entity from an invitation
// payload the invitee received out-of-band (e.g. scanned from a QR code).
// abbreviated selects whether invite is in abbreviated key form.
func (c *controller) createWithInvite(ctx context.Context, sourceID string, invite []byte, abbreviated bool) (*Entity, error) {
	entity, err := c.create(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	detail, err := decodeInviteDetail(invite, abbreviated)
	if err != nil {
		return nil, err
	}

	entity.InviteDetail = detail
	entity.TheirPwDID = detail.SenderDetail.DID
	entity.TheirPwVerkey = detail.SenderDetail.VerKey
	if detail.SenderDetail.PublicDID != "" {
		entity.TheirPublicDID = detail.SenderDetail.PublicDID
	}
	entity.transition(StateRequestReceived)
	return entity, nil
}

func decodeInviteDetail(raw []byte, abbreviated bool) (*InviteDetail, error) {
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, ErrInvalidJSON(err)
	}

	if abbreviated {
		restored, err := abbrev.Unabbreviate(tree, abbrev.Unabbreviations)
		if err != nil {
			return nil, ErrInvalidJSON(err)
		}
		tree = restored
	}

	full, err := json.Marshal(tree)
	if err != nil {
		return nil, ErrInvalidJSON(err)
	}

	var detail InviteDetail
	if err := json.Unmarshal(full, &detail); err != nil {
		return nil, ErrInvalidJSON(err)
	}
	return &detail, nil
}

// transition records a state change and the matching metric.
func (e *Entity) transition(to State) {
	metrics.ConnectionStateTransitions.WithLabelValues(e.State.String(), to.String()).Inc()
	e.State = to
}

// connect is state-dispatched per the lifecycle semantics: Initialized and
// OfferSent run the inviter flow (send or idempotently resend the
// invitation); RequestReceived runs the invitee flow (accept); Accepted and
// None fail.
func (c *controller) connect(ctx context.Context, entity *Entity, opts ConnectOptions) error {
	switch entity.State {
	case StateInitialized, StateOfferSent:
		return c.connectInviter(ctx, entity, opts)
	case StateRequestReceived:
		return c.connectInvitee(ctx, entity, opts)
	default:
		return ErrGeneralConnection("connect: illegal in state " + entity.State.String())
	}
}

// ensureAgentPairwise runs create_agent_pairwise then update_agent_profile,
// which every connect call performs before its state-specific step.
func (c *controller) ensureAgentPairwise(ctx context.Context, entity *Entity, opts ConnectOptions) error {
	if entity.AgentDID == "" || entity.AgentVK == "" {
		keys, err := c.agent.CreateKeys(ctx, entity.PwVerkey, cloudagent.CreateKeysInput{
			ForDID:    entity.PwDID,
			ForVerkey: entity.PwVerkey,
		})
		if err != nil {
			return wrapCommon(CodePostMsgFailure, "create_keys failed", err)
		}
		entity.AgentDID = keys.AgentDID
		entity.AgentVK = keys.AgentVK
	}

	if opts.UsePublicDID {
		entity.PublicDID = c.cfg.InstitutionDID
	}

	// update_agent_profile silently skips the profile push when the
	// institution name is not configured; this is not a failure.
	if c.cfg.InstitutionName == "" {
		return nil
	}

	in := cloudagent.UpdateDataInput{
		Name:    c.cfg.InstitutionName,
		LogoURL: c.cfg.InstitutionLogoURL,
	}
	if opts.UsePublicDID {
		in.PublicDID = c.cfg.InstitutionDID
	}
	if err := c.agent.UpdateData(ctx, entity.PwVerkey, entity.AgentDID, entity.AgentVK, in); err != nil {
		return wrapCommon(CodePostMsgFailure, "update_data failed", err)
	}
	return nil
}

func (c *controller) connectInviter(ctx context.Context, entity *Entity, opts ConnectOptions) error {
	if err := c.ensureAgentPairwise(ctx, entity, opts); err != nil {
		return err
	}

	out, err := c.agent.SendInvite(ctx, entity.PwVerkey, entity.AgentDID, entity.AgentVK, cloudagent.SendInviteInput{
		Phone:     opts.Phone,
		PublicDID: entity.PublicDID,
	})
	if err != nil {
		return wrapCommon(CodePostMsgFailure, "send_invite failed", err)
	}

	entity.InviteURL = out.InviteURL
	entity.InviteDetail = &InviteDetail{
		StatusCode: "MS-101",
		ConnReqID:  out.ConnReqID,
		SenderDetail: SenderDetail{
			Name:    c.cfg.InstitutionName,
			DID:     entity.PwDID,
			VerKey:  entity.PwVerkey,
			LogoURL: c.cfg.InstitutionLogoURL,
			AgentKeyDlgProof: AgentKeyDlgProof{
				AgentDID:          entity.AgentDID,
				AgentDelegatedKey: entity.AgentVK,
			},
		},
		SenderAgencyDetail: SenderAgencyDetail{
			DID:      entity.AgentDID,
			VerKey:   entity.AgentVK,
			Endpoint: c.cfg.AgencyEndpoint,
		},
	}
	if opts.UsePublicDID {
		entity.InviteDetail.SenderDetail.PublicDID = c.cfg.InstitutionDID
	}

	entity.InvitedAt = c.clock()

	// OfferSent is re-entrant: re-running connect here just resends, never
	// fails, so retrying callers converge.
	entity.transition(StateOfferSent)
	metrics.InvitesSent.Inc()
	return nil
}

func (c *controller) connectInvitee(ctx context.Context, entity *Entity, opts ConnectOptions) error {
	if err := c.ensureAgentPairwise(ctx, entity, opts); err != nil {
		return err
	}
	if entity.InviteDetail == nil {
		return ErrInviteDetail("connect: no invite_detail to accept")
	}

	senderDetail, err := json.Marshal(entity.InviteDetail.SenderDetail)
	if err != nil {
		return ErrInvalidJSON(err)
	}
	senderAgency, err := json.Marshal(entity.InviteDetail.SenderAgencyDetail)
	if err != nil {
		return ErrInvalidJSON(err)
	}

	err = c.agent.AcceptInvite(ctx, entity.PwVerkey, entity.AgentDID, entity.AgentVK, cloudagent.AcceptInviteInput{
		SenderDetail:       senderDetail,
		SenderAgencyDetail: senderAgency,
		AnswerStatusCode:   cloudagent.StatusAccepted,
		ReplyToMsgID:       entity.InviteDetail.ConnReqID,
	})
	if err != nil {
		return wrapCommon(CodePostMsgFailure, "accept_invite failed", err)
	}

	entity.transition(StateAccepted)
	metrics.InvitesAccepted.Inc()
	return nil
}

// pollAcceptance calls get-messages and parses every Accepted/ConnReqAnswer
// message it returns, completely independent of any Entity: it takes only
// the three identifiers the cloud-agent call needs and performs no
// mutation, so callers can run it without holding the registry's per-handle
// lock for the duration of a network round trip. Per-message parse failures
// are swallowed by design (logged and skipped): one bad message must not
// discard a later valid acceptance.
func (c *controller) pollAcceptance(ctx context.Context, pwVerkey, agentDID, agentVK string) ([]*SenderDetail, error) {
	timer := prometheus.NewTimer(metrics.PollDuration)
	defer timer.ObserveDuration()

	msgs, err := c.agent.GetMessages(ctx, pwVerkey, agentDID, agentVK)
	if err != nil {
		return nil, wrapCommon(CodePostMsgFailure, "get_messages failed", err)
	}

	var senders []*SenderDetail
	for _, msg := range msgs {
		if msg.StatusCode != cloudagent.StatusAccepted || msg.MsgType != cloudagent.MsgTypeConnReqAnswer {
			continue
		}

		sender, err := ParseAcceptance(ctx, c.wallet, c.proto, pwVerkey, msg.Payload)
		if err != nil {
			c.log.Warn("update_state: dropping unparseable acceptance message", logger.Error(err))
			continue
		}
		senders = append(senders, sender)
	}

	return senders, nil
}

// applyAcceptance advances entity to Accepted for each sender pollAcceptance
// recovered, under whatever lock the caller already holds. A message that
// updates peer identity before a downstream message in the same batch is
// applied leaves that partial update in place; this mirrors updateState's
// original best-effort, partial-failure semantics.
func (c *controller) applyAcceptance(entity *Entity, senders []*SenderDetail) {
	for _, sender := range senders {
		entity.TheirPwDID = sender.DID
		entity.TheirPwVerkey = sender.VerKey
		if sender.PublicDID != "" {
			entity.TheirPublicDID = sender.PublicDID
		}
		entity.transition(StateAccepted)
		metrics.InvitesAccepted.Inc()
	}
}

// deleteConnection dispatches the agent-side delete call and, on success,
// transitions the entity to None. Release is the caller's (Manager's)
// responsibility, performed after the registry write lock is released.
func (c *controller) deleteConnection(ctx context.Context, entity *Entity) error {
	if err := c.agent.DeleteConnection(ctx, entity.PwVerkey, entity.AgentDID, entity.AgentVK); err != nil {
		return ErrCannotDelete(err)
	}
	entity.transition(StateNone)
	return nil
}
