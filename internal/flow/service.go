package flow

import (
	"context"
	"errors"

	"github.com/dropDatabas3/loginjohn/internal/audit"
	"github.com/dropDatabas3/loginjohn/internal/cookies"
	"github.com/dropDatabas3/loginjohn/internal/domain/session"
	"github.com/dropDatabas3/loginjohn/internal/idp"
	"github.com/dropDatabas3/loginjohn/internal/observability/logger"
)

// ErrNavigationFailed: the protocol collaborator reported neither a redirect
// nor a failure. The credential work (if any) already happened; only the
// continuation is lost. The message is user-facing.
var ErrNavigationFailed = errors.New("Authentication completed but navigation failed")

// CompletionError carries a protocol-level failure verbatim. It is not
// rephrased on the way out: the relying party's error contract depends on it.
type CompletionError struct {
	Reason string
}

func (e *CompletionError) Error() string { return e.Reason }

// CompleteRequest is the input for resolving a pending flow.
type CompleteRequest struct {
	// AuthRequestID is the prefixed id (oidc_... or saml_...).
	AuthRequestID string
	// SessionID optionally pins the session to complete with.
	SessionID string
	// Organization scopes the completion, when known.
	Organization string
	// JarHandle is the opaque cookie value identifying the caller's jar.
	JarHandle string
}

// CompleteResult is the success outcome: where to send the browser next.
type CompleteResult struct {
	Redirect string
}

// Service resolves pending authentication flows.
type Service interface {
	// Complete loads the caller's known sessions and hands the request to
	// the protocol collaborator owning it.
	Complete(ctx context.Context, req CompleteRequest) (*CompleteResult, error)
}

// Deps are the collaborators of the flow service.
type Deps struct {
	Sessions idp.SessionAPI
	OIDC     idp.OIDCAPI
	SAML     idp.SAMLAPI
	Jar      *cookies.Store
	Audit    audit.Sink
}

type service struct {
	deps Deps
}

// NewService creates the flow completion service.
func NewService(deps Deps) Service {
	return &service{deps: deps}
}

func (s *service) Complete(ctx context.Context, req CompleteRequest) (*CompleteResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("flow.complete"))

	// 1. Load the caller's session cookies. A missing or empty jar is a
	// valid state: completion may still succeed without a pinned session.
	jar, err := s.deps.Jar.All(ctx, req.JarHandle)
	if err != nil {
		log.Error("failed to load session jar", logger.Err(err))
		return nil, err
	}

	// 2. Resolve the jar's sessions in one batch. Entries without an id are
	// skipped; when nothing remains the IdP is not called at all.
	ids := make([]string, 0, len(jar))
	for _, ck := range jar {
		if ck.ID != "" {
			ids = append(ids, ck.ID)
		}
	}
	var sessions []session.View
	if len(ids) > 0 {
		sessions, err = s.deps.Sessions.ListSessions(ctx, ids)
		if err != nil {
			log.Error("failed to list sessions", logger.Err(err), logger.Count(len(ids)))
			return nil, err
		}
	}

	// 3. Classify the request id. An unknown prefix never reaches a
	// protocol collaborator.
	rid, err := ParseRequestID(req.AuthRequestID)
	if err != nil {
		return nil, err
	}

	// 4. Dispatch by protocol.
	creq := idp.CompletionRequest{
		RequestID:    rid.ID,
		SessionID:    req.SessionID,
		Organization: req.Organization,
		Sessions:     sessions,
		Cookies:      jar,
	}
	var completion *idp.Completion
	switch rid.Protocol {
	case ProtocolOIDC:
		completion, err = s.deps.OIDC.LoginWithOIDCAndSession(ctx, creq)
	case ProtocolSAML:
		completion, err = s.deps.SAML.LoginWithSAMLAndSession(ctx, creq)
	}
	if err != nil {
		log.Error("flow completion failed",
			logger.AuthRequestID(req.AuthRequestID),
			logger.Protocol(string(rid.Protocol)),
			logger.Err(err))
		s.record(ctx, req, rid, "error")
		return nil, err
	}

	// 5. A nil completion means the collaborator produced neither redirect
	// nor failure; surface it instead of leaving the browser hanging.
	if completion == nil {
		log.Error("flow completion returned empty result",
			logger.AuthRequestID(req.AuthRequestID),
			logger.Protocol(string(rid.Protocol)))
		s.record(ctx, req, rid, "empty")
		return nil, ErrNavigationFailed
	}
	if completion.FailureReason != "" {
		s.record(ctx, req, rid, "failure")
		return nil, &CompletionError{Reason: completion.FailureReason}
	}

	log.Info("flow completed",
		logger.AuthRequestID(req.AuthRequestID),
		logger.Protocol(string(rid.Protocol)))
	s.record(ctx, req, rid, "redirect")
	return &CompleteResult{Redirect: completion.Redirect}, nil
}

// record writes the audit event; failures only get logged.
func (s *service) record(ctx context.Context, req CompleteRequest, rid RequestID, outcome string) {
	if s.deps.Audit == nil {
		return
	}
	ev := audit.New(audit.KindFlowCompletion)
	ev.RequestID = req.AuthRequestID
	ev.SessionID = req.SessionID
	ev.OrgID = req.Organization
	ev.Outcome = outcome
	ev.Detail = map[string]any{"protocol": string(rid.Protocol)}
	if err := s.deps.Audit.Record(ctx, ev); err != nil {
		logger.From(ctx).Warn("audit record failed", logger.Err(err))
	}
}
