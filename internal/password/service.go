// Package password implements the password change service: it evaluates the
// step-up policy for the calling session and executes exactly one credential
// mutation through the authorized path.
package password

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/loginjohn/internal/audit"
	"github.com/dropDatabas3/loginjohn/internal/cookies"
	"github.com/dropDatabas3/loginjohn/internal/domain/session"
	"github.com/dropDatabas3/loginjohn/internal/email"
	"github.com/dropDatabas3/loginjohn/internal/idp"
	"github.com/dropDatabas3/loginjohn/internal/observability/logger"
	secpw "github.com/dropDatabas3/loginjohn/internal/security/password"
	"github.com/dropDatabas3/loginjohn/internal/stepup"
)

var (
	// ErrMissingFields: session id or new password absent from the request.
	ErrMissingFields = errors.New("session id and new password are required")

	// ErrSessionTokenMissing: the policy chose the session-scoped path but
	// the caller's jar has no token for that session.
	ErrSessionTokenMissing = errors.New("no session token available for this session")

	// ErrPasswordCheckTooOld: the step-up policy denied the change. The
	// message shown to the user comes from the policy itself.
	ErrPasswordCheckTooOld = errors.New(stepup.MsgPasswordCheckTooOld)
)

// ComplexityError: the candidate password fails the org's complexity policy.
type ComplexityError struct {
	Reasons []string
}

func (e *ComplexityError) Error() string { return secpw.Describe(e.Reasons) }

// ChangeRequest is the input for a password change.
type ChangeRequest struct {
	SessionID    string
	Organization string
	NewPassword  string
	// JarHandle identifies the caller's session jar (source of the session token).
	JarHandle string
}

// ChangeResult reports how the change was executed.
type ChangeResult struct {
	Path   stepup.Path
	Reason stepup.Reason
}

// Service changes account passwords under the step-up policy.
type Service interface {
	Change(ctx context.Context, req ChangeRequest) (*ChangeResult, error)
}

// Deps are the collaborators of the password service.
type Deps struct {
	Sessions idp.SessionAPI
	Users    idp.UserAPI
	Settings idp.SettingsAPI
	Jar      *cookies.Store
	Audit    audit.Sink
	Email    email.Sender

	// DefaultWindow is the freshness window used when the org's login
	// settings don't override it.
	DefaultWindow time.Duration

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

type service struct {
	deps Deps
}

// NewService creates the password change service.
func NewService(deps Deps) Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.DefaultWindow <= 0 {
		deps.DefaultWindow = 5 * time.Minute
	}
	return &service{deps: deps}
}

func (s *service) Change(ctx context.Context, req ChangeRequest) (*ChangeResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("password.change"))

	// 1. Validate input
	if req.SessionID == "" || req.NewPassword == "" {
		return nil, ErrMissingFields
	}

	// 2. Fresh session view; the jar is never trusted for factor state.
	view, err := s.deps.Sessions.GetSession(ctx, req.SessionID)
	if err != nil {
		log.Error("failed to load session", logger.SessionID(req.SessionID), logger.Err(err))
		return nil, err
	}
	orgID := req.Organization
	if orgID == "" {
		orgID = view.OrganizationID
	}

	// 3. Account config and org settings, fetched concurrently.
	var (
		methods    []session.FactorKind
		loginSet   *idp.LoginSettings
		complexity *idp.PasswordComplexitySettings
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		methods, err = s.deps.Users.ListAuthenticationMethodTypes(gctx, view.UserID)
		return err
	})
	g.Go(func() error {
		var err error
		loginSet, err = s.deps.Settings.GetLoginSettings(gctx, orgID)
		return err
	})
	g.Go(func() error {
		var err error
		complexity, err = s.deps.Settings.GetPasswordComplexitySettings(gctx, orgID)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error("failed to load account config", logger.UserID(view.UserID), logger.Err(err))
		return nil, err
	}

	// 4. Reject obviously invalid candidates before deciding anything.
	if complexity != nil {
		policy := secpw.Policy{
			MinLength:     complexity.MinLength,
			RequireUpper:  complexity.RequireUpper,
			RequireLower:  complexity.RequireLower,
			RequireDigit:  complexity.RequireDigit,
			RequireSymbol: complexity.RequireSymbol,
		}
		if ok, reasons := policy.Validate(req.NewPassword); !ok {
			return nil, &ComplexityError{Reasons: reasons}
		}
	}

	// 5. Freshness window: org login settings win over the service default.
	window := s.deps.DefaultWindow
	if loginSet != nil && loginSet.PasswordCheckLifetime > 0 {
		window = loginSet.PasswordCheckLifetime
	}

	// 6. Step-up decision.
	decision, err := stepup.Decide(view, stepup.AccountAuthConfig{ConfiguredMethods: methods}, window, s.deps.Now())
	if err != nil {
		// Session never verified a password: caller state error, not a denial.
		return nil, err
	}
	log.Info("step-up decision",
		logger.SessionID(view.ID),
		logger.UserID(view.UserID),
		logger.Decision(string(decision.Outcome)),
		logger.String("reason", string(decision.Reason)))
	s.recordDecision(ctx, view, decision)

	if !decision.Authorized() {
		return nil, ErrPasswordCheckTooOld
	}

	// 7. Exactly one mutation call, on the path the policy chose.
	idemKey := uuid.NewString()
	switch decision.Path {
	case stepup.PathSessionScoped:
		ck, err := s.deps.Jar.Get(ctx, req.JarHandle, view.ID)
		if err != nil {
			return nil, err
		}
		if ck == nil || ck.Token == "" {
			return nil, ErrSessionTokenMissing
		}
		err = s.deps.Users.SetPasswordWithSession(ctx, idp.SessionPasswordInput{
			SessionID:      view.ID,
			SessionToken:   ck.Token,
			UserID:         view.UserID,
			NewPassword:    req.NewPassword,
			IdempotencyKey: idemKey,
		})
		if err != nil {
			s.recordChange(ctx, view, decision, "error")
			return nil, err
		}
	case stepup.PathPrivilegedFallback:
		err = s.deps.Users.SetPasswordAsService(ctx, idp.ServicePasswordInput{
			UserID:         view.UserID,
			OrganizationID: orgID,
			NewPassword:    req.NewPassword,
			IdempotencyKey: idemKey,
		})
		if err != nil {
			s.recordChange(ctx, view, decision, "error")
			return nil, err
		}
	}

	// 8. Best-effort notification and audit; the change already succeeded.
	s.recordChange(ctx, view, decision, "ok")
	s.notify(ctx, req.JarHandle, view)

	return &ChangeResult{Path: decision.Path, Reason: decision.Reason}, nil
}

func (s *service) recordDecision(ctx context.Context, view session.View, d stepup.Decision) {
	if s.deps.Audit == nil {
		return
	}
	ev := audit.New(audit.KindStepUpDecision)
	ev.SessionID = view.ID
	ev.UserID = view.UserID
	ev.OrgID = view.OrganizationID
	ev.Outcome = string(d.Outcome)
	ev.Detail = map[string]any{"path": string(d.Path), "reason": string(d.Reason)}
	if err := s.deps.Audit.Record(ctx, ev); err != nil {
		logger.From(ctx).Warn("audit record failed", logger.Err(err))
	}
}

func (s *service) recordChange(ctx context.Context, view session.View, d stepup.Decision, outcome string) {
	if s.deps.Audit == nil {
		return
	}
	ev := audit.New(audit.KindPasswordChange)
	ev.SessionID = view.ID
	ev.UserID = view.UserID
	ev.OrgID = view.OrganizationID
	ev.Outcome = outcome
	ev.Detail = map[string]any{"path": string(d.Path)}
	if err := s.deps.Audit.Record(ctx, ev); err != nil {
		logger.From(ctx).Warn("audit record failed", logger.Err(err))
	}
}

// notify emails the user about the change when the jar knows an address-like
// login name. Errors are logged and swallowed.
func (s *service) notify(ctx context.Context, jarHandle string, view session.View) {
	if s.deps.Email == nil {
		return
	}
	ck, err := s.deps.Jar.Get(ctx, jarHandle, view.ID)
	if err != nil || ck == nil || !strings.Contains(ck.LoginName, "@") {
		return
	}
	if err := email.SendPasswordChanged(s.deps.Email, ck.LoginName, ck.LoginName, s.deps.Now()); err != nil {
		logger.From(ctx).Warn("password change notification failed", logger.Err(err))
	}
}
