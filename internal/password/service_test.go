package password

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/loginjohn/internal/cache"
	"github.com/dropDatabas3/loginjohn/internal/cookies"
	"github.com/dropDatabas3/loginjohn/internal/domain/session"
	"github.com/dropDatabas3/loginjohn/internal/idp"
	"github.com/dropDatabas3/loginjohn/internal/stepup"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeSessions struct {
	view session.View
	err  error
}

func (f *fakeSessions) GetSession(ctx context.Context, id string) (session.View, error) {
	return f.view, f.err
}

func (f *fakeSessions) ListSessions(ctx context.Context, ids []string) ([]session.View, error) {
	return nil, nil
}

type fakeUsers struct {
	methods []session.FactorKind

	sessionCalls int
	sessionIn    idp.SessionPasswordInput
	sessionErr   error

	serviceCalls int
	serviceIn    idp.ServicePasswordInput
	serviceErr   error
}

func (f *fakeUsers) ListAuthenticationMethodTypes(ctx context.Context, userID string) ([]session.FactorKind, error) {
	return f.methods, nil
}

func (f *fakeUsers) SetPasswordWithSession(ctx context.Context, in idp.SessionPasswordInput) error {
	f.sessionCalls++
	f.sessionIn = in
	return f.sessionErr
}

func (f *fakeUsers) SetPasswordAsService(ctx context.Context, in idp.ServicePasswordInput) error {
	f.serviceCalls++
	f.serviceIn = in
	return f.serviceErr
}

type fakeSettings struct {
	login      *idp.LoginSettings
	complexity *idp.PasswordComplexitySettings
}

func (f *fakeSettings) GetLoginSettings(ctx context.Context, orgID string) (*idp.LoginSettings, error) {
	if f.login != nil {
		return f.login, nil
	}
	return &idp.LoginSettings{}, nil
}

func (f *fakeSettings) GetPasswordComplexitySettings(ctx context.Context, orgID string) (*idp.PasswordComplexitySettings, error) {
	if f.complexity != nil {
		return f.complexity, nil
	}
	return &idp.PasswordComplexitySettings{MinLength: 8}, nil
}

func (f *fakeSettings) GetLockoutSettings(ctx context.Context, orgID string) (*idp.LockoutSettings, error) {
	return &idp.LockoutSettings{}, nil
}

type fixture struct {
	sessions *fakeSessions
	users    *fakeUsers
	settings *fakeSettings
	jar      *cookies.Store
	svc      Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sessions: &fakeSessions{},
		users:    &fakeUsers{},
		settings: &fakeSettings{},
		jar:      cookies.NewStore(cache.NewMemory("test:", time.Hour), time.Hour),
	}
	f.svc = NewService(Deps{
		Sessions:      f.sessions,
		Users:         f.users,
		Settings:      f.settings,
		Jar:           f.jar,
		DefaultWindow: 5 * time.Minute,
		Now:           func() time.Time { return testNow },
	})
	return f
}

func (f *fixture) saveJar(t *testing.T, entries ...cookies.SessionCookie) string {
	t.Helper()
	handle, err := f.jar.Save(context.Background(), "", entries)
	require.NoError(t, err)
	return handle
}

func sessionView(factors ...session.Factor) session.View {
	v := session.View{ID: "s1", UserID: "u1", OrganizationID: "org1",
		Factors: make(map[session.FactorKind]session.Factor, len(factors))}
	for _, f := range factors {
		v.Factors[f.Kind] = f
	}
	return v
}

func TestChange_MissingFields(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Change(context.Background(), ChangeRequest{SessionID: "", NewPassword: "Abcdef1!"})
	assert.ErrorIs(t, err, ErrMissingFields)
	_, err = f.svc.Change(context.Background(), ChangeRequest{SessionID: "s1", NewPassword: ""})
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestChange_StaleDeniedWithoutMutation(t *testing.T) {
	f := newFixture(t)
	f.sessions.view = sessionView(session.Factor{Kind: session.FactorPassword, VerifiedAt: testNow.Add(-10 * time.Minute)})
	f.users.methods = []session.FactorKind{session.FactorPassword, session.FactorTOTP}

	_, err := f.svc.Change(context.Background(), ChangeRequest{SessionID: "s1", NewPassword: "Abcdef1!"})
	assert.ErrorIs(t, err, ErrPasswordCheckTooOld)
	assert.Equal(t, "password verification too old", err.Error())
	assert.Zero(t, f.users.sessionCalls, "denied change must not mutate")
	assert.Zero(t, f.users.serviceCalls, "denied change must not mutate")
}

func TestChange_FreshUsesPrivilegedPathOnce(t *testing.T) {
	f := newFixture(t)
	f.sessions.view = sessionView(session.Factor{Kind: session.FactorPassword, VerifiedAt: testNow.Add(-60 * time.Second)})
	f.users.methods = []session.FactorKind{session.FactorPassword, session.FactorTOTP}

	res, err := f.svc.Change(context.Background(), ChangeRequest{SessionID: "s1", NewPassword: "Abcdef1!"})
	require.NoError(t, err)
	assert.Equal(t, stepup.PathPrivilegedFallback, res.Path)
	assert.Equal(t, 1, f.users.serviceCalls)
	assert.Zero(t, f.users.sessionCalls)
	assert.Equal(t, "u1", f.users.serviceIn.UserID)
	assert.Equal(t, "org1", f.users.serviceIn.OrganizationID)
	assert.Equal(t, "Abcdef1!", f.users.serviceIn.NewPassword)
}

func TestChange_VerifiedSecondFactorUsesSessionPath(t *testing.T) {
	f := newFixture(t)
	f.sessions.view = sessionView(
		session.Factor{Kind: session.FactorPassword, VerifiedAt: testNow.Add(-2 * time.Hour)},
		session.Factor{Kind: session.FactorTOTP, VerifiedAt: testNow.Add(-2 * time.Hour)},
	)
	f.users.methods = []session.FactorKind{session.FactorPassword, session.FactorTOTP}
	handle := f.saveJar(t, cookies.SessionCookie{ID: "s1", Token: "tok1"})

	res, err := f.svc.Change(context.Background(), ChangeRequest{SessionID: "s1", NewPassword: "Abcdef1!", JarHandle: handle})
	require.NoError(t, err)
	assert.Equal(t, stepup.PathSessionScoped, res.Path)
	assert.Equal(t, 1, f.users.sessionCalls)
	assert.Zero(t, f.users.serviceCalls)
	assert.Equal(t, "tok1", f.users.sessionIn.SessionToken)
	assert.Equal(t, "s1", f.users.sessionIn.SessionID)
}

func TestChange_NoSecondFactorConfiguredSessionPath(t *testing.T) {
	f := newFixture(t)
	f.sessions.view = sessionView(session.Factor{Kind: session.FactorPassword, VerifiedAt: testNow.Add(-3 * time.Hour)})
	f.users.methods = []session.FactorKind{session.FactorPassword}
	handle := f.saveJar(t, cookies.SessionCookie{ID: "s1", Token: "tok1"})

	res, err := f.svc.Change(context.Background(), ChangeRequest{SessionID: "s1", NewPassword: "Abcdef1!", JarHandle: handle})
	require.NoError(t, err)
	assert.Equal(t, stepup.PathSessionScoped, res.Path)
	assert.Equal(t, stepup.ReasonNoSecondFactorConfigured, res.Reason)
	assert.Equal(t, 1, f.users.sessionCalls)
}

func TestChange_NoPasswordVerification(t *testing.T) {
	f := newFixture(t)
	f.sessions.view = sessionView() // sin factores verificados
	f.users.methods = []session.FactorKind{session.FactorPassword, session.FactorTOTP}

	_, err := f.svc.Change(context.Background(), ChangeRequest{SessionID: "s1", NewPassword: "Abcdef1!"})
	assert.ErrorIs(t, err, stepup.ErrNoPasswordVerification)
	assert.Zero(t, f.users.sessionCalls)
	assert.Zero(t, f.users.serviceCalls)
}

func TestChange_SessionPathWithoutTokenFails(t *testing.T) {
	f := newFixture(t)
	f.sessions.view = sessionView(
		session.Factor{Kind: session.FactorPassword, VerifiedAt: testNow.Add(-time.Hour)},
		session.Factor{Kind: session.FactorU2F, VerifiedAt: testNow.Add(-time.Hour)},
	)
	f.users.methods = []session.FactorKind{session.FactorPassword, session.FactorU2F}

	// jar sin entrada para s1
	_, err := f.svc.Change(context.Background(), ChangeRequest{SessionID: "s1", NewPassword: "Abcdef1!"})
	assert.ErrorIs(t, err, ErrSessionTokenMissing)
	assert.Zero(t, f.users.sessionCalls)
	assert.Zero(t, f.users.serviceCalls)
}

func TestChange_ComplexityRejectedBeforeDecision(t *testing.T) {
	f := newFixture(t)
	f.sessions.view = sessionView(session.Factor{Kind: session.FactorPassword, VerifiedAt: testNow.Add(-time.Minute)})
	f.users.methods = []session.FactorKind{session.FactorPassword}
	f.settings.complexity = &idp.PasswordComplexitySettings{MinLength: 12, RequireDigit: true}

	_, err := f.svc.Change(context.Background(), ChangeRequest{SessionID: "s1", NewPassword: "short"})
	var cerr *ComplexityError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Reasons, "too_short")
	assert.Contains(t, cerr.Reasons, "missing_digit")
	assert.Zero(t, f.users.sessionCalls)
	assert.Zero(t, f.users.serviceCalls)
}

func TestChange_OrgWindowOverridesDefault(t *testing.T) {
	f := newFixture(t)
	// Edad 7m: con la ventana default (5m) sería stale, pero el org la
	// extiende a 10m.
	f.sessions.view = sessionView(session.Factor{Kind: session.FactorPassword, VerifiedAt: testNow.Add(-7 * time.Minute)})
	f.users.methods = []session.FactorKind{session.FactorPassword, session.FactorTOTP}
	f.settings.login = &idp.LoginSettings{PasswordCheckLifetime: 10 * time.Minute}

	res, err := f.svc.Change(context.Background(), ChangeRequest{SessionID: "s1", NewPassword: "Abcdef1!"})
	require.NoError(t, err)
	assert.Equal(t, stepup.PathPrivilegedFallback, res.Path)
	assert.Equal(t, 1, f.users.serviceCalls)
}

func TestChange_MutationErrorShortCircuits(t *testing.T) {
	f := newFixture(t)
	f.sessions.view = sessionView(session.Factor{Kind: session.FactorPassword, VerifiedAt: testNow.Add(-time.Minute)})
	f.users.methods = []session.FactorKind{session.FactorPassword, session.FactorTOTP}
	apiErr := &idp.APIError{StatusCode: 400, Code: "INVALID_ARGUMENT", Message: "password reuse"}
	f.users.serviceErr = apiErr

	_, err := f.svc.Change(context.Background(), ChangeRequest{SessionID: "s1", NewPassword: "Abcdef1!"})
	var got *idp.APIError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, apiErr, got)
	assert.Equal(t, 1, f.users.serviceCalls, "exactly one mutation attempt")
	assert.Zero(t, f.users.sessionCalls)
}
