package idp

import (
	"testing"
	"time"

	"github.com/dropDatabas3/loginjohn/internal/cookies"
	"github.com/dropDatabas3/loginjohn/internal/domain/session"
)

func TestWireSessionToView(t *testing.T) {
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	w := wireSession{
		ID:             "s1",
		UserID:         "u1",
		OrganizationID: "org1",
		Factors: map[string]wireFactor{
			"password": {VerifiedAt: &at},
			"totp":     {}, // sin verified_at: se descarta
		},
	}
	v := w.toView()
	if v.ID != "s1" || v.UserID != "u1" || v.OrganizationID != "org1" {
		t.Fatalf("unexpected view: %+v", v)
	}
	if _, ok := v.VerifiedAt(session.FactorPassword); !ok {
		t.Fatal("password factor lost in projection")
	}
	if _, ok := v.VerifiedAt(session.FactorTOTP); ok {
		t.Fatal("unverified totp must be dropped")
	}
}

func TestPickSession_PinnedID(t *testing.T) {
	req := CompletionRequest{
		SessionID: "s2",
		Cookies: []cookies.SessionCookie{
			{ID: "s1", Token: "tok1"},
			{ID: "s2", Token: "tok2"},
		},
	}
	id, tok := pickSession(req)
	if id != "s2" || tok != "tok2" {
		t.Fatalf("got id=%q tok=%q", id, tok)
	}
}

func TestPickSession_MostRecentWithCookie(t *testing.T) {
	old := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	recent := old.Add(time.Hour)
	req := CompletionRequest{
		Sessions: []session.View{
			{ID: "s1", Factors: map[session.FactorKind]session.Factor{
				session.FactorPassword: {Kind: session.FactorPassword, VerifiedAt: recent},
			}},
			{ID: "s2", Factors: map[session.FactorKind]session.Factor{
				session.FactorPassword: {Kind: session.FactorPassword, VerifiedAt: old},
			}},
		},
		Cookies: []cookies.SessionCookie{
			{ID: "s1", Token: "tok1"},
			{ID: "s2", Token: "tok2"},
		},
	}
	id, tok := pickSession(req)
	if id != "s1" || tok != "tok1" {
		t.Fatalf("expected most recent session, got id=%q tok=%q", id, tok)
	}
}

func TestPickSession_SkipsSessionsWithoutToken(t *testing.T) {
	recent := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	req := CompletionRequest{
		Sessions: []session.View{
			{ID: "s1", Factors: map[session.FactorKind]session.Factor{
				session.FactorPassword: {Kind: session.FactorPassword, VerifiedAt: recent},
			}},
		},
		Cookies: []cookies.SessionCookie{{ID: "", Token: "stale"}},
	}
	id, tok := pickSession(req)
	if id != "" || tok != "" {
		t.Fatalf("expected no pick, got id=%q tok=%q", id, tok)
	}
}

func TestCompletionWire(t *testing.T) {
	if c := (completionWire{}).toCompletion(); c != nil {
		t.Fatalf("empty wire must map to nil, got %+v", c)
	}
	c := (completionWire{CallbackURL: "https://rp/cb"}).toCompletion()
	if c == nil || c.Redirect != "https://rp/cb" || c.FailureReason != "" {
		t.Fatalf("unexpected completion: %+v", c)
	}
	c = (completionWire{Error: "denied"}).toCompletion()
	if c == nil || c.FailureReason != "denied" {
		t.Fatalf("unexpected completion: %+v", c)
	}
}
