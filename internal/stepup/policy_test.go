package stepup

import (
	"errors"
	"testing"
	"time"

	"github.com/dropDatabas3/loginjohn/internal/domain/session"
)

var baseNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func viewWithFactors(factors ...session.Factor) session.View {
	v := session.View{
		ID:      "s1",
		UserID:  "u1",
		Factors: make(map[session.FactorKind]session.Factor, len(factors)),
	}
	for _, f := range factors {
		v.Factors[f.Kind] = f
	}
	return v
}

func cfgWith(kinds ...session.FactorKind) AccountAuthConfig {
	return AccountAuthConfig{ConfiguredMethods: kinds}
}

func TestDecide_NoSecondFactorConfigured(t *testing.T) {
	// Sin segundo factor enrolado la sesión siempre actúa sola, aunque la
	// verificación de password sea vieja.
	v := viewWithFactors(session.Factor{Kind: session.FactorPassword, VerifiedAt: baseNow.Add(-24 * time.Hour)})
	d, err := Decide(v, cfgWith(session.FactorPassword), 5*time.Minute, baseNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Authorized() || d.Path != PathSessionScoped || d.Reason != ReasonNoSecondFactorConfigured {
		t.Fatalf("unexpected decision: %+v", d)
	}
}

func TestDecide_SecondFactorVerifiedAnyAge(t *testing.T) {
	// Un segundo factor verificado habilita el path session-scoped sin
	// importar cuándo se verificó.
	v := viewWithFactors(
		session.Factor{Kind: session.FactorPassword, VerifiedAt: baseNow.Add(-48 * time.Hour)},
		session.Factor{Kind: session.FactorTOTP, VerifiedAt: baseNow.Add(-48 * time.Hour)},
	)
	d, err := Decide(v, cfgWith(session.FactorPassword, session.FactorTOTP), 5*time.Minute, baseNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Authorized() || d.Path != PathSessionScoped || d.Reason != ReasonSecondFactorVerified {
		t.Fatalf("unexpected decision: %+v", d)
	}
}

func TestDecide_SecondFactorWithZeroTimestampIgnored(t *testing.T) {
	// Un factor presente pero sin timestamp de verificación se trata igual que
	// ausente: no habilita la regla 2, se cae a la frescura del password.
	v := viewWithFactors(
		session.Factor{Kind: session.FactorPassword, VerifiedAt: baseNow.Add(-10 * time.Minute)},
		session.Factor{Kind: session.FactorTOTP},
	)
	d, err := Decide(v, cfgWith(session.FactorPassword, session.FactorTOTP), 5*time.Minute, baseNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Authorized() || d.Reason != ReasonSecondFactorMissingStale {
		t.Fatalf("expected deny via freshness check, got %+v", d)
	}
	if d.Message != MsgPasswordCheckTooOld {
		t.Fatalf("unexpected message: %q", d.Message)
	}
}

func TestDecide_NoPasswordVerification(t *testing.T) {
	v := viewWithFactors() // ningún factor verificado
	_, err := Decide(v, cfgWith(session.FactorPassword, session.FactorTOTP), 5*time.Minute, baseNow)
	if !errors.Is(err, ErrNoPasswordVerification) {
		t.Fatalf("expected ErrNoPasswordVerification, got %v", err)
	}
}

func TestDecide_PasswordFresh(t *testing.T) {
	v := viewWithFactors(session.Factor{Kind: session.FactorPassword, VerifiedAt: baseNow.Add(-60 * time.Second)})
	d, err := Decide(v, cfgWith(session.FactorPassword, session.FactorU2F), 300*time.Second, baseNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Authorized() || d.Path != PathPrivilegedFallback || d.Reason != ReasonSecondFactorMissingFresh {
		t.Fatalf("unexpected decision: %+v", d)
	}
}

func TestDecide_PasswordExactlyAtWindow(t *testing.T) {
	// Edad == ventana cuenta como fresca (comparación inclusiva).
	v := viewWithFactors(session.Factor{Kind: session.FactorPassword, VerifiedAt: baseNow.Add(-300 * time.Second)})
	d, err := Decide(v, cfgWith(session.FactorPassword, session.FactorTOTP), 300*time.Second, baseNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Authorized() || d.Path != PathPrivilegedFallback {
		t.Fatalf("expected fresh at boundary, got %+v", d)
	}
}

func TestDecide_PasswordStale(t *testing.T) {
	v := viewWithFactors(session.Factor{Kind: session.FactorPassword, VerifiedAt: baseNow.Add(-600 * time.Second)})
	d, err := Decide(v, cfgWith(session.FactorPassword, session.FactorTOTP), 300*time.Second, baseNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Authorized() || d.Reason != ReasonSecondFactorMissingStale {
		t.Fatalf("expected deny, got %+v", d)
	}
	if d.Message != MsgPasswordCheckTooOld {
		t.Fatalf("unexpected message: %q", d.Message)
	}
}

func TestDecide_NegativeAgeIsFresh(t *testing.T) {
	// Clock skew: verificación "en el futuro" cuenta como fresca.
	v := viewWithFactors(session.Factor{Kind: session.FactorPassword, VerifiedAt: baseNow.Add(30 * time.Second)})
	d, err := Decide(v, cfgWith(session.FactorPassword, session.FactorTOTP), 300*time.Second, baseNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Authorized() || d.Path != PathPrivilegedFallback {
		t.Fatalf("expected fresh with negative age, got %+v", d)
	}
}

func TestDecide_WholeSecondComparison(t *testing.T) {
	// La edad se compara en segundos enteros: los nanos no cuentan.
	now := time.Unix(1_000_300, 500_000_000)
	pwAt := time.Unix(1_000_000, 900_000_000) // edad entera: 300s
	v := viewWithFactors(session.Factor{Kind: session.FactorPassword, VerifiedAt: pwAt})
	d, err := Decide(v, cfgWith(session.FactorPassword, session.FactorTOTP), 300*time.Second, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Authorized() {
		t.Fatalf("expected fresh at whole-second boundary, got %+v", d)
	}
}

func TestHasSecondFactor(t *testing.T) {
	if cfgWith(session.FactorPassword, session.FactorIDP).HasSecondFactor() {
		t.Fatal("password+idp should not count as second factor")
	}
	if !cfgWith(session.FactorPassword, session.FactorPasskey).HasSecondFactor() {
		t.Fatal("passkey should count as second factor")
	}
}
