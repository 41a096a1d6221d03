// Package audit registra eventos de auditoría del login: decisiones de
// step-up, mutaciones de credenciales y completions de flows.
//
// El registro es best-effort: un sink caído nunca debe bloquear ni fallar la
// operación que lo origina; el error se loguea y la operación sigue.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event es un evento de auditoría ya armado.
type Event struct {
	ID        string
	Kind      string
	At        time.Time
	RequestID string
	SessionID string
	UserID    string
	OrgID     string
	Outcome   string
	Detail    map[string]any
}

// Kinds de eventos emitidos por el servicio.
const (
	KindPasswordChange = "password.change"
	KindStepUpDecision = "stepup.decision"
	KindFlowCompletion = "flow.completion"
)

// Sink persiste eventos de auditoría.
type Sink interface {
	Record(ctx context.Context, ev Event) error
	Close()
}

// New arma un evento con id y timestamp ya seteados.
func New(kind string) Event {
	return Event{
		ID:   uuid.NewString(),
		Kind: kind,
		At:   time.Now().UTC(),
	}
}
