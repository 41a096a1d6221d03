package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGSink persiste eventos en Postgres (tabla audit_events, ver
// migrations/postgres). Pensado para entornos donde el log no alcanza como
// trail: la tabla es append-only.
type PGSink struct {
	pool *pgxpool.Pool
}

// NewPGSink abre el pool y verifica conectividad.
func NewPGSink(ctx context.Context, dsn string) (*PGSink, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("audit: parse dsn: %w", err)
	}
	pcfg.MaxConns = 4
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("audit: pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("audit: ping: %w", err)
	}
	return &PGSink{pool: pool}, nil
}

func (s *PGSink) Record(ctx context.Context, ev Event) error {
	detail, err := json.Marshal(ev.Detail)
	if err != nil {
		detail = []byte("{}")
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO audit_events (id, kind, at, request_id, session_id, user_id, org_id, outcome, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ev.ID, ev.Kind, ev.At, ev.RequestID, ev.SessionID, ev.UserID, ev.OrgID, ev.Outcome, detail,
	)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

func (s *PGSink) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}
