package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/loginjohn/internal/observability/logger"
)

// LogSink emite los eventos al logger estructurado. Es el sink por defecto
// cuando no hay Postgres configurado.
type LogSink struct{}

func NewLogSink() *LogSink { return &LogSink{} }

func (s *LogSink) Record(ctx context.Context, ev Event) error {
	logger.From(ctx).Info("audit",
		zap.String("audit_id", ev.ID),
		zap.String("kind", ev.Kind),
		zap.Time("at", ev.At),
		logger.RequestID(ev.RequestID),
		logger.SessionID(ev.SessionID),
		logger.UserID(ev.UserID),
		logger.OrgID(ev.OrgID),
		zap.String("outcome", ev.Outcome),
		zap.Any("detail", ev.Detail),
	)
	return nil
}

func (s *LogSink) Close() {}
