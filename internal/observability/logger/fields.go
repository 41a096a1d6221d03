package logger

import (
	"time"

	"go.uber.org/zap"
)

// ─── Campos HTTP ───

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field { return zap.String("request_id", v) }

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field { return zap.String("method", v) }

// Path crea un campo para el path del request.
func Path(v string) zap.Field { return zap.String("path", v) }

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field { return zap.Int("status", v) }

// DurationMs crea un campo para la duración en milisegundos.
func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }

// Bytes crea un campo para los bytes de respuesta.
func Bytes(v int) zap.Field { return zap.Int("bytes", v) }

// ─── Campos de negocio ───

// SessionID crea un campo para el ID de sesión.
func SessionID(v string) zap.Field { return zap.String("session_id", v) }

// UserID crea un campo para el ID del usuario.
func UserID(v string) zap.Field { return zap.String("user_id", v) }

// OrgID crea un campo para el ID de la organización.
func OrgID(v string) zap.Field { return zap.String("org_id", v) }

// AuthRequestID crea un campo para el ID del auth request pendiente.
func AuthRequestID(v string) zap.Field { return zap.String("auth_request_id", v) }

// Protocol crea un campo para el protocolo del flujo (oidc|saml).
func Protocol(v string) zap.Field { return zap.String("protocol", v) }

// Decision crea un campo para la decisión de step-up.
func Decision(v string) zap.Field { return zap.String("decision", v) }

// ─── Campos de sistema ───

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field { return zap.String("component", v) }

// Op crea un campo para la operación actual.
func Op(v string) zap.Field { return zap.String("op", v) }

// Layer crea un campo para la capa (handler, service, client).
func Layer(v string) zap.Field { return zap.String("layer", v) }

// Err crea un campo para un error.
func Err(err error) zap.Field { return zap.Error(err) }

// ─── Campos genéricos ───

// Count crea un campo para un conteo.
func Count(v int) zap.Field { return zap.Int("count", v) }

// Duration crea un campo para una duración.
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

// String crea un campo string genérico.
func String(key, v string) zap.Field { return zap.String(key, v) }

// Int crea un campo int genérico.
func Int(key string, v int) zap.Field { return zap.Int(key, v) }

// Bool crea un campo bool genérico.
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }

// Any crea un campo genérico para cualquier tipo.
func Any(key string, v any) zap.Field { return zap.Any(key, v) }
