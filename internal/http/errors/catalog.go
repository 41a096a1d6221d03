package errors

import "net/http"

// Catálogo de errores predefinidos. Los handlers los copian con
// WithDetail/WithMessage/WithCause; nunca los mutan.

// 400 Bad Request
var (
	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "La solicitud contiene sintaxis inválida o parámetros faltantes.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "El body no es JSON válido.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrMissingFields = &AppError{
		Code:       "MISSING_FIELDS",
		Message:    "Faltan campos requeridos.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrPasswordComplexity = &AppError{
		Code:       "PASSWORD_COMPLEXITY",
		Message:    "La password no cumple la política de complejidad.",
		HTTPStatus: http.StatusBadRequest,
	}

	// ErrInvalidRequestIDFormat: el auth request id no lleva un prefijo de
	// protocolo conocido. El mensaje visible lo fija la capa de flow.
	ErrInvalidRequestIDFormat = &AppError{
		Code:       "INVALID_REQUEST_ID_FORMAT",
		Message:    "Invalid request ID format",
		HTTPStatus: http.StatusBadRequest,
	}
)

// 401 / 403 / 409
var (
	ErrSessionTokenMissing = &AppError{
		Code:       "SESSION_TOKEN_MISSING",
		Message:    "No hay token de sesión disponible para esta sesión.",
		HTTPStatus: http.StatusUnauthorized,
	}

	// ErrPasswordCheckTooOld: denegación de la política de step-up. El
	// mensaje visible viene de la política.
	ErrPasswordCheckTooOld = &AppError{
		Code:       "PASSWORD_CHECK_TOO_OLD",
		Message:    "password verification too old",
		HTTPStatus: http.StatusForbidden,
	}

	// ErrSessionNotPasswordVerified: la sesión nunca verificó password.
	// Distinto de una verificación vieja: es un estado inválido del caller.
	ErrSessionNotPasswordVerified = &AppError{
		Code:       "SESSION_NOT_PASSWORD_VERIFIED",
		Message:    "La sesión no tiene verificación de password.",
		HTTPStatus: http.StatusConflict,
	}
)

// 415 / 429
var (
	ErrUnsupportedMediaType = &AppError{
		Code:       "UNSUPPORTED_MEDIA_TYPE",
		Message:    "Se requiere Content-Type: application/json.",
		HTTPStatus: http.StatusUnsupportedMediaType,
	}

	ErrRateLimited = &AppError{
		Code:       "RATE_LIMITED",
		Message:    "Demasiadas solicitudes; reintente más tarde.",
		HTTPStatus: http.StatusTooManyRequests,
	}
)

// 5xx
var (
	ErrInternalServerError = &AppError{
		Code:       "INTERNAL",
		Message:    "Error interno del servidor.",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrUpstream = &AppError{
		Code:       "UPSTREAM_ERROR",
		Message:    "El identity provider no respondió correctamente.",
		HTTPStatus: http.StatusBadGateway,
	}

	// ErrNavigationFailed: la autenticación se completó pero el protocolo no
	// entregó redirect. El mensaje visible lo fija la capa de flow.
	ErrNavigationFailed = &AppError{
		Code:       "NAVIGATION_FAILED",
		Message:    "Authentication completed but navigation failed",
		HTTPStatus: http.StatusBadGateway,
	}
)
