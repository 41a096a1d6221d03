package handlers

import (
	"errors"
	"net/http"

	"github.com/dropDatabas3/loginjohn/internal/flow"
	apperrors "github.com/dropDatabas3/loginjohn/internal/http/errors"
	"github.com/dropDatabas3/loginjohn/internal/idp"
	"github.com/dropDatabas3/loginjohn/internal/password"
	"github.com/dropDatabas3/loginjohn/internal/stepup"
)

// mapServiceError traduce errores de las capas de servicio al catálogo HTTP.
// Los errores del IdP pasan con su status/code/message originales: este
// servicio no reinterpreta el contrato de error del colaborador.
func mapServiceError(err error) *apperrors.AppError {
	var apiErr *idp.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		code := apiErr.Code
		if code == "" {
			code = "IDP_ERROR"
		}
		return apperrors.New(status, code, apiErr.Message)
	}

	var complexityErr *password.ComplexityError
	if errors.As(err, &complexityErr) {
		return apperrors.ErrPasswordComplexity.WithDetail(complexityErr.Error())
	}

	var completionErr *flow.CompletionError
	if errors.As(err, &completionErr) {
		// Verbatim: el relying party depende del texto original.
		return apperrors.New(http.StatusBadRequest, "FLOW_COMPLETION_FAILED", completionErr.Reason)
	}

	switch {
	case errors.Is(err, password.ErrMissingFields):
		return apperrors.ErrMissingFields.WithDetail(err.Error())
	case errors.Is(err, password.ErrSessionTokenMissing):
		return apperrors.ErrSessionTokenMissing
	case errors.Is(err, password.ErrPasswordCheckTooOld):
		return apperrors.ErrPasswordCheckTooOld
	case errors.Is(err, stepup.ErrNoPasswordVerification):
		return apperrors.ErrSessionNotPasswordVerified
	case errors.Is(err, flow.ErrInvalidRequestIDFormat):
		return apperrors.ErrInvalidRequestIDFormat
	case errors.Is(err, flow.ErrNavigationFailed):
		return apperrors.ErrNavigationFailed
	}

	return apperrors.ErrInternalServerError.WithCause(err)
}
