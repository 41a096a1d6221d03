package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/loginjohn/internal/flow"
	"github.com/dropDatabas3/loginjohn/internal/idp"
	"github.com/dropDatabas3/loginjohn/internal/password"
	"github.com/dropDatabas3/loginjohn/internal/stepup"
)

type fakePasswordService struct {
	got password.ChangeRequest
	res *password.ChangeResult
	err error
}

func (f *fakePasswordService) Change(ctx context.Context, req password.ChangeRequest) (*password.ChangeResult, error) {
	f.got = req
	return f.res, f.err
}

type fakeFlowService struct {
	got flow.CompleteRequest
	res *flow.CompleteResult
	err error
}

func (f *fakeFlowService) Complete(ctx context.Context, req flow.CompleteRequest) (*flow.CompleteResult, error) {
	f.got = req
	return f.res, f.err
}

func postJSON(t *testing.T, h http.HandlerFunc, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (code, message string) {
	t.Helper()
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code, body.Message
}

func TestFlowComplete_InvalidRequestID(t *testing.T) {
	svc := &fakeFlowService{err: flow.ErrInvalidRequestIDFormat}
	h := &FlowHandler{Service: svc, CookieName: "lj_sessions"}

	rec := postJSON(t, h.Complete, `{"auth_request_id":"request123"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	code, msg := decodeError(t, rec)
	assert.Equal(t, "INVALID_REQUEST_ID_FORMAT", code)
	assert.Equal(t, "Invalid request ID format", msg)
}

func TestFlowComplete_NavigationFailed(t *testing.T) {
	svc := &fakeFlowService{err: flow.ErrNavigationFailed}
	h := &FlowHandler{Service: svc, CookieName: "lj_sessions"}

	rec := postJSON(t, h.Complete, `{"auth_request_id":"oidc_x"}`, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	code, msg := decodeError(t, rec)
	assert.Equal(t, "NAVIGATION_FAILED", code)
	assert.Equal(t, "Authentication completed but navigation failed", msg)
}

func TestFlowComplete_CompletionErrorVerbatim(t *testing.T) {
	svc := &fakeFlowService{err: &flow.CompletionError{Reason: "login_required"}}
	h := &FlowHandler{Service: svc, CookieName: "lj_sessions"}

	rec := postJSON(t, h.Complete, `{"auth_request_id":"oidc_x"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	code, msg := decodeError(t, rec)
	assert.Equal(t, "FLOW_COMPLETION_FAILED", code)
	assert.Equal(t, "login_required", msg)
}

func TestFlowComplete_CookieForwardedAsJarHandle(t *testing.T) {
	svc := &fakeFlowService{res: &flow.CompleteResult{Redirect: "https://rp/cb"}}
	h := &FlowHandler{Service: svc, CookieName: "lj_sessions"}

	rec := postJSON(t, h.Complete, `{"auth_request_id":"oidc_x"}`,
		&http.Cookie{Name: "lj_sessions", Value: "handle-1"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "handle-1", svc.got.JarHandle)

	var body struct {
		Redirect string `json:"redirect"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "https://rp/cb", body.Redirect)
}

func TestPasswordChange_StaleDenied(t *testing.T) {
	svc := &fakePasswordService{err: password.ErrPasswordCheckTooOld}
	h := &PasswordHandler{Service: svc, CookieName: "lj_sessions"}

	rec := postJSON(t, h.Change, `{"session_id":"s1","new_password":"Abcdef1!"}`, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	code, msg := decodeError(t, rec)
	assert.Equal(t, "PASSWORD_CHECK_TOO_OLD", code)
	assert.Equal(t, "password verification too old", msg)
}

func TestPasswordChange_NoPasswordVerification(t *testing.T) {
	svc := &fakePasswordService{err: stepup.ErrNoPasswordVerification}
	h := &PasswordHandler{Service: svc, CookieName: "lj_sessions"}

	rec := postJSON(t, h.Change, `{"session_id":"s1","new_password":"Abcdef1!"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	code, _ := decodeError(t, rec)
	assert.Equal(t, "SESSION_NOT_PASSWORD_VERIFIED", code)
}

func TestPasswordChange_IdPErrorPassthrough(t *testing.T) {
	svc := &fakePasswordService{err: &idp.APIError{StatusCode: 400, Code: "INVALID_ARGUMENT", Message: "password reuse"}}
	h := &PasswordHandler{Service: svc, CookieName: "lj_sessions"}

	rec := postJSON(t, h.Change, `{"session_id":"s1","new_password":"Abcdef1!"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	code, msg := decodeError(t, rec)
	assert.Equal(t, "INVALID_ARGUMENT", code)
	assert.Equal(t, "password reuse", msg)
}

func TestPasswordChange_OK(t *testing.T) {
	svc := &fakePasswordService{res: &password.ChangeResult{
		Path:   stepup.PathPrivilegedFallback,
		Reason: stepup.ReasonSecondFactorMissingFresh,
	}}
	h := &PasswordHandler{Service: svc, CookieName: "lj_sessions"}

	rec := postJSON(t, h.Change, `{"session_id":"s1","new_password":"Abcdef1!"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		OK   bool   `json:"ok"`
		Path string `json:"path"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.OK)
	assert.Equal(t, "privileged_fallback", body.Path)
}

func TestStrictJSON_UnknownFieldRejected(t *testing.T) {
	svc := &fakePasswordService{}
	h := &PasswordHandler{Service: svc, CookieName: "lj_sessions"}

	rec := postJSON(t, h.Change, `{"session_id":"s1","new_password":"x","nope":true}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	code, _ := decodeError(t, rec)
	assert.Equal(t, "INVALID_JSON", code)
}

func TestStrictJSON_MissingContentType(t *testing.T) {
	svc := &fakeFlowService{}
	h := &FlowHandler{Service: svc, CookieName: "lj_sessions"}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Complete(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}
