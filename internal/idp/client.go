package idp

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dropDatabas3/loginjohn/internal/domain/session"
)

// ClientConfig configura el cliente HTTP hacia el IdP.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration

	// Credencial de servicio para el path privilegiado y las completions.
	// ServiceKey es la clave privada Ed25519 en PEM (PKCS#8).
	ServiceUserID string
	ServiceKeyID  string
	ServiceKey    []byte
}

// Client es el cliente HTTP de producción contra la API del IdP.
// Implementa SessionAPI, UserAPI, SettingsAPI, OIDCAPI y SAMLAPI.
type Client struct {
	base string
	http *http.Client

	serviceUserID string
	keyID         string
	key           ed25519.PrivateKey

	mu           sync.Mutex
	assertion    string
	assertionExp time.Time
}

// NewClient valida la config y construye el cliente. La service key es
// opcional: sin ella el path privilegiado y las completions fallan con un
// error explícito en lugar de en el wire.
func NewClient(cfg ClientConfig) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("idp: base URL vacía")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		base:          base,
		http:          &http.Client{Timeout: timeout},
		serviceUserID: cfg.ServiceUserID,
		keyID:         cfg.ServiceKeyID,
	}
	if len(cfg.ServiceKey) > 0 {
		key, err := parseEd25519PEM(cfg.ServiceKey)
		if err != nil {
			return nil, fmt.Errorf("idp: service key: %w", err)
		}
		c.key = key
	}
	return c, nil
}

func parseEd25519PEM(raw []byte) (ed25519.PrivateKey, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("PEM inválido")
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("se esperaba una clave Ed25519, llegó %T", parsed)
	}
	return key, nil
}

// serviceAssertion retorna un JWT de servicio firmado, cacheado hasta cerca
// de su expiración.
func (c *Client) serviceAssertion() (string, error) {
	if c.key == nil {
		return "", fmt.Errorf("idp: no hay service key configurada")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if c.assertion != "" && now.Before(c.assertionExp.Add(-5*time.Minute)) {
		return c.assertion, nil
	}
	exp := now.Add(time.Hour)
	tok := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.MapClaims{
		"iss": c.serviceUserID,
		"sub": c.serviceUserID,
		"aud": c.base,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": exp.Unix(),
	})
	if c.keyID != "" {
		tok.Header["kid"] = c.keyID
	}
	signed, err := tok.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("idp: firmar assertion: %w", err)
	}
	c.assertion = signed
	c.assertionExp = exp
	return signed, nil
}

// do ejecuta una request JSON contra el IdP. Un status no-2xx se decodifica
// como *APIError y se retorna tal cual, sin reinterpretar.
func (c *Client) do(ctx context.Context, method, path, bearer string, in, out any, header http.Header) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("idp: encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("idp: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("idp: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var wire struct {
			Error   string `json:"error"`
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&wire); err == nil {
			apiErr.Code = wire.Code
			if apiErr.Code == "" {
				apiErr.Code = wire.Error
			}
			apiErr.Message = wire.Message
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("idp: decode response: %w", err)
		}
	}
	return nil
}

// --- wire shapes ---

type wireFactor struct {
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

type wireSession struct {
	ID             string                `json:"id"`
	UserID         string                `json:"user_id"`
	OrganizationID string                `json:"organization_id"`
	Factors        map[string]wireFactor `json:"factors"`
}

func (w wireSession) toView() session.View {
	p := session.Payload{
		ID:             w.ID,
		UserID:         w.UserID,
		OrganizationID: w.OrganizationID,
	}
	for kind, f := range w.Factors {
		p.Factors = append(p.Factors, session.PayloadFactor{
			Kind:       session.FactorKind(kind),
			VerifiedAt: f.VerifiedAt,
		})
	}
	return session.FromPayload(p)
}

// --- SessionAPI ---

func (c *Client) GetSession(ctx context.Context, id string) (session.View, error) {
	assertion, err := c.serviceAssertion()
	if err != nil {
		return session.View{}, err
	}
	var out struct {
		Session wireSession `json:"session"`
	}
	if err := c.do(ctx, http.MethodGet, "/v2/sessions/"+url.PathEscape(id), assertion, nil, &out, nil); err != nil {
		return session.View{}, err
	}
	return out.Session.toView(), nil
}

func (c *Client) ListSessions(ctx context.Context, ids []string) ([]session.View, error) {
	assertion, err := c.serviceAssertion()
	if err != nil {
		return nil, err
	}
	in := struct {
		IDs []string `json:"ids"`
	}{IDs: ids}
	var out struct {
		Sessions []wireSession `json:"sessions"`
	}
	if err := c.do(ctx, http.MethodPost, "/v2/sessions/_search", assertion, in, &out, nil); err != nil {
		return nil, err
	}
	views := make([]session.View, 0, len(out.Sessions))
	for _, s := range out.Sessions {
		views = append(views, s.toView())
	}
	return views, nil
}

// --- UserAPI ---

func (c *Client) ListAuthenticationMethodTypes(ctx context.Context, userID string) ([]session.FactorKind, error) {
	assertion, err := c.serviceAssertion()
	if err != nil {
		return nil, err
	}
	var out struct {
		AuthMethodTypes []string `json:"auth_method_types"`
	}
	path := "/v2/users/" + url.PathEscape(userID) + "/authentication_methods"
	if err := c.do(ctx, http.MethodGet, path, assertion, nil, &out, nil); err != nil {
		return nil, err
	}
	kinds := make([]session.FactorKind, 0, len(out.AuthMethodTypes))
	for _, t := range out.AuthMethodTypes {
		kinds = append(kinds, session.FactorKind(t))
	}
	return kinds, nil
}

func (c *Client) SetPasswordWithSession(ctx context.Context, in SessionPasswordInput) error {
	body := struct {
		NewPassword    string `json:"new_password"`
		IdempotencyKey string `json:"idempotency_key,omitempty"`
	}{NewPassword: in.NewPassword, IdempotencyKey: in.IdempotencyKey}
	header := http.Header{}
	header.Set("X-Session-ID", in.SessionID)
	path := "/v2/users/" + url.PathEscape(in.UserID) + "/password"
	return c.do(ctx, http.MethodPost, path, in.SessionToken, body, nil, header)
}

func (c *Client) SetPasswordAsService(ctx context.Context, in ServicePasswordInput) error {
	assertion, err := c.serviceAssertion()
	if err != nil {
		return err
	}
	body := struct {
		NewPassword    string `json:"new_password"`
		OrganizationID string `json:"organization_id,omitempty"`
		IdempotencyKey string `json:"idempotency_key,omitempty"`
	}{NewPassword: in.NewPassword, OrganizationID: in.OrganizationID, IdempotencyKey: in.IdempotencyKey}
	path := "/v2/users/" + url.PathEscape(in.UserID) + "/password"
	return c.do(ctx, http.MethodPost, path, assertion, body, nil, nil)
}

// --- SettingsAPI ---

func (c *Client) GetLoginSettings(ctx context.Context, orgID string) (*LoginSettings, error) {
	assertion, err := c.serviceAssertion()
	if err != nil {
		return nil, err
	}
	var out struct {
		Settings struct {
			PasswordCheckLifetimeSeconds int64 `json:"password_check_lifetime_seconds"`
			ForceMFA                     bool  `json:"force_mfa"`
			IgnoreUnknownUsernames       bool  `json:"ignore_unknown_usernames"`
		} `json:"settings"`
	}
	if err := c.do(ctx, http.MethodGet, "/v2/settings/login"+orgQuery(orgID), assertion, nil, &out, nil); err != nil {
		return nil, err
	}
	return &LoginSettings{
		PasswordCheckLifetime:  time.Duration(out.Settings.PasswordCheckLifetimeSeconds) * time.Second,
		ForceMFA:               out.Settings.ForceMFA,
		IgnoreUnknownUsernames: out.Settings.IgnoreUnknownUsernames,
	}, nil
}

func (c *Client) GetPasswordComplexitySettings(ctx context.Context, orgID string) (*PasswordComplexitySettings, error) {
	assertion, err := c.serviceAssertion()
	if err != nil {
		return nil, err
	}
	var out struct {
		Settings struct {
			MinLength     int  `json:"min_length"`
			RequireUpper  bool `json:"requires_uppercase"`
			RequireLower  bool `json:"requires_lowercase"`
			RequireDigit  bool `json:"requires_number"`
			RequireSymbol bool `json:"requires_symbol"`
		} `json:"settings"`
	}
	if err := c.do(ctx, http.MethodGet, "/v2/settings/password_complexity"+orgQuery(orgID), assertion, nil, &out, nil); err != nil {
		return nil, err
	}
	return &PasswordComplexitySettings{
		MinLength:     out.Settings.MinLength,
		RequireUpper:  out.Settings.RequireUpper,
		RequireLower:  out.Settings.RequireLower,
		RequireDigit:  out.Settings.RequireDigit,
		RequireSymbol: out.Settings.RequireSymbol,
	}, nil
}

func (c *Client) GetLockoutSettings(ctx context.Context, orgID string) (*LockoutSettings, error) {
	assertion, err := c.serviceAssertion()
	if err != nil {
		return nil, err
	}
	var out struct {
		Settings struct {
			MaxPasswordAttempts int `json:"max_password_attempts"`
		} `json:"settings"`
	}
	if err := c.do(ctx, http.MethodGet, "/v2/settings/lockout"+orgQuery(orgID), assertion, nil, &out, nil); err != nil {
		return nil, err
	}
	return &LockoutSettings{MaxPasswordAttempts: out.Settings.MaxPasswordAttempts}, nil
}

func orgQuery(orgID string) string {
	if orgID == "" {
		return ""
	}
	return "?organization=" + url.QueryEscape(orgID)
}

// --- completions ---

// pickSession elige la sesión y el token con los que completar el request:
// la sesión pedida si vino un SessionID, si no la de verificación más
// reciente que tenga cookie (y por lo tanto token) en el jar.
func pickSession(req CompletionRequest) (sessionID, token string) {
	tokens := make(map[string]string, len(req.Cookies))
	for _, ck := range req.Cookies {
		if ck.ID != "" {
			tokens[ck.ID] = ck.Token
		}
	}
	if req.SessionID != "" {
		return req.SessionID, tokens[req.SessionID]
	}
	var best session.View
	var bestAt time.Time
	for _, s := range req.Sessions {
		if _, ok := tokens[s.ID]; !ok {
			continue
		}
		for _, f := range s.Factors {
			if f.VerifiedAt.After(bestAt) {
				bestAt = f.VerifiedAt
				best = s
			}
		}
	}
	return best.ID, tokens[best.ID]
}

type completionWire struct {
	CallbackURL string `json:"callback_url"`
	Error       string `json:"error"`
}

func (w completionWire) toCompletion() *Completion {
	if w.CallbackURL == "" && w.Error == "" {
		return nil
	}
	return &Completion{Redirect: w.CallbackURL, FailureReason: w.Error}
}

func (c *Client) completeRequest(ctx context.Context, path string, req CompletionRequest) (*Completion, error) {
	assertion, err := c.serviceAssertion()
	if err != nil {
		return nil, err
	}
	sessionID, token := pickSession(req)
	body := struct {
		SessionID    string `json:"session_id"`
		SessionToken string `json:"session_token,omitempty"`
		Organization string `json:"organization,omitempty"`
	}{SessionID: sessionID, SessionToken: token, Organization: req.Organization}
	var out completionWire
	if err := c.do(ctx, http.MethodPost, path, assertion, body, &out, nil); err != nil {
		return nil, err
	}
	return out.toCompletion(), nil
}

// --- OIDCAPI ---

func (c *Client) LoginWithOIDCAndSession(ctx context.Context, req CompletionRequest) (*Completion, error) {
	path := "/v2/oidc/auth_requests/" + url.PathEscape(req.RequestID) + "/_complete"
	return c.completeRequest(ctx, path, req)
}

// --- SAMLAPI ---

func (c *Client) LoginWithSAMLAndSession(ctx context.Context, req CompletionRequest) (*Completion, error) {
	path := "/v2/saml/requests/" + url.PathEscape(req.RequestID) + "/_complete"
	return c.completeRequest(ctx, path, req)
}
