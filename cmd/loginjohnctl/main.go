package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/loginjohn/internal/security/secretbox"
)

type client struct {
	BaseURL   string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte, headers map[string]string) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func main() {
	var (
		baseURL = envOr("LOGINJOHN_URL", "http://localhost:8080")
		out     = envOr("LOGINJOHN_OUT", "text")
		cookie  = envOr("LOGINJOHN_COOKIE", "")
	)

	root := &cobra.Command{
		Use:   "loginjohnctl",
		Short: "CLI de operaciones para loginjohn",
	}
	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del servicio (env LOGINJOHN_URL)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")
	root.PersistentFlags().StringVar(&cookie, "cookie", cookie, "Valor de la cookie de sesión (env LOGINJOHN_COOKIE)")

	cl := &client{BaseURL: baseURL, OutFormat: out, HTTP: &http.Client{Timeout: 30 * time.Second}}

	cookieHeader := func(name string) map[string]string {
		if cookie == "" {
			return nil
		}
		return map[string]string{"Cookie": name + "=" + cookie}
	}

	// ping: /healthz
	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "Ping al servicio",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/healthz", nil, nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("ping falló: status=%d body=%s", status, string(body))
			}
			if cl.OutFormat == "text" {
				fmt.Println("ok")
				return nil
			}
			cl.print(status, body)
			return nil
		},
	}

	// password set
	var pwSession, pwOrg, pwNew, pwCookieName string
	passwordCmd := &cobra.Command{
		Use:   "password",
		Short: "Operaciones de password",
	}
	passwordSetCmd := &cobra.Command{
		Use:   "set",
		Short: "Cambiar la password de la cuenta de una sesión",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pwSession == "" || pwNew == "" {
				return fmt.Errorf("--session y --new-password son requeridos")
			}
			payload := map[string]any{
				"session_id":   pwSession,
				"new_password": pwNew,
			}
			if pwOrg != "" {
				payload["organization"] = pwOrg
			}
			b, _ := json.Marshal(payload)
			status, body, err := cl.do("POST", "/v1/password", b, cookieHeader(pwCookieName))
			if err != nil {
				return err
			}
			cl.print(status, body)
			if status/100 != 2 {
				return fmt.Errorf("status=%d", status)
			}
			return nil
		},
	}
	passwordSetCmd.Flags().StringVar(&pwSession, "session", "", "ID de la sesión")
	passwordSetCmd.Flags().StringVar(&pwOrg, "org", "", "ID de la organización (opcional)")
	passwordSetCmd.Flags().StringVar(&pwNew, "new-password", "", "Nueva password")
	passwordSetCmd.Flags().StringVar(&pwCookieName, "cookie-name", "lj_sessions", "Nombre de la cookie de sesión")
	passwordCmd.AddCommand(passwordSetCmd)

	// flow complete
	var flReqID, flSession, flOrg, flCookieName string
	flowCmd := &cobra.Command{
		Use:   "flow",
		Short: "Operaciones de flows pendientes",
	}
	flowCompleteCmd := &cobra.Command{
		Use:   "complete",
		Short: "Completar un auth request pendiente (oidc_... | saml_...)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flReqID == "" {
				return fmt.Errorf("--request es requerido")
			}
			payload := map[string]any{"auth_request_id": flReqID}
			if flSession != "" {
				payload["session_id"] = flSession
			}
			if flOrg != "" {
				payload["organization"] = flOrg
			}
			b, _ := json.Marshal(payload)
			status, body, err := cl.do("POST", "/v1/flow/complete", b, cookieHeader(flCookieName))
			if err != nil {
				return err
			}
			cl.print(status, body)
			if status/100 != 2 {
				return fmt.Errorf("status=%d", status)
			}
			return nil
		},
	}
	flowCompleteCmd.Flags().StringVar(&flReqID, "request", "", "ID del auth request con prefijo de protocolo")
	flowCompleteCmd.Flags().StringVar(&flSession, "session", "", "ID de sesión a usar (opcional)")
	flowCompleteCmd.Flags().StringVar(&flOrg, "org", "", "ID de la organización (opcional)")
	flowCompleteCmd.Flags().StringVar(&flCookieName, "cookie-name", "lj_sessions", "Nombre de la cookie de sesión")
	flowCmd.AddCommand(flowCompleteCmd)

	// enc: cifra un secreto para la config (requiere SECRETBOX_MASTER_KEY)
	encCmd := &cobra.Command{
		Use:   "enc [valor]",
		Short: "Cifrar un secreto de configuración con secretbox (GCMV1:)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ct, err := secretbox.Encrypt(args[0])
			if err != nil {
				return err
			}
			fmt.Println(ct)
			return nil
		},
	}

	root.AddCommand(pingCmd, passwordCmd, flowCmd, encCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
