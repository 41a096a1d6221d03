// Package cookies implementa el jar de cookies de sesión del login.
//
// El browser lleva una sola cookie opaca (el handle); el contenido real del
// jar — qué sesiones conoce este user-agent y con qué token — vive en el
// cache (memory o redis) bajo ese handle. Así el token de sesión nunca viaja
// en la cookie y revocar un jar es borrar una key.
package cookies

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/loginjohn/internal/cache"
)

const keyPrefix = "jar:"

// SessionCookie es una entrada del jar: una sesión que el caller conoce.
// Entradas con ID vacío pueden existir (jars viejos o corruptos); los
// consumidores deben filtrarlas antes de llamar al IdP.
type SessionCookie struct {
	ID           string    `json:"id"`
	Token        string    `json:"token"`
	LoginName    string    `json:"login_name"`
	Organization string    `json:"organization,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// Store lee y escribe jars contra el cache.
type Store struct {
	cache cache.Client
	ttl   time.Duration
}

// NewStore crea un Store. ttl es la vida del jar completo.
func NewStore(c cache.Client, ttl time.Duration) *Store {
	return &Store{cache: c, ttl: ttl}
}

// All retorna todas las cookies de sesión del jar.
// Un handle vacío o inexistente es un jar vacío, no un error: el flujo de
// completion debe poder seguir con lista vacía.
func (s *Store) All(ctx context.Context, handle string) ([]SessionCookie, error) {
	if handle == "" {
		return nil, nil
	}
	raw, err := s.cache.Get(ctx, keyPrefix+handle)
	if err != nil {
		if cache.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cookies: jar get: %w", err)
	}
	var jar []SessionCookie
	if err := json.Unmarshal([]byte(raw), &jar); err != nil {
		return nil, fmt.Errorf("cookies: jar decode: %w", err)
	}
	return jar, nil
}

// Get busca la cookie de una sesión puntual dentro del jar.
func (s *Store) Get(ctx context.Context, handle, sessionID string) (*SessionCookie, error) {
	jar, err := s.All(ctx, handle)
	if err != nil {
		return nil, err
	}
	for i := range jar {
		if jar[i].ID != "" && jar[i].ID == sessionID {
			return &jar[i], nil
		}
	}
	return nil, nil
}

// Save persiste el jar y retorna el handle (genera uno nuevo si venía vacío).
func (s *Store) Save(ctx context.Context, handle string, jar []SessionCookie) (string, error) {
	if handle == "" {
		handle = uuid.NewString()
	}
	b, err := json.Marshal(jar)
	if err != nil {
		return "", fmt.Errorf("cookies: jar encode: %w", err)
	}
	if err := s.cache.Set(ctx, keyPrefix+handle, string(b), s.ttl); err != nil {
		return "", fmt.Errorf("cookies: jar set: %w", err)
	}
	return handle, nil
}

// Delete elimina el jar completo.
func (s *Store) Delete(ctx context.Context, handle string) error {
	if handle == "" {
		return nil
	}
	return s.cache.Delete(ctx, keyPrefix+handle)
}
