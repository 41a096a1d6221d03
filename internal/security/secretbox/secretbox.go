// Package secretbox cifra/descifra secretos de configuración con AES-256-GCM.
// La clave maestra viene de SECRETBOX_MASTER_KEY (base64, 32 bytes).
//
// Los valores cifrados llevan el prefijo "GCMV1:" seguido de
// base64(nonce)|base64(ciphertext); MaybeDecrypt deja pasar sin tocar
// cualquier valor sin ese prefijo.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

const (
	envVar    = "SECRETBOX_MASTER_KEY"
	prefix    = "GCMV1:"
	nonceSize = 12 // AES-GCM, 96 bits
	keySize   = 32 // AES-256
	sep       = "|"
)

var (
	once    sync.Once
	key     []byte
	loadErr error
)

func loadKey() error {
	once.Do(func() {
		b64 := strings.TrimSpace(os.Getenv(envVar))
		if b64 == "" {
			loadErr = fmt.Errorf("%s no seteada; genere una con: openssl rand -base64 32", envVar)
			return
		}
		k, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			loadErr = fmt.Errorf("decode %s: %w", envVar, err)
			return
		}
		if len(k) != keySize {
			loadErr = fmt.Errorf("%s debe decodificar a %d bytes, obtuvo %d", envVar, keySize, len(k))
			return
		}
		key = k
	})
	return loadErr
}

// Ready indica si la clave maestra está disponible.
func Ready() bool { return loadKey() == nil }

func gcm() (cipher.AEAD, error) {
	if err := loadKey(); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// Encrypt cifra plainText y retorna el valor con prefijo GCMV1:.
func Encrypt(plainText string) (string, error) {
	aead, err := gcm()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce random: %w", err)
	}
	ct := aead.Seal(nil, nonce, []byte(plainText), nil)
	return prefix + base64.StdEncoding.EncodeToString(nonce) + sep + base64.StdEncoding.EncodeToString(ct), nil
}

// Decrypt descifra un valor con prefijo GCMV1:.
func Decrypt(value string) (string, error) {
	if !strings.HasPrefix(value, prefix) {
		return "", errors.New("secretbox: falta prefijo GCMV1:")
	}
	parts := strings.Split(strings.TrimPrefix(value, prefix), sep)
	if len(parts) != 2 {
		return "", errors.New("secretbox: formato inválido, esperado base64(nonce)|base64(ciphertext)")
	}
	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("secretbox: decode nonce: %w", err)
	}
	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("secretbox: decode ciphertext: %w", err)
	}
	if len(nonce) != nonceSize {
		return "", fmt.Errorf("secretbox: nonce de %d bytes, esperado %d", len(nonce), nonceSize)
	}
	aead, err := gcm()
	if err != nil {
		return "", err
	}
	pt, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("secretbox: gcm auth/decrypt: %w", err)
	}
	return string(pt), nil
}

// MaybeDecrypt descifra solo si el valor viene con prefijo GCMV1:;
// cualquier otro valor pasa sin modificar.
func MaybeDecrypt(value string) (string, error) {
	if !strings.HasPrefix(value, prefix) {
		return value, nil
	}
	return Decrypt(value)
}

// UnsafeSetKeyForTests setea una clave cruda de 32 bytes. Solo para tests.
func UnsafeSetKeyForTests(k []byte) error {
	if len(k) != keySize {
		return fmt.Errorf("secretbox: clave de test debe tener %d bytes", keySize)
	}
	once.Do(func() {})
	key = append([]byte(nil), k...)
	loadErr = nil
	return nil
}
