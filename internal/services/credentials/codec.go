package credentials

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// KeySize is the size in bytes of the master key and the derived sealing key
const KeySize = 32

// sealedVersion is prepended to every sealed secret and bound as additional data
const sealedVersion byte = 0x01

var hkdfInfo = []byte("jiralocal.connection.secret.v1")

// ErrMalformedSecret is returned when a stored value is not a sealed secret
var ErrMalformedSecret = errors.New("malformed sealed secret")

// Codec seals connection secrets with XChaCha20-Poly1305.
// Output layout before base64: version (1) | nonce (24) | ciphertext+tag.
type Codec struct {
	key []byte
}

// NewCodec derives the sealing key from masterKey with HKDF-SHA256
func NewCodec(masterKey []byte) (*Codec, error) {
	if len(masterKey) < KeySize {
		return nil, fmt.Errorf("master key must be at least %d bytes, got %d", KeySize, len(masterKey))
	}
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, masterKey, nil, hkdfInfo), key); err != nil {
		return nil, fmt.Errorf("derive sealing key: %w", err)
	}
	return &Codec{key: key}, nil
}

func (c *Codec) Encrypt(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, 1+len(nonce)+len(plaintext)+chacha20poly1305.Overhead)
	out = append(out, sealedVersion)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, []byte(plaintext), []byte{sealedVersion})
	return base64.StdEncoding.EncodeToString(out), nil
}

func (c *Codec) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedSecret, err)
	}
	if len(raw) < 1+chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return "", fmt.Errorf("%w: too short (%d bytes)", ErrMalformedSecret, len(raw))
	}
	if raw[0] != sealedVersion {
		return "", fmt.Errorf("%w: unsupported version %#x", ErrMalformedSecret, raw[0])
	}

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}
	nonce := raw[1 : 1+chacha20poly1305.NonceSizeX]
	plaintext, err := aead.Open(nil, nonce, raw[1+chacha20poly1305.NonceSizeX:], raw[:1])
	if err != nil {
		return "", fmt.Errorf("open sealed secret: %w", err)
	}
	return string(plaintext), nil
}
