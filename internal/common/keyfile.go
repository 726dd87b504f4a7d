package common

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MasterKeySize is the minimum decoded length of the credential master key
const MasterKeySize = 32

// LoadMasterKey returns the key that seals connection secrets.
// An inline encryption_key wins; otherwise key_file is read, or created with a random key.
func LoadMasterKey(config SecurityConfig) ([]byte, error) {
	if config.EncryptionKey != "" {
		return decodeMasterKey(config.EncryptionKey, "security.encryption_key")
	}

	data, err := os.ReadFile(config.KeyFile)
	if err == nil {
		return decodeMasterKey(string(data), config.KeyFile)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read key file %s: %w", config.KeyFile, err)
	}

	key := make([]byte, MasterKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(config.KeyFile), 0700); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(key) + "\n"
	if err := os.WriteFile(config.KeyFile, []byte(encoded), 0600); err != nil {
		return nil, fmt.Errorf("failed to write key file %s: %w", config.KeyFile, err)
	}
	return key, nil
}

func decodeMasterKey(encoded, source string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("%s is not valid base64: %w", source, err)
	}
	if len(key) < MasterKeySize {
		return nil, fmt.Errorf("%s must decode to at least %d bytes, got %d", source, MasterKeySize, len(key))
	}
	return key, nil
}
