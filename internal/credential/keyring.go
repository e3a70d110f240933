package credential

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/99designs/keyring"
)

const serviceName = "dailyboard"

// Keyring stores the token in the operating system keyring, falling back to
// an encrypted file under the configured directory.
type Keyring struct {
	ring keyring.Keyring
}

// OpenKeyring opens the platform keyring. filePassword protects the file
// backend; an empty value uses a fixed key.
func OpenKeyring(fileDir, filePassword string) (*Keyring, error) {
	if filePassword == "" {
		filePassword = serviceName + "-file-key"
	}
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt(filePassword),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return NewKeyring(ring), nil
}

func NewKeyring(ring keyring.Keyring) *Keyring {
	return &Keyring{ring: ring}
}

func (k *Keyring) Get(_ context.Context) (string, error) {
	item, err := k.ring.Get(TokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) || errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get credential %q: %w", TokenKey, err)
	}
	if len(item.Data) == 0 {
		return "", ErrNotFound
	}
	return string(item.Data), nil
}

func (k *Keyring) Set(_ context.Context, token string) error {
	token, err := cleanToken(token)
	if err != nil {
		return err
	}
	err = k.ring.Set(keyring.Item{
		Key:         TokenKey,
		Data:        []byte(token),
		Label:       "Lost Ark API token",
		Description: "dailyboard roster lookups",
	})
	if err != nil {
		return fmt.Errorf("set credential %q: %w", TokenKey, err)
	}
	return nil
}

func (k *Keyring) Clear(_ context.Context) error {
	err := k.ring.Remove(TokenKey)
	if err == nil || errors.Is(err, keyring.ErrKeyNotFound) || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("delete credential %q: %w", TokenKey, err)
}
