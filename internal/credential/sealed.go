package credential

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/argon2"

	"github.com/dukerupert/dailyboard/internal/docstore"
	"github.com/dukerupert/dailyboard/internal/store"
)

const (
	saltSize  = 16
	nonceSize = 12
	keySize   = 32
	argonTime = 3
	argonMem  = 64 * 1024
	argonPar  = 4
)

var (
	ErrNoPassphrase    = errors.New("sealed token storage needs a passphrase")
	ErrWrongPassphrase = errors.New("stored token cannot be opened with this passphrase")
)

var sealedTokenPath = docstore.Join(store.SettingsPath, "api_token")

// Sealed keeps the token in the document store, encrypted with AES-256-GCM
// under a key derived from a passphrase with Argon2id. The stored value is
// base64 of [salt][nonce][ciphertext]. The opened token is cached against
// the stored value so Argon2id runs once per distinct blob.
type Sealed struct {
	docs       *docstore.Store
	passphrase string

	mu          sync.Mutex
	cachedBlob  string
	cachedToken string
}

func NewSealed(docs *docstore.Store, passphrase string) (*Sealed, error) {
	if passphrase == "" {
		return nil, ErrNoPassphrase
	}
	return &Sealed{docs: docs, passphrase: passphrase}, nil
}

func (s *Sealed) Get(ctx context.Context) (string, error) {
	var encoded string
	found, err := s.docs.GetInto(ctx, sealedTokenPath, &encoded)
	if err != nil {
		return "", fmt.Errorf("read sealed token: %w", err)
	}
	if !found || encoded == "" {
		return "", ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cachedBlob != "" && s.cachedBlob == encoded {
		return s.cachedToken, nil
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode sealed token: %w", err)
	}
	plaintext, err := open(data, s.passphrase)
	if err != nil {
		return "", err
	}
	s.cachedBlob, s.cachedToken = encoded, string(plaintext)
	return s.cachedToken, nil
}

func (s *Sealed) Set(ctx context.Context, token string) error {
	token, err := cleanToken(token)
	if err != nil {
		return err
	}
	data, err := seal([]byte(token), s.passphrase)
	if err != nil {
		return err
	}
	encoded := base64.StdEncoding.EncodeToString(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cachedBlob, s.cachedToken = "", ""
	if err := s.docs.Set(ctx, sealedTokenPath, encoded); err != nil {
		return fmt.Errorf("save sealed token: %w", err)
	}
	s.cachedBlob, s.cachedToken = encoded, token
	return nil
}

func (s *Sealed) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cachedBlob, s.cachedToken = "", ""
	if err := s.docs.Remove(ctx, sealedTokenPath); err != nil {
		return fmt.Errorf("clear sealed token: %w", err)
	}
	return nil
}

func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, argonTime, argonMem, argonPar, keySize)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}

func seal(plaintext []byte, passphrase string) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	gcm, err := newGCM(deriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)
	out := make([]byte, 0, saltSize+nonceSize+len(ciphertext))
	out = append(out, salt...)
	out = append(out, nonce...)
	return append(out, ciphertext...), nil
}

func open(data []byte, passphrase string) ([]byte, error) {
	if len(data) < saltSize+nonceSize {
		return nil, fmt.Errorf("sealed token too small")
	}
	salt := data[:saltSize]
	nonce := data[saltSize : saltSize+nonceSize]

	gcm, err := newGCM(deriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, nonce, data[saltSize+nonceSize:], nil)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return plaintext, nil
}
