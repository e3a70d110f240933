package credential

import (
	"context"
	"errors"
	"testing"

	"github.com/99designs/keyring"

	"github.com/dukerupert/dailyboard/internal/database"
	"github.com/dukerupert/dailyboard/internal/docstore"
)

func setupDocs(t *testing.T) *docstore.Store {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return docstore.New(db)
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get unset = %v, want ErrNotFound", err)
	}
	if err := s.Set(ctx, "   "); !errors.Is(err, ErrEmptyToken) {
		t.Errorf("set blank = %v, want ErrEmptyToken", err)
	}
	if err := s.Set(ctx, "  abc.def  "); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "abc.def" {
		t.Errorf("token = %q, want %q", got, "abc.def")
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := s.Get(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after clear = %v, want ErrNotFound", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Errorf("clear twice: %v", err)
	}
}

func TestKeyringStore(t *testing.T) {
	exerciseStore(t, NewKeyring(keyring.NewArrayKeyring(nil)))
}

func TestSealedStore(t *testing.T) {
	s, err := NewSealed(setupDocs(t), "correct horse")
	if err != nil {
		t.Fatalf("new sealed: %v", err)
	}
	exerciseStore(t, s)
}

func TestSealedStoreRequiresPassphrase(t *testing.T) {
	if _, err := NewSealed(setupDocs(t), ""); !errors.Is(err, ErrNoPassphrase) {
		t.Errorf("err = %v, want ErrNoPassphrase", err)
	}
}

func TestSealedStoreWrongPassphrase(t *testing.T) {
	docs := setupDocs(t)
	ctx := context.Background()

	a, _ := NewSealed(docs, "first")
	if err := a.Set(ctx, "secret-token"); err != nil {
		t.Fatalf("set: %v", err)
	}

	raw, err := docs.Get(ctx, "lostark/settings/api_token")
	if err != nil {
		t.Fatalf("read raw: %v", err)
	}
	if s, _ := raw.(string); s == "" || s == "secret-token" {
		t.Errorf("stored value %v should be non-empty ciphertext", raw)
	}

	b, _ := NewSealed(docs, "second")
	if _, err := b.Get(ctx); !errors.Is(err, ErrWrongPassphrase) {
		t.Errorf("err = %v, want ErrWrongPassphrase", err)
	}
}

func TestSealedStoreCachesOpenedToken(t *testing.T) {
	docs := setupDocs(t)
	ctx := context.Background()

	a, _ := NewSealed(docs, "first")
	if err := a.Set(ctx, "secret-token"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, err := a.Get(ctx); err != nil || got != "secret-token" {
		t.Fatalf("get = %q, %v", got, err)
	}

	// Same stored blob: served from the cache, so the key is not derived again.
	a.passphrase = "wrong"
	if got, err := a.Get(ctx); err != nil || got != "secret-token" {
		t.Fatalf("cached get = %q, %v", got, err)
	}

	// A blob written elsewhere invalidates the cache.
	b, _ := NewSealed(docs, "first")
	if err := b.Set(ctx, "other-token"); err != nil {
		t.Fatalf("set other: %v", err)
	}
	if _, err := a.Get(ctx); !errors.Is(err, ErrWrongPassphrase) {
		t.Errorf("get after external set = %v, want ErrWrongPassphrase", err)
	}
	a.passphrase = "first"
	if got, err := a.Get(ctx); err != nil || got != "other-token" {
		t.Errorf("get = %q, %v, want other-token", got, err)
	}

	if err := a.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if a.cachedBlob != "" || a.cachedToken != "" {
		t.Errorf("clear left cache %q/%q", a.cachedBlob, a.cachedToken)
	}
	if _, err := a.Get(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after clear = %v, want ErrNotFound", err)
	}
}

func TestSealRoundTrip(t *testing.T) {
	data, err := seal([]byte("hello"), "pw")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if len(data) <= saltSize+nonceSize {
		t.Fatalf("sealed output too short: %d", len(data))
	}
	got, err := open(data, "pw")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("got %q, want hello", got)
	}
	if _, err := open(data[:10], "pw"); err == nil {
		t.Error("expected error for truncated data")
	}
}
