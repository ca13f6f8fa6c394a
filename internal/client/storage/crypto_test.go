package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestNewAEADFromSecret(t *testing.T) {
	aead1, err := NewAEADFromSecret([]byte("device"))
	if err != nil {
		t.Fatalf("derive AEAD failed: %v", err)
	}
	aead2, err := NewAEADFromSecret([]byte("device"))
	if err != nil {
		t.Fatalf("derive AEAD second time: %v", err)
	}

	// same secret => same key, so we can seal with aead1 and open with aead2
	s, err := seal(aead1, []byte("helloworld"))
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	plain, err := unseal(aead2, s)
	if err != nil {
		t.Fatalf("unseal failed: %v", err)
	}
	if !bytes.Equal(plain, []byte("helloworld")) {
		t.Errorf("unexpected plaintext: got %q, want %q", plain, "helloworld")
	}
}

func TestUnseal_Errors(t *testing.T) {
	aead, _ := NewAEADFromSecret([]byte("device"))

	if _, err := unseal(aead, "%%%"); err == nil {
		t.Error("expected base64 error")
	}
	if _, err := unseal(aead, "AAAA"); err == nil {
		t.Error("expected short value error")
	}
}

func TestLoadOrCreateDeviceKey_BadLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), DeviceKeyFile)
	if err := os.WriteFile(path, []byte("short"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOrCreateDeviceKey(path); err == nil {
		t.Error("expected error for truncated device key")
	}
}
