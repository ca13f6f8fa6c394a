// Package storage implements the client's credential store: durable,
// encrypted persistence of the signed-in user's profile and token pair.
package storage

import (
	"crypto/cipher"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/atinyakov/GymKeeper/internal/models"
)

// ErrNotFound is returned by the read methods when no value is stored.
var ErrNotFound = errors.New("credential not found")

// File names inside the data dir.
const (
	CredentialsFile = "credentials.json"
	DeviceKeyFile   = "device.key"
)

// FileStore keeps the profile and token pair in a single JSON document,
// each value sealed with the device AEAD.
type FileStore struct {
	path string
	aead cipher.AEAD
	mu   sync.Mutex
}

func NewFileStore(path string, aead cipher.AEAD) *FileStore {
	return &FileStore{path: path, aead: aead}
}

// Open prepares dataDir, loads or creates its device key and returns a
// store backed by the credential file inside it.
func Open(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	key, err := LoadOrCreateDeviceKey(filepath.Join(dataDir, DeviceKeyFile))
	if err != nil {
		return nil, err
	}
	aead, err := NewAEADFromSecret(key)
	if err != nil {
		return nil, err
	}
	return NewFileStore(filepath.Join(dataDir, CredentialsFile), aead), nil
}

func (s *FileStore) ReadProfile() (models.UserProfile, error) {
	var p models.UserProfile
	err := s.read(func(d document) sealed { return d.Profile }, &p)
	return p, err
}

func (s *FileStore) WriteProfile(p models.UserProfile) error {
	return s.write(p, func(d *document, v sealed) { d.Profile = v })
}

func (s *FileStore) ClearProfile() error {
	return s.clear(func(d *document) { d.Profile = "" })
}

func (s *FileStore) ReadTokenPair() (models.TokenPair, error) {
	var t models.TokenPair
	err := s.read(func(d document) sealed { return d.TokenPair }, &t)
	return t, err
}

func (s *FileStore) WriteTokenPair(t models.TokenPair) error {
	return s.write(t, func(d *document, v sealed) { d.TokenPair = v })
}

func (s *FileStore) ClearTokenPair() error {
	return s.clear(func(d *document) { d.TokenPair = "" })
}

func (s *FileStore) read(field func(document) sealed, dst any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	v := field(doc)
	if v == "" {
		return ErrNotFound
	}
	plain, err := unseal(s.aead, v)
	if err != nil {
		return err
	}
	return json.Unmarshal(plain, dst)
}

func (s *FileStore) write(v any, set func(*document, sealed)) error {
	plain, err := json.Marshal(v)
	if err != nil {
		return err
	}
	sv, err := seal(s.aead, plain)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	set(&doc, sv)
	return s.save(doc)
}

func (s *FileStore) clear(unset func(*document)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	unset(&doc)
	if doc == (document{}) {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return s.save(doc)
}

func (s *FileStore) load() (document, error) {
	var doc document
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return doc, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return doc, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return doc, nil
}

func (s *FileStore) save(doc document) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := json.NewEncoder(tmp).Encode(doc); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
