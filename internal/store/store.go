package store

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/muurk/bankconnect/internal/node"
)

const (
	appName   = "bankconnect"
	storeFile = "store.yaml"
)

// Store persists managed banks and validators to a YAML file.
// All methods are safe for concurrent use.
type Store struct {
	path string

	mu   sync.RWMutex
	data *Data
}

// GetStoreDir returns the OS-appropriate directory for application data:
//   - Linux: $XDG_CONFIG_HOME/bankconnect or $HOME/.config/bankconnect
//   - macOS: $HOME/.config/bankconnect
//   - Windows: %LOCALAPPDATA%\bankconnect
func GetStoreDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, appName), nil
		}
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
		}
		return filepath.Join(userProfile, "AppData", "Local", appName), nil

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil

	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil
	}
}

// GetStorePath returns the default path of the store file
func GetStorePath() (string, error) {
	dir, err := GetStoreDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, storeFile), nil
}

// Open loads the store at path, or the default location when path is empty.
// A missing file yields an empty store that is created on first Save.
func Open(path string) (*Store, error) {
	if path == "" {
		var err error
		path, err = GetStorePath()
		if err != nil {
			return nil, fmt.Errorf("failed to get store path: %w", err)
		}
	}

	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s.data = NewData()
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	var doc Data
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse store file: %w", err)
	}
	if doc.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported store version: %d (expected %d)", doc.Version, CurrentVersion)
	}
	doc.normalize()

	s.data = &doc
	return s, nil
}

// Path returns the file backing the store
func (s *Store) Path() string {
	return s.path
}

// Save writes the store to disk atomically (temp file + rename)
func (s *Store) Save() error {
	s.mu.RLock()
	out, err := yaml.Marshal(s.data)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	header := []byte("# bankconnect local data\n# Banks and validators you have connected to.\n\n")
	out = append(header, out...)

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, out, 0600); err != nil {
		return fmt.Errorf("failed to write temporary store file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save store file: %w", err)
	}

	return nil
}

// Snapshot holds a copy of the store contents
type Snapshot struct {
	data *Data
}

// Snapshot copies the in-memory contents so a failed change can be undone
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{data: s.data.clone()}
}

// Restore replaces the in-memory contents with snap. The file is not touched.
func (s *Store) Restore(snap Snapshot) {
	if snap.data == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = snap.data.clone()
}

// UpsertBank records a bank from its config, returning its key.
// An empty nickname keeps any nickname already stored.
func (s *Store) UpsertBank(cfg *node.BankConfig, nickname string) string {
	key := node.FormatPathFromNode(cfg)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := upsert(s.data.Banks, key, cfg.NodeAddress(), nickname)
	entry.NodeIdentifier = cfg.NodeIdentifier
	entry.AccountNumber = cfg.AccountNumber
	entry.Version = cfg.Version
	entry.DefaultTransactionFee = cfg.DefaultTransactionFee

	return key
}

// UpsertValidator records a validator from its config, returning its key
func (s *Store) UpsertValidator(cfg *node.ValidatorConfig) string {
	key := node.FormatPathFromNode(cfg)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := upsert(s.data.Validators, key, cfg.NodeAddress(), "")
	entry.NodeIdentifier = cfg.NodeIdentifier
	entry.AccountNumber = cfg.AccountNumber
	entry.Version = cfg.Version
	entry.DefaultTransactionFee = cfg.DefaultTransactionFee

	return key
}

func upsert(m map[string]*ManagedNode, key string, addr node.Address, nickname string) *ManagedNode {
	entry, ok := m[key]
	if !ok {
		entry = &ManagedNode{}
		m[key] = entry
	}
	entry.Address = addr
	if nickname != "" {
		entry.Nickname = nickname
	}
	entry.LastConnected = time.Now()
	return entry
}

// SetActiveBank marks a stored bank as active; an empty key clears it
func (s *Store) SetActiveBank(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key != "" {
		if _, ok := s.data.Banks[key]; !ok {
			return fmt.Errorf("bank %q is not in the store", key)
		}
	}
	s.data.ActiveBank = key
	return nil
}

// ActiveBank returns the active bank's key and entry, or "" and nil
func (s *Store) ActiveBank() (string, *ManagedNode) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data.Banks[s.data.ActiveBank]
	if !ok {
		return "", nil
	}
	copied := *entry
	return s.data.ActiveBank, &copied
}

// Bank returns a copy of a stored bank
func (s *Store) Bank(key string) (*ManagedNode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data.Banks[key]
	if !ok {
		return nil, false
	}
	copied := *entry
	return &copied, true
}

// RemoveBank deletes a bank, clearing it as active if needed
func (s *Store) RemoveBank(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Banks[key]; !ok {
		return false
	}
	delete(s.data.Banks, key)
	if s.data.ActiveBank == key {
		s.data.ActiveBank = ""
	}
	return true
}

// Entry pairs a key with its node for ordered listings
type Entry struct {
	Key  string
	Node ManagedNode
}

// Banks returns all stored banks ordered by key
func (s *Store) Banks() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return entries(s.data.Banks)
}

// Validators returns all stored validators ordered by key
func (s *Store) Validators() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return entries(s.data.Validators)
}

func entries(m map[string]*ManagedNode) []Entry {
	keys := sortedKeys(m)
	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, Entry{Key: k, Node: *m[k]})
	}
	return out
}

// Preferences returns a copy of the stored preferences
func (s *Store) Preferences() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.data.Preferences
}

// SetPreferences replaces the stored preferences
func (s *Store) SetPreferences(p Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Preferences = &p
}

// ConnectTimeoutDuration returns the configured connect timeout (0 means none)
func (p Preferences) ConnectTimeoutDuration() time.Duration {
	return time.Duration(p.ConnectTimeout) * time.Second
}
