package fileutils

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gofrs/flock"
)

type State struct {
	InstalledVersions []string `json:"installedVersions"`
	// PendingVersions were being installed when the state was last written.
	PendingVersions []string `json:"pendingVersions,omitempty"`
	ActiveProfile   string   `json:"activeProfile,omitempty"`
}

func SaveAppState(layout Layout, state State) error {
	file, err := json.MarshalIndent(state, "", " ")
	if err != nil {
		return err
	}
	return AtomicWriteFile(layout.StateFile(), bytes.NewReader(file), 0644)
}

func LoadAppState(layout Layout) (State, error) {
	data, err := os.ReadFile(layout.StateFile())
	if errors.Is(err, os.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return State{}, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, err
	}
	return state, nil
}

// InstalledSet is the set of fully installed version ids. All mutation goes
// through Begin and Add, which also publish the set to the state file.
type InstalledSet struct {
	mu      sync.Mutex
	layout  Layout
	ids     map[string]bool
	pending map[string]bool
}

// LoadInstalled takes the ids recorded in the state file. Versions with a
// client jar on disk count as installed unless the state file lists them as
// pending, so an interrupted install is not picked up by the scan.
func LoadInstalled(layout Layout) (*InstalledSet, error) {
	set := &InstalledSet{layout: layout, ids: map[string]bool{}, pending: map[string]bool{}}

	state, err := LoadAppState(layout)
	if err != nil {
		return nil, err
	}
	for _, id := range state.InstalledVersions {
		set.ids[id] = true
	}
	for _, id := range state.PendingVersions {
		delete(set.ids, id)
		set.pending[id] = true
	}

	entries, err := os.ReadDir(layout.VersionsDir())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	for _, entry := range entries {
		id := entry.Name()
		if entry.IsDir() && !set.pending[id] && Exists(layout.ClientJar(id)) {
			set.ids[id] = true
		}
	}
	return set, nil
}

func (s *InstalledSet) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids[id]
}

func (s *InstalledSet) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.ids)
}

// Begin records that id is being (re)installed. Until Add is called for it
// the id is not installed, in this process or a later one.
func (s *InstalledSet) Begin(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
	s.pending[id] = true
	return s.publishLocked()
}

// Add marks id installed and clears its pending mark.
func (s *InstalledSet) Add(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ids[id] && !s.pending[id] {
		return nil
	}
	s.ids[id] = true
	delete(s.pending, id)
	return s.publishLocked()
}

func (s *InstalledSet) publishLocked() error {
	state, err := LoadAppState(s.layout)
	if err != nil {
		return err
	}
	state.InstalledVersions = sortedKeys(s.ids)
	state.PendingVersions = sortedKeys(s.pending)
	return SaveAppState(s.layout, state)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// LockVersion takes the per-version file lock that serializes installs of
// the same id across goroutines and processes. The returned func releases it.
func LockVersion(layout Layout, id string) (func() error, error) {
	path := layout.LockFile(id)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	fileLock := flock.New(path)
	if err := fileLock.Lock(); err != nil {
		return nil, err
	}
	return fileLock.Unlock, nil
}
