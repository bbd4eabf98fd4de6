// Package state persists browser session state between runs.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"
)

const (
	CurrentVersion = 1

	defaultDebounce = 1 * time.Second
)

type TUIState struct {
	Version     int         `json:"version"`
	LastView    string      `json:"last_view,omitempty"` // view key active at exit; "" is the list
	LastBook    int64       `json:"last_book,omitempty"` // book under the cursor at exit
	Preferences Preferences `json:"preferences,omitempty"`
}

type Preferences struct {
	SortField     string `json:"sort_field,omitempty"`
	SortAscending *bool  `json:"sort_ascending,omitempty"`
	ShowHelp      bool   `json:"show_help,omitempty"`
}

type Manager struct {
	path     string
	lockPath string

	mu        sync.Mutex
	state     TUIState
	dirty     bool
	timer     *time.Timer
	debounce  time.Duration
	lastWrite time.Time
}

// New returns a manager for path. An empty path keeps state in memory only.
func New(path string) *Manager {
	path = strings.TrimSpace(path)
	lockPath := ""
	if path != "" {
		lockPath = path + ".lock"
	}
	return &Manager{
		path:     path,
		lockPath: lockPath,
		state:    TUIState{Version: CurrentVersion},
		debounce: defaultDebounce,
	}
}

func (m *Manager) Path() string { return m.path }

func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.path == "" {
		return nil
	}

	loaded, err := m.loadLocked()
	if err != nil {
		return err
	}
	m.state = loaded
	m.dirty = false
	return nil
}

func (m *Manager) Snapshot() TUIState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneState(m.state)
}

func (m *Manager) LastView() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.LastView
}

func (m *Manager) SetLastView(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key = strings.TrimSpace(key)
	if m.state.LastView == key {
		return
	}
	m.state.LastView = key
	m.markDirtyLocked()
}

func (m *Manager) LastBook() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.LastBook
}

func (m *Manager) SetLastBook(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id < 0 || m.state.LastBook == id {
		return
	}
	m.state.LastBook = id
	m.markDirtyLocked()
}

// Sort returns the remembered ordering. ok is false when none was saved.
func (m *Manager) Sort() (field string, ascending bool, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefs := m.state.Preferences
	if prefs.SortField == "" || prefs.SortAscending == nil {
		return "", false, false
	}
	return prefs.SortField, *prefs.SortAscending, true
}

func (m *Manager) SetSort(field string, ascending bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	field = strings.TrimSpace(field)
	if field == "" {
		return
	}
	prefs := &m.state.Preferences
	if prefs.SortField == field && prefs.SortAscending != nil && *prefs.SortAscending == ascending {
		return
	}
	prefs.SortField = field
	prefs.SortAscending = &ascending
	m.markDirtyLocked()
}

func (m *Manager) ShowHelp() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Preferences.ShowHelp
}

func (m *Manager) SetShowHelp(show bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Preferences.ShowHelp == show {
		return
	}
	m.state.Preferences.ShowHelp = show
	m.markDirtyLocked()
}

func (m *Manager) Close() error {
	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	needsSave := m.dirty
	m.mu.Unlock()
	if !needsSave {
		return nil
	}
	return m.SaveNow()
}

func (m *Manager) SaveNow() error {
	m.mu.Lock()
	if m.path == "" {
		m.dirty = false
		m.mu.Unlock()
		return nil
	}
	state := cloneState(m.state)
	m.dirty = false
	m.mu.Unlock()

	state.Version = CurrentVersion

	if err := withFileLock(m.lockPath, func() error {
		return writeAtomicJSON(m.path, state)
	}); err != nil {
		m.mu.Lock()
		m.dirty = true
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.lastWrite = time.Now().UTC()
	m.mu.Unlock()
	return nil
}

func (m *Manager) markDirtyLocked() {
	m.dirty = true
	if m.path == "" {
		return
	}
	if m.timer == nil {
		m.timer = time.AfterFunc(m.debounce, func() {
			_ = m.SaveNow()
		})
		return
	}
	_ = m.timer.Reset(m.debounce)
}

func (m *Manager) loadLocked() (TUIState, error) {
	var out TUIState
	if err := withFileLock(m.lockPath, func() error {
		payload, err := os.ReadFile(m.path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				out = TUIState{Version: CurrentVersion}
				return nil
			}
			return err
		}
		if len(payload) == 0 {
			out = TUIState{Version: CurrentVersion}
			return nil
		}
		return json.Unmarshal(payload, &out)
	}); err != nil {
		return TUIState{}, err
	}

	if out.Version <= 0 {
		out.Version = CurrentVersion
	}
	if out.Version > CurrentVersion {
		return TUIState{}, fmt.Errorf("state file version %d is newer than supported %d", out.Version, CurrentVersion)
	}
	return out, nil
}

func withFileLock(lockPath string, fn func() error) error {
	if strings.TrimSpace(lockPath) == "" {
		return fn()
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("lock %s: %w", lockPath, err)
	}
	defer func() {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}()
	return fn()
}

func writeAtomicJSON(path string, state TUIState) error {
	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func cloneState(state TUIState) TUIState {
	out := state
	if state.Preferences.SortAscending != nil {
		asc := *state.Preferences.SortAscending
		out.Preferences.SortAscending = &asc
	}
	return out
}
