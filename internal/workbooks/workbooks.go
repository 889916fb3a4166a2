// Package workbooks manages open workbook handles: opening, TTL-based
// eviction, per-handle read/write locking, and the active-sheet selection
// the charting and reshape tools operate on.
package workbooks

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/peelpotato/fastbi/config"
)

// ErrHandleNotFound indicates an unknown or expired handle ID.
var ErrHandleNotFound = errors.New("workbooks: handle not found")

// Handle is one open workbook plus the metadata eviction and tool dispatch
// need. ActiveSheet is the sheet tools read from and chart onto until the
// caller selects another.
type Handle struct {
	ID          string
	Path        string
	File        *excelize.File
	ActiveSheet string
	LoadedAt    time.Time
	ExpiresAt   time.Time
	mu          sync.RWMutex
}

// Gate coordinates capacity for open workbook handles.
type Gate interface {
	AcquireWorkbook(ctx context.Context) error
	ReleaseWorkbook()
}

// PathValidator canonicalizes and allow-lists a path before it is opened.
type PathValidator interface {
	ValidateOpenPath(path string) (string, error)
}

// Manager owns the handle cache. Idle handles are evicted after ttl; every
// access refreshes the clock.
type Manager struct {
	mu           sync.RWMutex
	handles      map[string]*Handle
	ttl          time.Duration
	cleanupEvery time.Duration
	clock        func() time.Time
	gate         Gate
	validator    PathValidator
	stopCh       chan struct{}
	cleanupWG    sync.WaitGroup
}

// NewManager constructs a handle manager. Non-positive durations fall back
// to the config defaults; gate and clock may be nil.
func NewManager(ttl, cleanupEvery time.Duration, gate Gate, clock func() time.Time) *Manager {
	if ttl <= 0 {
		ttl = config.DefaultWorkbookIdleTTL
	}
	if cleanupEvery <= 0 {
		cleanupEvery = config.DefaultWorkbookCleanupPeriod
	}
	if clock == nil {
		clock = time.Now
	}
	return &Manager{
		handles:      make(map[string]*Handle),
		ttl:          ttl,
		cleanupEvery: cleanupEvery,
		clock:        clock,
		gate:         gate,
		stopCh:       make(chan struct{}),
	}
}

// SetValidator installs the security path validator used by Open.
func (m *Manager) SetValidator(v PathValidator) { m.validator = v }

// Start launches periodic eviction of expired handles.
func (m *Manager) Start() {
	m.cleanupWG.Add(1)
	ticker := time.NewTicker(m.cleanupEvery)
	go func() {
		defer m.cleanupWG.Done()
		defer ticker.Stop()
		for {
			select {
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.EvictExpired()
			}
		}
	}()
}

// Close stops background cleanup and closes every remaining handle.
func (m *Manager) Close(ctx context.Context) error {
	close(m.stopCh)
	done := make(chan struct{})
	go func() { m.cleanupWG.Wait(); close(done) }()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, h := range m.handles {
		h.mu.Lock()
		_ = h.File.Close()
		h.mu.Unlock()
		delete(m.handles, id)
		if m.gate != nil {
			m.gate.ReleaseWorkbook()
		}
	}
	return nil
}

// Open opens a workbook, registers a handle with the workbook's own active
// sheet selected, and returns the handle ID.
func (m *Manager) Open(ctx context.Context, path string) (string, error) {
	if err := m.acquire(ctx); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
	default:
		m.release()
		return "", fmt.Errorf("workbooks: unsupported format: %s", ext)
	}

	if m.validator != nil {
		canonical, err := m.validator.ValidateOpenPath(path)
		if err != nil {
			m.release()
			return "", err
		}
		path = canonical
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		m.release()
		return "", err
	}
	return m.register(f, path)
}

// Adopt registers an already-open excelize file as a managed handle.
func (m *Manager) Adopt(ctx context.Context, f *excelize.File) (string, error) {
	if f == nil {
		return "", fmt.Errorf("workbooks: nil file")
	}
	if err := m.acquire(ctx); err != nil {
		return "", err
	}
	return m.register(f, f.Path)
}

func (m *Manager) register(f *excelize.File, path string) (string, error) {
	active := f.GetSheetName(f.GetActiveSheetIndex())
	if active == "" {
		active = f.GetSheetName(0)
	}
	now := m.clock()
	h := &Handle{
		ID:          uuid.NewString(),
		Path:        path,
		File:        f,
		ActiveSheet: active,
		LoadedAt:    now,
		ExpiresAt:   now.Add(m.ttl),
	}
	m.mu.Lock()
	m.handles[h.ID] = h
	m.mu.Unlock()
	return h.ID, nil
}

// Get returns the handle when present and refreshes its idle TTL.
func (m *Manager) Get(id string) (*Handle, bool) {
	m.mu.RLock()
	h, ok := m.handles[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	now := m.clock()
	h.mu.Lock()
	h.ExpiresAt = now.Add(m.ttl)
	h.mu.Unlock()
	return h, true
}

// SetActiveSheet switches the sheet subsequent tool calls operate on. The
// sheet must exist in the workbook.
func (m *Manager) SetActiveSheet(id, sheet string) error {
	h, ok := m.Get(id)
	if !ok {
		return ErrHandleNotFound
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	idx, err := h.File.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return fmt.Errorf("workbooks: no sheet %q in %s", sheet, h.Path)
	}
	h.File.SetActiveSheet(idx)
	h.ActiveSheet = sheet
	return nil
}

// WithRead runs fn under the handle's shared lock, passing the file and the
// active sheet name.
func (m *Manager) WithRead(id string, fn func(f *excelize.File, sheet string) error) error {
	h, ok := m.Get(id)
	if !ok {
		return ErrHandleNotFound
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return fn(h.File, h.ActiveSheet)
}

// WithWrite runs fn under the handle's exclusive lock.
func (m *Manager) WithWrite(id string, fn func(f *excelize.File, sheet string) error) error {
	h, ok := m.Get(id)
	if !ok {
		return ErrHandleNotFound
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return fn(h.File, h.ActiveSheet)
}

// CloseHandle closes and removes a handle, releasing gate capacity.
func (m *Manager) CloseHandle(ctx context.Context, id string) error {
	m.mu.Lock()
	h, ok := m.handles[id]
	if ok {
		delete(m.handles, id)
	}
	m.mu.Unlock()
	if !ok {
		return ErrHandleNotFound
	}
	h.mu.Lock()
	err := h.File.Close()
	h.mu.Unlock()
	m.release()
	return err
}

// EvictExpired closes handles whose idle TTL has lapsed.
func (m *Manager) EvictExpired() {
	now := m.clock()
	var expired []*Handle
	var expiredIDs []string

	m.mu.RLock()
	for id, h := range m.handles {
		if h.Expired(now) {
			expired = append(expired, h)
			expiredIDs = append(expiredIDs, id)
		}
	}
	m.mu.RUnlock()

	for i, h := range expired {
		h.mu.Lock()
		_ = h.File.Close()
		h.mu.Unlock()

		m.mu.Lock()
		delete(m.handles, expiredIDs[i])
		m.mu.Unlock()
		m.release()
	}
}

// Count returns the number of cached handles.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handles)
}

func (m *Manager) acquire(ctx context.Context) error {
	if m.gate == nil {
		return nil
	}
	return m.gate.AcquireWorkbook(ctx)
}

func (m *Manager) release() {
	if m.gate != nil {
		m.gate.ReleaseWorkbook()
	}
}

// Expired reports whether the handle has reached its TTL.
func (h *Handle) Expired(now time.Time) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return now.After(h.ExpiresAt)
}
