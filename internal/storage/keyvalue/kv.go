// Package keyvalue is a single-file persistence backend. Whole record
// collections are stored as JSON documents under string keys, which
// keeps the on-disk format inspectable and the backend dependency-free
// for local and teaching setups.
package keyvalue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// KV is a minimal key-value surface. Get reports absence via the bool
// instead of an error: a missing key is an empty collection, not a
// failure.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

// MemoryKV is an in-process KV, mainly for tests.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV creates an empty in-process KV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

var _ KV = (*MemoryKV)(nil)

func (m *MemoryKV) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, true, nil
}

func (m *MemoryKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = cp
	return nil
}

func (m *MemoryKV) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// FileKV persists all keys in one JSON file. Every Set rewrites the
// file through a temp-file rename so a crash never leaves a torn file.
type FileKV struct {
	mu   sync.Mutex
	path string
	data map[string]json.RawMessage
}

// NewFileKV opens (or creates) the KV file at path.
func NewFileKV(path string) (*FileKV, error) {
	kv := &FileKV{
		path: path,
		data: make(map[string]json.RawMessage),
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return kv, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read kv file: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &kv.data); err != nil {
			return nil, fmt.Errorf("parse kv file %s: %w", path, err)
		}
	}
	return kv, nil
}

var _ KV = (*FileKV)(nil)

func (f *FileKV) Get(key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.data[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, true, nil
}

func (f *FileKV) Set(key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !json.Valid(value) {
		return fmt.Errorf("value for key %q is not valid JSON", key)
	}
	cp := make(json.RawMessage, len(value))
	copy(cp, value)
	f.data[key] = cp
	return f.flushLocked()
}

func (f *FileKV) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.data[key]; !ok {
		return nil
	}
	delete(f.data, key)
	return f.flushLocked()
}

func (f *FileKV) flushLocked() error {
	raw, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode kv file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".kv-*")
	if err != nil {
		return fmt.Errorf("create temp kv file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write kv file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close kv file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace kv file: %w", err)
	}
	return nil
}
