package googlefit

import (
	"fmt"
	"io/fs"
	"sync"
)

// MockFileSystem implements FileSystem for testing
type MockFileSystem struct {
	mu         sync.Mutex
	Files      map[string][]byte
	ReadError  error
	WriteError error
	MkdirError error
	WriteCalls []WriteCall
	MkdirCalls []string
}

type WriteCall struct {
	Path string
	Data []byte
	Perm int
}

func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		Files: make(map[string][]byte),
	}
}

func (m *MockFileSystem) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadError != nil {
		return nil, m.ReadError
	}
	data, ok := m.Files[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, fs.ErrNotExist)
	}
	return data, nil
}

func (m *MockFileSystem) WriteFile(path string, data []byte, perm int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteCalls = append(m.WriteCalls, WriteCall{Path: path, Data: data, Perm: perm})
	if m.WriteError != nil {
		return m.WriteError
	}
	m.Files[path] = data
	return nil
}

func (m *MockFileSystem) MkdirAll(path string, perm int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MkdirCalls = append(m.MkdirCalls, path)
	return m.MkdirError
}

// MockLogger implements Logger for testing
type MockLogger struct {
	mu         sync.Mutex
	InfoCalls  []LogCall
	DebugCalls []LogCall
	WarnCalls  []LogCall
}

type LogCall struct {
	Message string
	Args    []any
}

func (m *MockLogger) Info(msg string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InfoCalls = append(m.InfoCalls, LogCall{Message: msg, Args: args})
}

func (m *MockLogger) Debug(msg string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DebugCalls = append(m.DebugCalls, LogCall{Message: msg, Args: args})
}

func (m *MockLogger) Warn(msg string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WarnCalls = append(m.WarnCalls, LogCall{Message: msg, Args: args})
}

// MockURLOpener implements URLOpener for testing
type MockURLOpener struct {
	OpenFunc func(url string) error
}

func (m *MockURLOpener) OpenURL(url string) error {
	if m.OpenFunc != nil {
		return m.OpenFunc(url)
	}
	return nil
}
