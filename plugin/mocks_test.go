package plugin

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/roessland/fitbridge/googlefit"
)

// MockAccountService implements AccountService for testing
type MockAccountService struct {
	Account        *googlefit.Account
	Permitted      bool
	SignInCodes    []int
	PermissionReqs []int
}

func (m *MockAccountService) LastSignedInAccount() *googlefit.Account {
	return m.Account
}

func (m *MockAccountService) HasPermissions(acct *googlefit.Account, opts googlefit.FitnessOptions) bool {
	return acct != nil && m.Permitted
}

func (m *MockAccountService) StartSignIn(requestCode int) {
	m.SignInCodes = append(m.SignInCodes, requestCode)
}

func (m *MockAccountService) RequestPermissions(requestCode int, acct *googlefit.Account, opts googlefit.FitnessOptions) {
	m.PermissionReqs = append(m.PermissionReqs, requestCode)
}

// MockHistoryService implements HistoryService for testing
type MockHistoryService struct {
	mu       sync.Mutex
	Response *googlefit.DataReadResponse
	Error    error
	Requests []*googlefit.DataReadRequest
}

func (m *MockHistoryService) ReadData(ctx context.Context, acct *googlefit.Account, req *googlefit.DataReadRequest) (*googlefit.DataReadResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	if m.Error != nil {
		return nil, m.Error
	}
	return m.Response, nil
}

func (m *MockHistoryService) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// MockCall implements Call for testing
type MockCall struct {
	Strings map[string]string
	Ints    map[string]int

	mu       sync.Mutex
	done     chan struct{}
	settled  int
	Resolved JSObject
	Rejected string
}

func NewMockCall(strs map[string]string, ints map[string]int) *MockCall {
	return &MockCall{
		Strings: strs,
		Ints:    ints,
		done:    make(chan struct{}),
	}
}

func (m *MockCall) Context() context.Context {
	return context.Background()
}

func (m *MockCall) GetString(key, defaultValue string) string {
	if v, ok := m.Strings[key]; ok {
		return v
	}
	return defaultValue
}

func (m *MockCall) GetInt(key string, defaultValue int) int {
	if v, ok := m.Ints[key]; ok {
		return v
	}
	return defaultValue
}

func (m *MockCall) Resolve(data JSObject) {
	m.settle(func() { m.Resolved = data })
}

func (m *MockCall) Reject(msg string) {
	m.settle(func() { m.Rejected = msg })
}

func (m *MockCall) settle(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
	m.settled++
	if m.settled == 1 {
		close(m.done)
	}
}

// Settled reports whether the call has been resolved or rejected
func (m *MockCall) Settled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settled > 0
}

// Wait blocks until the call is settled and fails the test on timeout or on
// a second settlement
func (m *MockCall) Wait(t *testing.T) {
	t.Helper()
	select {
	case <-m.done:
	case <-time.After(2 * time.Second):
		t.Fatal("call was never settled")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settled != 1 {
		t.Fatalf("Expected call to be settled once, got %d", m.settled)
	}
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

func (m *MockLogger) WarnCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.WarnCalls)
}
