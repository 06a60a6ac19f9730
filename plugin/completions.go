package plugin

import "sync"

// Request codes identifying which external flow a suspended call waits on
const (
	PermissionsRequestCode = 19849
	SignInRequestCode      = 1337
)

// completionTable holds at most one suspended call per request code. Only the
// sign-in and permissions codes exist.
type completionTable struct {
	mu          sync.Mutex
	signIn      Call
	permissions Call
}

func (t *completionTable) slot(requestCode int) *Call {
	switch requestCode {
	case SignInRequestCode:
		return &t.signIn
	case PermissionsRequestCode:
		return &t.permissions
	default:
		return nil
	}
}

// save suspends call under requestCode and returns the call it displaced, if any
func (t *completionTable) save(requestCode int, call Call) (displaced Call, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.slot(requestCode)
	if s == nil {
		return nil, false
	}
	displaced, *s = *s, call
	return displaced, true
}

// take removes and returns the call suspended under requestCode
func (t *completionTable) take(requestCode int) Call {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.slot(requestCode)
	if s == nil {
		return nil
	}
	call := *s
	*s = nil
	return call
}
