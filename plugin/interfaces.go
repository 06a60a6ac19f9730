package plugin

import (
	"context"

	"github.com/roessland/fitbridge/googlefit"
)

// AccountService abstracts the vendor account and permission APIs for testing
type AccountService interface {
	LastSignedInAccount() *googlefit.Account
	HasPermissions(acct *googlefit.Account, opts googlefit.FitnessOptions) bool
	StartSignIn(requestCode int)
	RequestPermissions(requestCode int, acct *googlefit.Account, opts googlefit.FitnessOptions)
}

// HistoryService abstracts the vendor history API for testing
type HistoryService interface {
	ReadData(ctx context.Context, acct *googlefit.Account, req *googlefit.DataReadRequest) (*googlefit.DataReadResponse, error)
}

// Call is a single bridge invocation. It must be settled exactly once, with
// either Resolve or Reject.
type Call interface {
	// Context is cancelled when the host gives up on the call
	Context() context.Context
	GetString(key, defaultValue string) string
	GetInt(key string, defaultValue int) int
	// Resolve settles the call; data may be nil for calls without payload
	Resolve(data JSObject)
	Reject(msg string)
}

// Logger interface abstracts logging for testing
type Logger interface {
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}
