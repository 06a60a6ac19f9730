package googlefit

// Logger interface abstracts logging for testing
type Logger interface {
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// URLOpener shows an authorization URL to the user
type URLOpener interface {
	OpenURL(url string) error
}

// Result codes delivered with activity results
const (
	ResultOK       = -1
	ResultCanceled = 0
)

// ResultHandler receives the outcome of an external sign-in or permission flow
type ResultHandler func(requestCode, resultCode int)
