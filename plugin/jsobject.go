package plugin

import (
	"errors"
	"math"
)

var (
	ErrNullKey   = errors.New("null key")
	ErrNonFinite = errors.New("JSON does not allow non-finite numbers")
)

// JSObject is a result payload handed back across the bridge
type JSObject map[string]any

// Put stores value under key. Values that cannot be represented in JSON are
// refused, leaving the object unchanged.
func (o JSObject) Put(key string, value any) error {
	if key == "" {
		return ErrNullKey
	}
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNonFinite
		}
	case float32:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return ErrNonFinite
		}
	}
	o[key] = value
	return nil
}
