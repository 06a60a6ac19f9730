package bridge

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/roessland/fitbridge/plugin"
)

// invalidInt is returned by GetInt for values that are present but not integral
const invalidInt = -1

// PluginCall is a single invocation of a plugin method. It is settled at most
// once; later Resolve or Reject calls are ignored.
type PluginCall struct {
	ctx     context.Context
	id      string
	method  string
	options map[string]any

	once     sync.Once
	done     chan struct{}
	data     plugin.JSObject
	errMsg   string
	rejected bool
}

// NewPluginCall creates a call for method with the given options. Numbers in
// options may be float64, json.Number or any Go integer type.
func NewPluginCall(ctx context.Context, method string, options map[string]any) *PluginCall {
	if options == nil {
		options = map[string]any{}
	}
	return &PluginCall{
		ctx:     ctx,
		id:      uuid.NewString(),
		method:  method,
		options: options,
		done:    make(chan struct{}),
	}
}

// ID returns the callback id of the call
func (c *PluginCall) ID() string {
	return c.id
}

// Method returns the name of the invoked method
func (c *PluginCall) Method() string {
	return c.method
}

func (c *PluginCall) Context() context.Context {
	return c.ctx
}

// GetString returns the string option key. Absent, null and non-string values
// yield defaultValue.
func (c *PluginCall) GetString(key, defaultValue string) string {
	s, ok := c.options[key].(string)
	if !ok {
		return defaultValue
	}
	return s
}

// GetInt returns the integer option key. Absent and null values yield
// defaultValue; values that are not integral yield -1.
func (c *PluginCall) GetInt(key string, defaultValue int) int {
	v, ok := c.options[key]
	if !ok || v == nil {
		return defaultValue
	}

	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return clampInt(n)
	case json.Number:
		i, err := strconv.ParseInt(string(n), 10, 64)
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return invalidInt
			}
			return intFromFloat(f)
		}
		return clampInt(i)
	case float64:
		return intFromFloat(n)
	default:
		return invalidInt
	}
}

func intFromFloat(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return invalidInt
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return invalidInt
	}
	return int(f)
}

func clampInt(i int64) int {
	if i > math.MaxInt32 || i < math.MinInt32 {
		return invalidInt
	}
	return int(i)
}

func (c *PluginCall) Resolve(data plugin.JSObject) {
	c.once.Do(func() {
		c.data = data
		close(c.done)
	})
}

func (c *PluginCall) Reject(msg string) {
	c.once.Do(func() {
		c.errMsg = msg
		c.rejected = true
		close(c.done)
	})
}

// Done is closed once the call has been settled
func (c *PluginCall) Done() <-chan struct{} {
	return c.done
}

// Outcome is how a call was settled
type Outcome struct {
	Data     plugin.JSObject
	Rejected bool
	Message  string
}

// Wait blocks until the call is settled or ctx ends
func (c *PluginCall) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-c.done:
		return Outcome{Data: c.data, Rejected: c.rejected, Message: c.errMsg}, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}
