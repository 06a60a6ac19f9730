package bridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roessland/fitbridge/plugin"
)

func TestPluginCallGetString(t *testing.T) {
	call := NewPluginCall(context.Background(), "getSteps", map[string]any{
		"timeUnit": "MINUTES",
		"nullish":  nil,
		"number":   json.Number("5"),
	})

	require.Equal(t, "MINUTES", call.GetString("timeUnit", "HOURS"))
	require.Equal(t, "HOURS", call.GetString("missing", "HOURS"))
	require.Equal(t, "HOURS", call.GetString("nullish", "HOURS"))
	require.Equal(t, "HOURS", call.GetString("number", "HOURS"))
}

func TestPluginCallGetInt(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		present  bool
		expected int
	}{
		{"absent", nil, false, 1},
		{"null", nil, true, 1},
		{"json integer", json.Number("15"), true, 15},
		{"json integral float", json.Number("15.0"), true, 15},
		{"json fraction", json.Number("1.5"), true, -1},
		{"float64 integral", float64(3), true, 3},
		{"float64 fraction", 2.5, true, -1},
		{"int", 7, true, 7},
		{"int64 overflow", int64(1) << 40, true, -1},
		{"string", "15", true, -1},
		{"bool", true, true, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options := map[string]any{}
			if tt.present {
				options["bucketSize"] = tt.value
			}
			call := NewPluginCall(context.Background(), "getSteps", options)
			require.Equal(t, tt.expected, call.GetInt("bucketSize", 1))
		})
	}
}

func TestPluginCallSettlesOnce(t *testing.T) {
	call := NewPluginCall(context.Background(), "isAllowed", nil)
	require.NotEmpty(t, call.ID())

	call.Resolve(plugin.JSObject{"allowed": true})
	call.Reject("too late")

	outcome, err := call.Wait(context.Background())
	require.NoError(t, err)
	require.False(t, outcome.Rejected)
	require.Equal(t, true, outcome.Data["allowed"])
}

func TestPluginCallWaitHonorsContext(t *testing.T) {
	call := NewPluginCall(context.Background(), "connectToGoogleFit", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := call.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	select {
	case <-call.Done():
		t.Fatal("call should still be pending")
	default:
	}
}
