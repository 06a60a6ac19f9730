package googlefit

import (
	"math"
	"testing"
	"time"
)

func TestParseTimeUnit(t *testing.T) {
	tests := []struct {
		input    string
		expected TimeUnit
		known    bool
	}{
		{"NANOSECONDS", Nanoseconds, true},
		{"MICROSECONDS", Microseconds, true},
		{"MILLISECONDS", Milliseconds, true},
		{"SECONDS", Seconds, true},
		{"MINUTES", Minutes, true},
		{"HOURS", Hours, true},
		{"DAYS", Days, true},
		{"days", Hours, false},
		{"WEEKS", Hours, false},
		{"", Hours, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseTimeUnit(tt.input); got != tt.expected {
				t.Errorf("ParseTimeUnit(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
			if _, known := LookupTimeUnit(tt.input); known != tt.known {
				t.Errorf("LookupTimeUnit(%q) known = %v, expected %v", tt.input, known, tt.known)
			}
		})
	}
}

func TestTimeUnitDuration(t *testing.T) {
	if got, ok := Days.Duration(2); !ok || got != 48*time.Hour {
		t.Errorf("Expected 48h, got %v (ok=%v)", got, ok)
	}
	if got, ok := Microseconds.Duration(1500); !ok || got != 1500*time.Microsecond {
		t.Errorf("Expected 1.5ms, got %v (ok=%v)", got, ok)
	}
	if Minutes.String() != "MINUTES" {
		t.Errorf("Expected MINUTES, got %s", Minutes.String())
	}
}

func TestTimeUnitDuration_Overflow(t *testing.T) {
	tests := []struct {
		name string
		unit TimeUnit
		n    int64
	}{
		{"200000 days", Days, 200000},
		{"negative days", Days, -200000},
		{"max hours", Hours, math.MaxInt64},
		{"unknown unit", TimeUnit(42), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if d, ok := tt.unit.Duration(tt.n); ok {
				t.Errorf("Expected overflow, got %v", d)
			}
		})
	}

	if _, ok := Days.Duration(106751); !ok {
		t.Error("Expected 106751 days to fit in a time.Duration")
	}
}

func TestTimeUnitMillis(t *testing.T) {
	tests := []struct {
		unit     TimeUnit
		n        int64
		expected int64
		ok       bool
	}{
		{Nanoseconds, 2_500_000, 2, true},
		{Microseconds, -1500, -1, true},
		{Milliseconds, 10413792000000, 10413792000000, true},
		{Days, 3, 3 * 86400000, true},
		{Milliseconds, math.MaxInt64, math.MaxInt64, true},
		{Seconds, math.MaxInt64, 0, false},
		{Days, math.MinInt64 / 1000, 0, false},
	}
	for _, tt := range tests {
		got, ok := tt.unit.Millis(tt.n)
		if ok != tt.ok || got != tt.expected {
			t.Errorf("%v.Millis(%d) = %d, %v, expected %d, %v", tt.unit, tt.n, got, ok, tt.expected, tt.ok)
		}
	}
}

func TestDataReadRequestBuilder(t *testing.T) {
	req, err := NewDataReadRequest().
		Aggregate(TypeCaloriesExpended).
		Aggregate(AggregateCaloriesExpended).
		SetTimeRange(1000, 5000, Milliseconds).
		BucketByActivitySegment(30, Seconds).
		Build()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(req.AggregateTypes) != 1 {
		t.Errorf("Expected duplicate aggregate types to collapse, got %d", len(req.AggregateTypes))
	}
	if req.StartTimeMillis != 1000 || req.EndTimeMillis != 5000 {
		t.Errorf("Unexpected range %d-%d", req.StartTimeMillis, req.EndTimeMillis)
	}
	if req.Bucketing != BucketByActivitySegment || req.BucketDuration != 30*time.Second {
		t.Errorf("Unexpected bucketing %v %v", req.Bucketing, req.BucketDuration)
	}
	if !req.IsAggregate() {
		t.Error("Expected aggregate request")
	}
}

func TestDataReadRequestBuilder_TimeRangeUnits(t *testing.T) {
	req, err := NewDataReadRequest().
		Read(TypeWeight).
		SetTimeRange(2, 3, Days).
		Build()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if req.StartTimeMillis != 2*86400000 || req.EndTimeMillis != 3*86400000 {
		t.Errorf("Unexpected range %d-%d", req.StartTimeMillis, req.EndTimeMillis)
	}
}

func TestDataReadRequestBuilder_FarFutureRange(t *testing.T) {
	// 2300-01-01T00:00:00Z does not fit in int64 nanoseconds
	const end = 10413792000000
	req, err := NewDataReadRequest().
		Read(TypeWeight).
		SetTimeRange(1709251200000, end, Milliseconds).
		Build()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if req.EndTimeMillis != end {
		t.Errorf("Expected end %d, got %d", end, req.EndTimeMillis)
	}
}

func TestDataReadRequestBuilder_Overflow(t *testing.T) {
	tests := []struct {
		name     string
		builder  *DataReadRequestBuilder
		expected error
	}{
		{
			"time bucket",
			NewDataReadRequest().Aggregate(TypeStepCountDelta).SetTimeRange(0, 1, Milliseconds).BucketByTime(200000, Days),
			ErrBucketOverflow,
		},
		{
			"activity segment",
			NewDataReadRequest().Aggregate(TypeCaloriesExpended).SetTimeRange(0, 1, Milliseconds).BucketByActivitySegment(200000, Days),
			ErrBucketOverflow,
		},
		{
			"range",
			NewDataReadRequest().Read(TypeWeight).SetTimeRange(0, math.MaxInt64, Hours),
			ErrRangeOverflow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := tt.builder.Build()
			if err != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
			if req != nil {
				t.Errorf("Expected no request, got %+v", req)
			}
		})
	}
}

func TestDataReadRequestBuilder_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		builder *DataReadRequestBuilder
	}{
		{"no types", NewDataReadRequest().SetTimeRange(0, 1, Milliseconds)},
		{"mixed", NewDataReadRequest().Aggregate(TypeStepCountDelta).Read(TypeWeight).BucketByTime(1, Hours)},
		{"reversed range", NewDataReadRequest().Read(TypeWeight).SetTimeRange(10, 5, Milliseconds)},
		{"aggregate without buckets", NewDataReadRequest().Aggregate(TypeStepCountDelta).SetTimeRange(0, 1, Milliseconds)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.builder.Build(); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestFitnessOptionsScopes(t *testing.T) {
	opts := NewFitnessOptions().
		AddDataType(TypeStepCountDelta, AccessRead).
		AddDataType(TypeCaloriesExpended, AccessRead).
		AddDataType(TypeWeight, AccessRead).
		AddDataType(TypeHeight, AccessRead).
		Build()

	scopes := opts.Scopes()
	expected := []string{
		"https://www.googleapis.com/auth/fitness.activity.read",
		"https://www.googleapis.com/auth/fitness.body.read",
	}
	if len(scopes) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, scopes)
	}
	for i := range expected {
		if scopes[i] != expected[i] {
			t.Errorf("scope %d: expected %s, got %s", i, expected[i], scopes[i])
		}
	}

	write := NewFitnessOptions().AddDataType(TypeWeight, AccessWrite).Build().Scopes()
	if len(write) != 1 || write[0] != "https://www.googleapis.com/auth/fitness.body.write" {
		t.Errorf("Expected body write scope, got %v", write)
	}
}

func TestDataPointValues(t *testing.T) {
	dp := DataPoint{
		DataType:       TypeStepCountDelta,
		StartTimeNanos: 1_500_000_000,
		EndTimeNanos:   3_000_000_000,
		Values:         []Value{{Format: FormatInt32, IntVal: 42}},
	}

	if got := dp.GetValue(TypeStepCountDelta.Fields[0]).AsInt(); got != 42 {
		t.Errorf("Expected 42, got %d", got)
	}
	if got := dp.StartTime(Milliseconds); got != 1500 {
		t.Errorf("Expected 1500ms, got %d", got)
	}
	if got := dp.EndTime(Seconds); got != 3 {
		t.Errorf("Expected 3s, got %d", got)
	}

	empty := DataPoint{DataType: TypeWeight}
	if v := empty.GetValue(TypeWeight.Fields[0]); !v.Missing() || !math.IsNaN(v.AsFloat()) {
		t.Errorf("Expected missing NaN value, got %v", v.AsFloat())
	}

	noSteps := DataPoint{DataType: TypeStepCountDelta}
	v := noSteps.GetValue(TypeStepCountDelta.Fields[0])
	if !v.Missing() {
		t.Error("Expected missing int value")
	}
	if v.AsInt() != 0 || !math.IsNaN(v.AsFloat()) {
		t.Errorf("Expected 0 and NaN for missing int value, got %d and %v", v.AsInt(), v.AsFloat())
	}
	if dp.GetValue(TypeStepCountDelta.Fields[0]).Missing() {
		t.Error("Expected stored value not to be missing")
	}
}

func TestBucketTimes_FarFuture(t *testing.T) {
	b := Bucket{StartTimeMillis: 10413792000000, EndTimeMillis: 10413795600000}
	if got := b.StartTime(Milliseconds); got != 10413792000000 {
		t.Errorf("Expected 10413792000000, got %d", got)
	}
	if got := b.EndTime(Seconds); got != 10413795600 {
		t.Errorf("Expected 10413795600, got %d", got)
	}
}

func TestActivityName(t *testing.T) {
	tests := []struct {
		code     int64
		expected string
	}{
		{7, "walking"},
		{8, "running"},
		{1, "biking"},
		{123456, ActivityUnknown},
	}
	for _, tt := range tests {
		if got := ActivityName(tt.code); got != tt.expected {
			t.Errorf("ActivityName(%d) = %q, expected %q", tt.code, got, tt.expected)
		}
	}
}
