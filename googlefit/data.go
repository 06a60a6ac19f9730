package googlefit

import (
	"math"
	"time"
)

// Field formats as used by the Fit data type registry
const (
	FormatInt32 = 1
	FormatFloat = 2
)

// Field is a named value slot of a data type
type Field struct {
	Name   string
	Format int
}

// DataType describes a Fit data type and the fields each of its points carries
type DataType struct {
	Name   string
	Fields []Field
}

var (
	TypeStepCountDelta   = DataType{Name: "com.google.step_count.delta", Fields: []Field{{Name: "steps", Format: FormatInt32}}}
	TypeCaloriesExpended = DataType{Name: "com.google.calories.expended", Fields: []Field{{Name: "calories", Format: FormatFloat}}}
	TypeActivitySegment  = DataType{Name: "com.google.activity.segment", Fields: []Field{{Name: "activity", Format: FormatInt32}}}
	TypeWeight           = DataType{Name: "com.google.weight", Fields: []Field{{Name: "weight", Format: FormatFloat}}}
	TypeHeight           = DataType{Name: "com.google.height", Fields: []Field{{Name: "height", Format: FormatFloat}}}

	// Aggregate types share their names with the raw types on the REST API.
	AggregateStepCountDelta   = DataType{Name: "com.google.step_count.delta", Fields: []Field{{Name: "steps", Format: FormatInt32}}}
	AggregateCaloriesExpended = DataType{Name: "com.google.calories.expended", Fields: []Field{{Name: "calories", Format: FormatFloat}}}
)

var knownDataTypes = map[string]DataType{
	TypeStepCountDelta.Name:   TypeStepCountDelta,
	TypeCaloriesExpended.Name: TypeCaloriesExpended,
	TypeActivitySegment.Name:  TypeActivitySegment,
	TypeWeight.Name:           TypeWeight,
	TypeHeight.Name:           TypeHeight,
	// Summary types returned by dataset:aggregate for activity segments.
	"com.google.activity.summary": {Name: "com.google.activity.summary", Fields: []Field{
		{Name: "activity", Format: FormatInt32},
		{Name: "duration", Format: FormatInt32},
		{Name: "num_segments", Format: FormatInt32},
	}},
	"com.google.weight.summary": {Name: "com.google.weight.summary", Fields: []Field{
		{Name: "average", Format: FormatFloat},
		{Name: "max", Format: FormatFloat},
		{Name: "min", Format: FormatFloat},
	}},
}

// LookupDataType returns the registered type for name. Unknown names yield a
// type without fields, so their points contribute no values.
func LookupDataType(name string) DataType {
	if dt, ok := knownDataTypes[name]; ok {
		return dt
	}
	return DataType{Name: name}
}

// Value is a single field value of a data point
type Value struct {
	Format int
	IntVal int64
	FpVal  float64

	missing bool
}

// Missing reports whether the point carried no value for the field
func (v Value) Missing() bool {
	return v.missing
}

// AsInt returns the value as an int, truncating float values. Missing values
// are 0; check Missing first when that matters.
func (v Value) AsInt() int {
	if v.missing {
		return 0
	}
	if v.Format == FormatFloat {
		return int(v.FpVal)
	}
	return int(v.IntVal)
}

// AsFloat returns the value as a float64. Missing values are NaN.
func (v Value) AsFloat() float64 {
	if v.missing {
		return math.NaN()
	}
	if v.Format == FormatInt32 {
		return float64(v.IntVal)
	}
	return v.FpVal
}

// DataPoint is one timestamped measurement
type DataPoint struct {
	DataType       DataType
	StartTimeNanos int64
	EndTimeNanos   int64
	Values         []Value
}

// StartTime returns the point start in the given unit
func (dp DataPoint) StartTime(unit TimeUnit) int64 {
	return convertNanos(dp.StartTimeNanos, unit)
}

// EndTime returns the point end in the given unit
func (dp DataPoint) EndTime(unit TimeUnit) int64 {
	return convertNanos(dp.EndTimeNanos, unit)
}

// GetValue returns the value stored for field. Fields are positional, so a
// point with fewer values than its type declares yields a missing value.
func (dp DataPoint) GetValue(field Field) Value {
	for i, f := range dp.DataType.Fields {
		if f.Name != field.Name {
			continue
		}
		if i < len(dp.Values) {
			return dp.Values[i]
		}
		break
	}
	return Value{Format: field.Format, FpVal: math.NaN(), missing: true}
}

// DataSet is the list of points of one data type
type DataSet struct {
	DataType   DataType
	DataPoints []DataPoint
}

// Bucket groups datasets over a time window or an activity segment
type Bucket struct {
	StartTimeMillis int64
	EndTimeMillis   int64
	Activity        string
	DataSets        []DataSet
}

// StartTime returns the bucket start in the given unit
func (b Bucket) StartTime(unit TimeUnit) int64 {
	return convertMillis(b.StartTimeMillis, unit)
}

// EndTime returns the bucket end in the given unit
func (b Bucket) EndTime(unit TimeUnit) int64 {
	return convertMillis(b.EndTimeMillis, unit)
}

// DataReadResponse holds the result of a read. Aggregated reads fill Buckets,
// raw reads fill DataSets.
type DataReadResponse struct {
	Buckets  []Bucket
	DataSets []DataSet
}

// DataSet returns the raw dataset for dt, or an empty dataset if none was read
func (r *DataReadResponse) DataSet(dt DataType) DataSet {
	for _, ds := range r.DataSets {
		if ds.DataType.Name == dt.Name {
			return ds
		}
	}
	return DataSet{DataType: dt}
}

// convertMillis converts without passing through nanoseconds, which would
// overflow for timestamps after 2262
func convertMillis(ms int64, unit TimeUnit) int64 {
	d := timeUnitDurations[unit]
	if d <= 0 {
		return ms
	}
	if d < time.Millisecond {
		return ms * int64(time.Millisecond/d)
	}
	return ms / int64(d/time.Millisecond)
}

func convertNanos(nanos int64, unit TimeUnit) int64 {
	d := timeUnitDurations[unit]
	if d <= 0 {
		return nanos
	}
	return nanos / int64(d)
}
