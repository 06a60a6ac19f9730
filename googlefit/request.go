package googlefit

import (
	"errors"
	"time"
)

// BucketStrategy selects how an aggregated read is grouped
type BucketStrategy int

const (
	BucketNone BucketStrategy = iota
	BucketByTime
	BucketByActivitySegment
)

// DataReadRequest describes a history read over a time range
type DataReadRequest struct {
	AggregateTypes  []DataType
	ReadTypes       []DataType
	StartTimeMillis int64
	EndTimeMillis   int64
	Bucketing       BucketStrategy
	// BucketDuration is the bucket width for BucketByTime and the minimum
	// segment duration for BucketByActivitySegment.
	BucketDuration time.Duration
}

// IsAggregate reports whether the request asks for bucketed aggregates
func (r *DataReadRequest) IsAggregate() bool {
	return len(r.AggregateTypes) > 0
}

// DataReadRequestBuilder assembles a DataReadRequest
type DataReadRequestBuilder struct {
	req DataReadRequest
	err error
}

var (
	// ErrRangeOverflow is returned by Build when the time range does not fit
	// in int64 milliseconds
	ErrRangeOverflow = errors.New("read request time range is out of range")
	// ErrBucketOverflow is returned by Build when the bucket width does not
	// fit in a time.Duration
	ErrBucketOverflow = errors.New("read request bucket duration is out of range")
)

// NewDataReadRequest starts a new request builder
func NewDataReadRequest() *DataReadRequestBuilder {
	return &DataReadRequestBuilder{}
}

// Aggregate adds a data type to aggregate. Types already added are ignored.
func (b *DataReadRequestBuilder) Aggregate(dt DataType) *DataReadRequestBuilder {
	for _, existing := range b.req.AggregateTypes {
		if existing.Name == dt.Name {
			return b
		}
	}
	b.req.AggregateTypes = append(b.req.AggregateTypes, dt)
	return b
}

// Read adds a data type to read raw
func (b *DataReadRequestBuilder) Read(dt DataType) *DataReadRequestBuilder {
	b.req.ReadTypes = append(b.req.ReadTypes, dt)
	return b
}

// SetTimeRange sets the range, expressed in unit
func (b *DataReadRequestBuilder) SetTimeRange(start, end int64, unit TimeUnit) *DataReadRequestBuilder {
	startMillis, okStart := unit.Millis(start)
	endMillis, okEnd := unit.Millis(end)
	if !okStart || !okEnd {
		b.fail(ErrRangeOverflow)
	}
	b.req.StartTimeMillis = startMillis
	b.req.EndTimeMillis = endMillis
	return b
}

// BucketByTime groups aggregates into fixed windows of n units
func (b *DataReadRequestBuilder) BucketByTime(n int, unit TimeUnit) *DataReadRequestBuilder {
	b.req.Bucketing = BucketByTime
	b.setBucketDuration(n, unit)
	return b
}

// BucketByActivitySegment groups aggregates by activity segments lasting at
// least n units
func (b *DataReadRequestBuilder) BucketByActivitySegment(n int, unit TimeUnit) *DataReadRequestBuilder {
	b.req.Bucketing = BucketByActivitySegment
	b.setBucketDuration(n, unit)
	return b
}

func (b *DataReadRequestBuilder) setBucketDuration(n int, unit TimeUnit) {
	d, ok := unit.Duration(int64(n))
	if !ok {
		b.fail(ErrBucketOverflow)
	}
	b.req.BucketDuration = d
}

// fail keeps the first error seen
func (b *DataReadRequestBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build validates and returns the request
func (b *DataReadRequestBuilder) Build() (*DataReadRequest, error) {
	if b.err != nil {
		return nil, b.err
	}
	req := b.req
	if len(req.AggregateTypes) == 0 && len(req.ReadTypes) == 0 {
		return nil, errors.New("read request must aggregate or read at least one data type")
	}
	if len(req.AggregateTypes) > 0 && len(req.ReadTypes) > 0 {
		return nil, errors.New("read request cannot mix aggregated and raw reads")
	}
	if req.EndTimeMillis < req.StartTimeMillis {
		return nil, errors.New("read request end time is before start time")
	}
	if len(req.AggregateTypes) > 0 && req.Bucketing == BucketNone {
		return nil, errors.New("aggregated read request needs a bucketing strategy")
	}
	return &req, nil
}
