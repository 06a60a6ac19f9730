package plugin

import (
	"math"

	"github.com/roessland/fitbridge/googlefit"
)

// bucketDescriptor is the bucket width requested by a call
type bucketDescriptor struct {
	size int
	unit googlefit.TimeUnit
}

// valid reports whether the bucket is positive and fits in a time.Duration
func (b bucketDescriptor) valid() bool {
	if b.size <= 0 {
		return false
	}
	_, ok := b.unit.Duration(int64(b.size))
	return ok
}

// GetSteps reads step counts bucketed by time
func (p *GoogleFitPlugin) GetSteps(call Call) {
	account := p.accounts.LastSignedInAccount()
	if account == nil {
		call.Reject(MsgNoAccess)
		return
	}

	start, end, ok := p.timeRange(call)
	bucket := p.readBucket(call)
	if !ok || !bucket.valid() {
		call.Reject(MsgInvalidRange)
		return
	}

	req, err := googlefit.NewDataReadRequest().
		Aggregate(googlefit.TypeStepCountDelta).
		SetTimeRange(start, end, googlefit.Milliseconds).
		BucketByTime(bucket.size, bucket.unit).
		Build()
	if err != nil {
		call.Reject(err.Error())
		return
	}

	p.read(call, "getSteps", account, req, p.flattenSteps)
}

// GetWeight reads raw weight measurements
func (p *GoogleFitPlugin) GetWeight(call Call) {
	account := p.accounts.LastSignedInAccount()
	if account == nil {
		call.Reject(MsgNoAccess)
		return
	}

	start, end, ok := p.timeRange(call)
	if !ok {
		call.Reject(MsgInvalidRange)
		return
	}

	req, err := googlefit.NewDataReadRequest().
		Read(googlefit.TypeWeight).
		SetTimeRange(start, end, googlefit.Milliseconds).
		Build()
	if err != nil {
		call.Reject(err.Error())
		return
	}

	p.read(call, "getWeight", account, req, p.flattenWeights)
}

// GetActivities reads calories expended bucketed by activity segment
func (p *GoogleFitPlugin) GetActivities(call Call) {
	account := p.accounts.LastSignedInAccount()
	if account == nil {
		call.Reject(MsgNoAccess)
		return
	}

	start, end, ok := p.timeRange(call)
	bucket := p.readBucket(call)
	if !ok || !bucket.valid() {
		call.Reject(MsgInvalidRange)
		return
	}

	req, err := googlefit.NewDataReadRequest().
		Aggregate(googlefit.TypeCaloriesExpended).
		Aggregate(googlefit.AggregateCaloriesExpended).
		SetTimeRange(start, end, googlefit.Milliseconds).
		BucketByActivitySegment(bucket.size, bucket.unit).
		Build()
	if err != nil {
		call.Reject(err.Error())
		return
	}

	p.read(call, "getActivities", account, req, p.flattenActivities)
}

// read issues req in the background and settles call with the flattened result
func (p *GoogleFitPlugin) read(call Call, method string, account *googlefit.Account, req *googlefit.DataReadRequest, flatten func(*googlefit.DataReadResponse) (JSObject, error)) {
	go func() {
		resp, err := p.history.ReadData(call.Context(), account, req)
		if err != nil {
			p.logger.Warn("history read failed", "method", method, "error", err)
			call.Reject(err.Error())
			return
		}

		result, err := flatten(resp)
		if err != nil {
			p.logger.Warn("failed to assemble result", "method", method, "error", err)
			call.Reject(err.Error())
			return
		}
		call.Resolve(result)
	}()
}

func (p *GoogleFitPlugin) timeRange(call Call) (start, end int64, ok bool) {
	start = DateToTimestamp(call.GetString("startTime", ""))
	end = DateToTimestamp(call.GetString("endTime", ""))
	return start, end, start != InvalidTimestamp && end != InvalidTimestamp
}

func (p *GoogleFitPlugin) readBucket(call Call) bucketDescriptor {
	name := call.GetString("timeUnit", "HOURS")
	unit, known := googlefit.LookupTimeUnit(name)
	if !known {
		p.logger.Warn("unrecognized time unit, using HOURS", "time_unit", name)
	}
	return bucketDescriptor{
		size: call.GetInt("bucketSize", 1),
		unit: unit,
	}
}

func (p *GoogleFitPlugin) flattenSteps(resp *googlefit.DataReadResponse) (JSObject, error) {
	steps := []JSObject{}
	for _, bucket := range resp.Buckets {
		for _, ds := range bucket.DataSets {
			for _, dp := range ds.DataPoints {
				for _, field := range dp.DataType.Fields {
					entry, err := p.entry(dp, intValue(dp.GetValue(field)))
					if err != nil {
						return nil, err
					}
					steps = append(steps, entry)
				}
			}
		}
	}
	return wrap("steps", steps)
}

func (p *GoogleFitPlugin) flattenWeights(resp *googlefit.DataReadResponse) (JSObject, error) {
	weights := []JSObject{}
	for _, dp := range resp.DataSet(googlefit.TypeWeight).DataPoints {
		for _, field := range dp.DataType.Fields {
			entry, err := p.entry(dp, dp.GetValue(field).AsFloat())
			if err != nil {
				return nil, err
			}
			weights = append(weights, entry)
		}
	}
	return wrap("weights", weights)
}

func (p *GoogleFitPlugin) flattenActivities(resp *googlefit.DataReadResponse) (JSObject, error) {
	activities := []JSObject{}
	for _, bucket := range resp.Buckets {
		activity := JSObject{}
		if err := activity.Put("startTime", TimestampToDate(bucket.StartTime(googlefit.Milliseconds), p.loc)); err != nil {
			return nil, err
		}
		if err := activity.Put("endTime", TimestampToDate(bucket.EndTime(googlefit.Milliseconds), p.loc)); err != nil {
			return nil, err
		}

		for _, ds := range bucket.DataSets {
			for _, dp := range ds.DataPoints {
				if dp.DataType.Name != googlefit.TypeCaloriesExpended.Name {
					continue
				}
				for _, field := range dp.DataType.Fields {
					if err := activity.Put("calories", dp.GetValue(field).AsFloat()); err != nil {
						return nil, err
					}
				}
			}
		}

		if err := activity.Put("name", bucket.Activity); err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}
	return wrap("activities", activities)
}

// intValue returns v as an int, or NaN when the point had no value for the
// field so the record is refused like a missing float
func intValue(v googlefit.Value) any {
	if v.Missing() {
		return math.NaN()
	}
	return v.AsInt()
}

// entry builds a {startTime, endTime, value} record for a data point
func (p *GoogleFitPlugin) entry(dp googlefit.DataPoint, value any) (JSObject, error) {
	entry := JSObject{}
	if err := entry.Put("startTime", TimestampToDate(dp.StartTime(googlefit.Milliseconds), p.loc)); err != nil {
		return nil, err
	}
	if err := entry.Put("endTime", TimestampToDate(dp.EndTime(googlefit.Milliseconds), p.loc)); err != nil {
		return nil, err
	}
	if err := entry.Put("value", value); err != nil {
		return nil, err
	}
	return entry, nil
}

func wrap(key string, records []JSObject) (JSObject, error) {
	result := JSObject{}
	if err := result.Put(key, records); err != nil {
		return nil, err
	}
	return result, nil
}
