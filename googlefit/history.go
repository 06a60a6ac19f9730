package googlefit

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/fitness/v1"
	"google.golang.org/api/option"
)

const userID = "me"

// mergedDataSources are the platform-merged streams raw reads are served from
var mergedDataSources = map[string]string{
	TypeStepCountDelta.Name:   "derived:com.google.step_count.delta:com.google.android.gms:estimated_steps",
	TypeCaloriesExpended.Name: "derived:com.google.calories.expended:com.google.android.gms:merge_calories_expended",
	TypeActivitySegment.Name:  "derived:com.google.activity.segment:com.google.android.gms:merge_activity_segments",
	TypeWeight.Name:           "derived:com.google.weight:com.google.android.gms:merge_weight",
	TypeHeight.Name:           "derived:com.google.height:com.google.android.gms:merge_height",
}

// TokenSourceProvider hands out credentials for a signed-in account
type TokenSourceProvider interface {
	TokenSource(ctx context.Context, acct *Account) oauth2.TokenSource
}

// History executes read requests against the Fit REST history endpoints
type History struct {
	tokens TokenSourceProvider
	opts   []option.ClientOption
	logger Logger
}

// NewHistory creates a history reader. tokens may be nil when opts already
// carry credentials.
func NewHistory(tokens TokenSourceProvider, logger Logger, opts ...option.ClientOption) *History {
	return &History{
		tokens: tokens,
		opts:   opts,
		logger: logger,
	}
}

// ReadData runs req on behalf of acct
func (h *History) ReadData(ctx context.Context, acct *Account, req *DataReadRequest) (*DataReadResponse, error) {
	svc, err := h.service(ctx, acct)
	if err != nil {
		return nil, err
	}

	if req.IsAggregate() {
		return h.aggregate(ctx, svc, req)
	}
	return h.readRaw(ctx, svc, req)
}

func (h *History) service(ctx context.Context, acct *Account) (*fitness.Service, error) {
	opts := append([]option.ClientOption(nil), h.opts...)
	if h.tokens != nil && acct != nil {
		opts = append(opts, option.WithTokenSource(h.tokens.TokenSource(ctx, acct)))
	}
	svc, err := fitness.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create fitness service: %w", err)
	}
	return svc, nil
}

func (h *History) aggregate(ctx context.Context, svc *fitness.Service, req *DataReadRequest) (*DataReadResponse, error) {
	areq := &fitness.AggregateRequest{
		StartTimeMillis: req.StartTimeMillis,
		EndTimeMillis:   req.EndTimeMillis,
	}
	for _, dt := range req.AggregateTypes {
		areq.AggregateBy = append(areq.AggregateBy, &fitness.AggregateBy{DataTypeName: dt.Name})
	}

	switch req.Bucketing {
	case BucketByTime:
		areq.BucketByTime = &fitness.BucketByTime{DurationMillis: req.BucketDuration.Milliseconds()}
	case BucketByActivitySegment:
		areq.BucketByActivitySegment = &fitness.BucketByActivity{MinDurationMillis: req.BucketDuration.Milliseconds()}
	}

	h.logger.Debug("aggregate request",
		"types", len(areq.AggregateBy),
		"start_ms", areq.StartTimeMillis,
		"end_ms", areq.EndTimeMillis,
		"bucket", req.BucketDuration.String())

	resp, err := svc.Users.Dataset.Aggregate(userID, areq).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}

	out := &DataReadResponse{}
	for _, b := range resp.Bucket {
		bucket := Bucket{
			StartTimeMillis: b.StartTimeMillis,
			EndTimeMillis:   b.EndTimeMillis,
		}
		if req.Bucketing == BucketByActivitySegment {
			bucket.Activity = ActivityName(b.Activity)
		}
		for _, ds := range b.Dataset {
			bucket.DataSets = append(bucket.DataSets, convertDataset(ds))
		}
		out.Buckets = append(out.Buckets, bucket)
	}

	h.logger.Debug("aggregate response", "buckets", len(out.Buckets))
	return out, nil
}

func (h *History) readRaw(ctx context.Context, svc *fitness.Service, req *DataReadRequest) (*DataReadResponse, error) {
	datasetID := formatDatasetID(req.StartTimeMillis, req.EndTimeMillis)

	out := &DataReadResponse{}
	for _, dt := range req.ReadTypes {
		sourceID, ok := mergedDataSources[dt.Name]
		if !ok {
			return nil, fmt.Errorf("read data: no merged data source for %s", dt.Name)
		}

		set := DataSet{DataType: dt}
		pageToken := ""
		for {
			call := svc.Users.DataSources.Datasets.Get(userID, sourceID, datasetID).Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			ds, err := call.Do()
			if err != nil {
				return nil, fmt.Errorf("read data: %w", err)
			}
			set.DataPoints = append(set.DataPoints, convertDataset(ds).DataPoints...)

			if ds.NextPageToken == "" {
				break
			}
			pageToken = ds.NextPageToken
		}

		h.logger.Debug("raw read", "type", dt.Name, "points", len(set.DataPoints))
		out.DataSets = append(out.DataSets, set)
	}
	return out, nil
}

// convertDataset turns a REST dataset into the vendor model
func convertDataset(ds *fitness.Dataset) DataSet {
	set := DataSet{DataType: LookupDataType(dataTypeFromSourceID(ds.DataSourceId))}
	for _, p := range ds.Point {
		dt := LookupDataType(p.DataTypeName)
		if set.DataType.Name == "" {
			set.DataType = dt
		}
		set.DataPoints = append(set.DataPoints, DataPoint{
			DataType:       dt,
			StartTimeNanos: p.StartTimeNanos,
			EndTimeNanos:   p.EndTimeNanos,
			Values:         convertValues(dt, p.Value),
		})
	}
	return set
}

// convertValues reads each REST value according to the declared field format
func convertValues(dt DataType, values []*fitness.Value) []Value {
	out := make([]Value, 0, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		format := FormatFloat
		if i < len(dt.Fields) {
			format = dt.Fields[i].Format
		} else if v.IntVal != 0 {
			format = FormatInt32
		}

		if format == FormatInt32 {
			out = append(out, Value{Format: FormatInt32, IntVal: v.IntVal})
		} else {
			out = append(out, Value{Format: FormatFloat, FpVal: v.FpVal})
		}
	}
	return out
}

// dataTypeFromSourceID extracts the type name from ids like
// "derived:com.google.weight:com.google.android.gms:merge_weight"
func dataTypeFromSourceID(id string) string {
	parts := strings.Split(id, ":")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// formatDatasetID formats a millisecond range as the "startNanos-endNanos"
// dataset identifier. The zeros are appended as text so ranges past 2262 do
// not overflow int64 nanoseconds.
func formatDatasetID(startMillis, endMillis int64) string {
	return millisAsNanos(startMillis) + "-" + millisAsNanos(endMillis)
}

func millisAsNanos(ms int64) string {
	if ms == 0 {
		return "0"
	}
	return strconv.FormatInt(ms, 10) + "000000"
}
