package llmclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func strVal(s string) *structpb.Value { return structpb.NewStringValue(s) }
func numVal(f float64) *structpb.Value { return structpb.NewNumberValue(f) }

func TestRequestStructRoundTripsFields(t *testing.T) {
	req := Request{
		InputText: "cancel trip 12",
		Page:      "dashboard",
		History:   []HistoryTurn{{Role: "user", Content: "hi"}},
		CatalogSummary: []CatalogEntry{
			{Name: "cancel_trip", Description: "cancel a scheduled trip"},
		},
	}
	s, err := requestStruct(req, "gemini-1.5-flash", 0.2, 1024)
	require.NoError(t, err)

	m := s.AsMap()
	assert.Equal(t, "cancel trip 12", m["input_text"])
	assert.Equal(t, "dashboard", m["page"])
	assert.Equal(t, "gemini-1.5-flash", m["model"])
}

func TestResponseFromStructParsesKnownFields(t *testing.T) {
	req := Request{InputText: "x"}
	s, err := requestStruct(req, "m", 0.1, 10)
	require.NoError(t, err)
	s.Fields["action"] = strVal("cancel_trip")
	s.Fields["confidence"] = numVal(0.92)
	s.Fields["target_trip_id"] = numVal(12)

	resp, err := responseFromStruct(s)
	require.NoError(t, err)
	assert.Equal(t, "cancel_trip", resp.Action)
	assert.InDelta(t, 0.92, resp.Confidence, 0.0001)
	require.NotNil(t, resp.TargetTripID)
	assert.Equal(t, int64(12), *resp.TargetTripID)
}

// fakeInvoker lets Parse's retry ladder be exercised without a live gRPC
// server: it stands in for (*grpc.ClientConn).Invoke.
type fakeInvoker struct {
	calls   int
	fail    int
	lastErr error
}

func TestParseRetriesThenSucceeds(t *testing.T) {
	c := &Client{
		attemptTimeout: time.Second,
		maxAttempts:    3,
	}
	fi := &fakeInvoker{fail: 2}

	start := time.Now()
	resp, err := parseWithInvoker(context.Background(), c, Request{InputText: "hi"}, fi.invoke)
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 3, fi.calls)
	// backoff 1s then 2s between the two failed attempts.
	assert.GreaterOrEqual(t, elapsed, 3*time.Second-100*time.Millisecond)
}

func TestParseExhaustsRetriesAndReturnsErrTimeout(t *testing.T) {
	c := &Client{
		attemptTimeout: time.Second,
		maxAttempts:    2,
	}
	fi := &fakeInvoker{fail: 99}

	_, err := parseWithInvoker(context.Background(), c, Request{InputText: "hi"}, fi.invoke)
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 2, fi.calls)
}

func (f *fakeInvoker) invoke(ctx context.Context, req Request) (*Response, error) {
	f.calls++
	if f.calls <= f.fail {
		f.lastErr = assert.AnError
		return nil, assert.AnError
	}
	return &Response{Action: "cancel_trip", Confidence: 0.9}, nil
}
