package intent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RudraKhare/movi-agent/pkg/flow"
)

func TestParseStructuredCommandCoercesIntegers(t *testing.T) {
	in := parseStructuredCommand("STRUCTURED_CMD:assign_driver|trip_id:8|driver_id:5")
	assert.Equal(t, "assign_driver", in.Action)
	assert.Equal(t, 1.0, in.Confidence)
	assert.Equal(t, int64(8), in.Parameters["trip_id"])
	assert.Equal(t, int64(5), in.Parameters["driver_id"])
}

func TestParseStructuredCommandRejectsUndefinedToken(t *testing.T) {
	in := parseStructuredCommand("STRUCTURED_CMD:assign_driver|driver_id:undefined")
	assert.Equal(t, "unknown", in.Action)
}

func TestParserParseRoutesStructuredCommandWithoutLLM(t *testing.T) {
	p := NewParser(nil, 3)
	in := p.Parse(context.Background(), "STRUCTURED_CMD:cancel_trip|trip_id:12", "dashboard", "", nil)
	assert.Equal(t, "cancel_trip", in.Action)
	assert.Equal(t, int64(12), in.Parameters["trip_id"])
}

func TestParserParseFallsBackToRegexWithoutLLMClient(t *testing.T) {
	p := NewParser(nil, 3)
	in := p.Parse(context.Background(), "cancel trip Odeon Express", "dashboard", "", nil)
	assert.Equal(t, "cancel_trip", in.Action)
	assert.Equal(t, "Odeon Express", in.TargetLabel)
}

func TestRegexFallbackListAllStops(t *testing.T) {
	in := regexFallback("list all stops")
	assert.Equal(t, "list_all_stops", in.Action)
}

func TestRegexFallbackNoMatchReturnsUnknown(t *testing.T) {
	in := regexFallback("what is the weather today")
	assert.Equal(t, "unknown", in.Action)
	assert.Equal(t, 0.0, in.Confidence)
}

func TestSimilarityExactMatchIsOne(t *testing.T) {
	assert.Equal(t, 1.0, similarity("cancel_trip", "cancel_trip"))
}

func TestBestCatalogMatchFindsCloseTypo(t *testing.T) {
	best, score := bestCatalogMatch("cancel_trp")
	assert.Equal(t, "cancel_trip", best)
	assert.GreaterOrEqual(t, score, SimilarityThreshold)
}

func TestNeedsClarificationLowConfidence(t *testing.T) {
	require.True(t, NeedsClarification(intentWith("cancel_trip", 0.1, map[string]any{"trip_id": int64(1)}, "x")))
}

func TestNeedsClarificationMissingRequiredParameter(t *testing.T) {
	require.True(t, NeedsClarification(intentWith("update_trip_time", 0.9, map[string]any{}, "x")))
}

func TestNeedsClarificationAssignDriverDoesNotRequireTargetUpFront(t *testing.T) {
	require.False(t, NeedsClarification(intentWith("assign_driver", 0.9, map[string]any{}, "")))
}

func TestNeedsClarificationMissingTargetForTargetedAction(t *testing.T) {
	require.True(t, NeedsClarification(intentWith("cancel_trip", 0.9, map[string]any{}, "")))
}

func intentWith(action string, confidence float64, params map[string]any, targetLabel string) flow.Intent {
	return flow.Intent{
		Action:      action,
		Confidence:  confidence,
		Parameters:  params,
		TargetLabel: targetLabel,
	}
}
