package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskRedactsEmail(t *testing.T) {
	out := Mask("contact jane.doe@example.com for details")
	assert.Contains(t, out, "[REDACTED_EMAIL]")
	assert.NotContains(t, out, "jane.doe@example.com")
}

func TestMaskRedactsPhone(t *testing.T) {
	out := Mask("call +1 415-555-2671 now")
	assert.Contains(t, out, "[REDACTED_PHONE]")
}

func TestMaskPassesThroughCleanText(t *testing.T) {
	assert.Equal(t, "trip cancelled", Mask("trip cancelled"))
}

func TestMaskFieldsOnlyTouchesStrings(t *testing.T) {
	fields := map[string]any{
		"email":   "a@b.com",
		"count":   3,
		"nested":  map[string]any{"x": 1},
	}
	out := MaskFields(fields)
	assert.Equal(t, "[REDACTED_EMAIL]", out["email"])
	assert.Equal(t, 3, out["count"])
}

func TestMaskFieldsNil(t *testing.T) {
	assert.Nil(t, MaskFields(nil))
}
