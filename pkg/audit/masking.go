package audit

import "regexp"

// compiledPattern holds a pre-compiled regex pattern with its replacement,
// generalized from the teacher's masking.CompiledPattern (simplified here to
// a static built-in set — MOVI has no per-server masking registry).
type compiledPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// builtinPatterns redact common PII shapes from audit snapshots before they
// are persisted (email addresses, phone numbers, bare card-like digit runs).
var builtinPatterns = []compiledPattern{
	{
		name:        "email",
		regex:       regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
		replacement: "[REDACTED_EMAIL]",
	},
	{
		name:        "phone",
		regex:       regexp.MustCompile(`\+?\d{1,3}[-. ]?\(?\d{2,4}\)?[-. ]?\d{3,4}[-. ]?\d{3,4}`),
		replacement: "[REDACTED_PHONE]",
	},
	{
		name:        "card_like_digits",
		regex:       regexp.MustCompile(`\b\d{13,19}\b`),
		replacement: "[REDACTED_NUMBER]",
	},
}

// Mask redacts PII shapes out of a free-text value. It fails open: a nil or
// empty value is returned unchanged.
func Mask(value string) string {
	if value == "" {
		return value
	}
	masked := value
	for _, p := range builtinPatterns {
		masked = p.regex.ReplaceAllString(masked, p.replacement)
	}
	return masked
}

// MaskFields returns a shallow copy of fields with every string value passed
// through Mask. Non-string values are copied unchanged.
func MaskFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if s, ok := v.(string); ok {
			out[k] = Mask(s)
			continue
		}
		out[k] = v
	}
	return out
}
