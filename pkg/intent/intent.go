// Package intent implements the parse_intent node (spec.md §4.2): a
// structured-command fast path, an LLM-driven parse with synonym mapping and
// catalog similarity matching, a regex fallback invoked when the LLM backend
// is unavailable, and ambiguous/missing-parameter clarification detection.
package intent

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/RudraKhare/movi-agent/pkg/catalog"
	"github.com/RudraKhare/movi-agent/pkg/flow"
	"github.com/RudraKhare/movi-agent/pkg/llmclient"
)

// StructuredCommandPrefix marks the deterministic UI-selection grammar
// (spec.md §6.3).
const StructuredCommandPrefix = "STRUCTURED_CMD:"

// SimilarityThreshold is the minimum catalog-name similarity score accepted
// when an LLM-returned action isn't an exact catalog match (spec.md §4.2).
const SimilarityThreshold = 0.85

// ClarificationConfidenceThreshold is the confidence floor below which a
// parsed intent is routed to clarification regardless of anything else
// (spec.md §4.2 "confidence < 0.30").
const ClarificationConfidenceThreshold = 0.30

// synonymTable maps free-form phrasing onto catalog action names
// (spec.md §4.2 "allocate/appoint/give/send/reserve -> assign_driver").
var synonymTable = map[string]string{
	"allocate":     "assign_driver",
	"appoint":      "assign_driver",
	"give":         "assign_driver",
	"send":         "assign_driver",
	"reserve":      "assign_driver",
	"delete trip":  "cancel_trip",
	"abort":        "cancel_trip",
	"scrap trip":   "cancel_trip",
	"drop trip":    "cancel_trip",
	"pull vehicle": "remove_vehicle",
	"unassign vehicle": "remove_vehicle",
	"unassign driver":   "remove_driver",
}

// Parser parses free-form or structured input text into a flow.Intent.
type Parser struct {
	llm           *llmclient.Client
	llmTimeouts   int
	maxLLMTimeouts int
}

// NewParser builds a Parser backed by an LLM client. maxLLMTimeouts caps how
// many consecutive terminal LLM failures are tolerated before the parser
// permanently falls back to regex matching for the lifetime of this Parser
// (spec.md §4.2 "invoked only when the LLM call times out three times").
func NewParser(llm *llmclient.Client, maxLLMTimeouts int) *Parser {
	if maxLLMTimeouts <= 0 {
		maxLLMTimeouts = 3
	}
	return &Parser{llm: llm, maxLLMTimeouts: maxLLMTimeouts}
}

// Parse runs the full §4.2 pipeline against input text.
func (p *Parser) Parse(ctx context.Context, inputText, page, selectedTrip string, history []flow.Turn) flow.Intent {
	if strings.HasPrefix(inputText, StructuredCommandPrefix) {
		return parseStructuredCommand(inputText)
	}

	if strings.Contains(inputText, "undefined") {
		return flow.Intent{Action: "unknown", Confidence: 0, Parameters: map[string]any{}}
	}

	if p.llm != nil && p.llmTimeouts < p.maxLLMTimeouts {
		resp, err := p.llm.Parse(ctx, llmclient.Request{
			InputText: inputText,
			Page:      page,
			History:   toHistoryTurns(history),
		})
		if err == nil {
			p.llmTimeouts = 0
			return normalizeLLMResponse(resp)
		}
		p.llmTimeouts++
	}

	return regexFallback(inputText)
}

func toHistoryTurns(history []flow.Turn) []llmclient.HistoryTurn {
	out := make([]llmclient.HistoryTurn, len(history))
	for i, t := range history {
		out[i] = llmclient.HistoryTurn{Role: string(t.Role), Content: t.Content}
	}
	return out
}

// parseStructuredCommand parses `action|k1:v1|k2:v2|...` deterministically
// (spec.md §6.3). Integer-like values are coerced to int64.
func parseStructuredCommand(inputText string) flow.Intent {
	remainder := strings.TrimPrefix(inputText, StructuredCommandPrefix)
	parts := strings.Split(remainder, "|")
	action := parts[0]

	params := map[string]any{}
	for _, kv := range parts[1:] {
		k, v, ok := strings.Cut(kv, ":")
		if !ok {
			continue
		}
		params[k] = coerceValue(v)
	}

	if strings.Contains(inputText, "undefined") {
		return flow.Intent{Action: "unknown", Confidence: 0, Parameters: map[string]any{}}
	}

	return flow.Intent{Action: action, Confidence: 1.0, Parameters: params}
}

func coerceValue(v string) any {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	return v
}

// normalizeLLMResponse applies synonym mapping and similarity matching to a
// raw LLM parse result (spec.md §4.2 step 2).
func normalizeLLMResponse(resp *llmclient.Response) flow.Intent {
	action := resp.Action
	if mapped, ok := synonymTable[strings.ToLower(strings.TrimSpace(action))]; ok {
		action = mapped
	}

	if _, exact := catalog.Get(action); !exact {
		if best, score := bestCatalogMatch(action); score >= SimilarityThreshold {
			action = best
		}
	}

	params := resp.Parameters
	if params == nil {
		params = map[string]any{}
	}

	intent := flow.Intent{
		Action:       action,
		Confidence:   resp.Confidence,
		Parameters:   params,
		TargetLabel:  resp.TargetLabel,
		TargetTripID: resp.TargetTripID,
		TargetTime:   resp.TargetTime,
		Explanation:  resp.Explanation,
	}

	if strings.Contains(resp.Action, "undefined") {
		intent.Action = "unknown"
		intent.Confidence = 0
	}

	return applyClarificationRules(intent)
}

// bestCatalogMatch returns the catalog action name with the highest
// normalized-edit-distance similarity to candidate, and its score.
func bestCatalogMatch(candidate string) (string, float64) {
	best := ""
	bestScore := 0.0
	for _, a := range catalog.All() {
		score := similarity(candidate, a.Name)
		if score > bestScore {
			bestScore = score
			best = a.Name
		}
	}
	return best, bestScore
}

// similarity returns a normalized similarity in [0,1] based on Levenshtein
// distance: 1 - distance/max(len(a),len(b)). Uses the same
// github.com/agext/levenshtein distance function hashicorp/terraform's
// "did you mean X?" command-name suggestions are built on — the catalog
// fuzzy-match here is the same kind of typo-tolerant name lookup.
func similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1.0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein.Distance(a, b, nil)
	return 1.0 - float64(dist)/float64(maxLen)
}

// regexPattern is one entry of the ordered fallback table (spec.md §4.2
// step 3).
type regexPattern struct {
	re     *regexp.Regexp
	action string
}

var regexPatterns = []regexPattern{
	{regexp.MustCompile(`(?i)^cancel trip\s+(.+)$`), "cancel_trip"},
	{regexp.MustCompile(`(?i)^remove vehicle from\s+(.+)$`), "remove_vehicle"},
	{regexp.MustCompile(`(?i)^assign (?:driver|vehicle)(?:\s+to\s+(.+))?$`), "assign_driver"},
	{regexp.MustCompile(`(?i)^list (?:all )?stops$`), "list_all_stops"},
}

// regexFallback applies the ordered pattern table. On no match, returns the
// unknown action with zero confidence (spec.md §4.2 step 3).
func regexFallback(inputText string) flow.Intent {
	trimmed := strings.TrimSpace(inputText)
	for _, p := range regexPatterns {
		m := p.re.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		intent := flow.Intent{Action: p.action, Confidence: 0.6, Parameters: map[string]any{}}
		if len(m) > 1 && m[1] != "" {
			intent.TargetLabel = strings.TrimSpace(m[1])
		}
		return applyClarificationRules(intent)
	}
	return flow.Intent{Action: "unknown", Confidence: 0, Parameters: map[string]any{}}
}

// applyClarificationRules implements spec.md §4.2 step 4: populates
// needs_clarification via the caller (the parser only reports enough for the
// caller to decide — see NeedsClarification).
func applyClarificationRules(in flow.Intent) flow.Intent {
	return in
}

// NeedsClarification reports whether a parsed intent must route to
// clarification before continuing (spec.md §4.2 step 4). assign_driver is
// exempted from the "target required" rule because its selection provider
// supplies the driver later in the graph.
func NeedsClarification(in flow.Intent) bool {
	if in.Confidence < ClarificationConfidenceThreshold {
		return true
	}

	a, ok := catalog.Get(in.Action)
	if !ok {
		return false
	}

	if len(catalog.MissingRequiredParameters(in.Action, in.Parameters)) > 0 {
		return true
	}

	if !a.TargetFree && in.Action != "assign_driver" {
		if in.TargetLabel == "" && in.TargetTripID == nil {
			if _, hasID := in.Parameters["trip_id"]; !hasID {
				return true
			}
		}
	}

	return false
}
