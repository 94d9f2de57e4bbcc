// Package llmclient implements the gRPC-backed intent-parser backend
// (spec.md §4.2 "LLM-driven parse"). The request/response payloads are
// generic structpb.Struct messages rather than a generated protobuf stub:
// the wire shape (a JSON object in, a JSON object out) is simple enough
// that a hand-authored .proto/generated client would add codegen surface
// without adding type safety the caller doesn't already get from
// structpb's native map round-trip.
package llmclient

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrTimeout is returned once the full retry ladder is exhausted
// (spec.md §5 "terminal LLM failure routes to the regex fallback strategy").
var ErrTimeout = errors.New("llm: all retry attempts exhausted")

// ParseMethod is the fully-qualified gRPC method invoked for intent parsing.
const ParseMethod = "/movi.intent.v1.IntentService/Parse"

// Request is the payload sent to the LLM intent-parsing backend.
type Request struct {
	InputText        string         `json:"input_text"`
	Page             string         `json:"page"`
	SelectionContext map[string]any `json:"selection_context,omitempty"`
	History          []HistoryTurn  `json:"history"`
	CatalogSummary   []CatalogEntry `json:"catalog_summary"`
}

// HistoryTurn is one carried conversation turn.
type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CatalogEntry is a one-line action description given to the model as context.
type CatalogEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Response is the structured parse result the backend returns
// (spec.md §4.2 "Require a JSON result with the fields...").
type Response struct {
	Action       string         `json:"action"`
	Confidence   float64        `json:"confidence"`
	Parameters   map[string]any `json:"parameters"`
	TargetLabel  string         `json:"target_label,omitempty"`
	TargetTripID *int64         `json:"target_trip_id,omitempty"`
	TargetTime   string         `json:"target_time,omitempty"`
	Explanation  string         `json:"explanation,omitempty"`
}

// Client is a gRPC IntentParser backend with a bounded retry ladder.
type Client struct {
	conn           *grpc.ClientConn
	model          string
	temperature    float64
	maxTokens      int
	attemptTimeout time.Duration
	maxAttempts    int
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithModel overrides the model name sent with every request.
func WithModel(model string) Option { return func(c *Client) { c.model = model } }

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float64) Option { return func(c *Client) { c.temperature = t } }

// WithMaxTokens overrides the response token budget.
func WithMaxTokens(n int) Option { return func(c *Client) { c.maxTokens = n } }

// WithRetryLadder overrides the per-attempt timeout and attempt count
// (spec.md §5 "30-second per-attempt timeout, up to 3 attempts").
func WithRetryLadder(attemptTimeout time.Duration, maxAttempts int) Option {
	return func(c *Client) {
		c.attemptTimeout = attemptTimeout
		c.maxAttempts = maxAttempts
	}
}

// NewClient dials addr and returns a ready-to-use Client. Dialing is
// non-blocking (grpc.NewClient does not connect eagerly); connection
// failures surface on the first Parse call.
func NewClient(addr string, opts ...Option) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial llm backend: %w", err)
	}

	c := &Client{
		conn:           conn,
		model:          envOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		temperature:    envFloatOrDefault("GEMINI_TEMPERATURE", 0.2),
		maxTokens:      envIntOrDefault("GEMINI_MAX_TOKENS", 1024),
		attemptTimeout: 30 * time.Second,
		maxAttempts:    3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Parse invokes the backend with the retry ladder described in spec.md §5:
// up to maxAttempts attempts, attemptTimeout per attempt, exponential
// backoff between attempts starting at 1s and doubling (1s, then 2s with
// three attempts). ErrTimeout is returned once every
// attempt has failed or timed out.
func (c *Client) Parse(ctx context.Context, req Request) (*Response, error) {
	return parseWithInvoker(ctx, c, req, c.invoke)
}

// invokeFunc performs a single parse attempt. It is a seam so the retry
// ladder can be exercised in tests without a live gRPC server.
type invokeFunc func(ctx context.Context, req Request) (*Response, error)

func parseWithInvoker(ctx context.Context, c *Client, req Request, invoke invokeFunc) (*Response, error) {
	backoff := time.Second
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
		resp, err := invoke(attemptCtx, req)
		cancel()
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w: %v", ErrTimeout, lastErr)
}

func (c *Client) invoke(ctx context.Context, req Request) (*Response, error) {
	payload, err := requestStruct(req, c.model, c.temperature, c.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("build request payload: %w", err)
	}
	out := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, ParseMethod, payload, out); err != nil {
		return nil, err
	}
	return responseFromStruct(out)
}

func requestStruct(req Request, model string, temperature float64, maxTokens int) (*structpb.Struct, error) {
	history := make([]any, 0, len(req.History))
	for _, h := range req.History {
		history = append(history, map[string]any{"role": h.Role, "content": h.Content})
	}
	catalog := make([]any, 0, len(req.CatalogSummary))
	for _, e := range req.CatalogSummary {
		catalog = append(catalog, map[string]any{"name": e.Name, "description": e.Description})
	}

	m := map[string]any{
		"input_text":      req.InputText,
		"page":            req.Page,
		"history":         history,
		"catalog_summary": catalog,
		"model":           model,
		"temperature":     temperature,
		"max_tokens":      maxTokens,
	}
	if req.SelectionContext != nil {
		m["selection_context"] = req.SelectionContext
	}
	return structpb.NewStruct(m)
}

func responseFromStruct(s *structpb.Struct) (*Response, error) {
	fields := s.AsMap()

	resp := &Response{
		Parameters: map[string]any{},
	}
	if v, ok := fields["action"].(string); ok {
		resp.Action = v
	}
	if v, ok := fields["confidence"].(float64); ok {
		resp.Confidence = v
	}
	if v, ok := fields["parameters"].(map[string]any); ok {
		resp.Parameters = v
	}
	if v, ok := fields["target_label"].(string); ok {
		resp.TargetLabel = v
	}
	if v, ok := fields["target_trip_id"].(float64); ok {
		id := int64(v)
		resp.TargetTripID = &id
	}
	if v, ok := fields["target_time"].(string); ok {
		resp.TargetTime = v
	}
	if v, ok := fields["explanation"].(string); ok {
		resp.Explanation = v
	}
	return resp, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envFloatOrDefault(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
