// Package anthropic wraps the official SDK behind the strict-JSON
// completion interface the extraction passes use.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const defaultModel = "claude-haiku-4-5-20251001"

// Client defines the model operations used by the pipeline.
type Client interface {
	// CreateMessage sends a single completion request.
	CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error)
	// CompleteJSON sends system+user prompts at temperature 0 and returns
	// the response parsed down to a single raw JSON object. The call runs
	// under a timeout; on timeout exactly one untimed retry is attempted.
	CompleteJSON(ctx context.Context, system, user string) (json.RawMessage, error)
}

// MessageRequest is our own request type for CreateMessage.
type MessageRequest struct {
	Model       string
	MaxTokens   int64
	System      string
	Messages    []Message
	Temperature *float64
}

// Message represents a single conversational message.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// MessageResponse is our own response type from CreateMessage.
type MessageResponse struct {
	ID         string
	Model      string
	Text       string
	StopReason string
	Usage      TokenUsage
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
}

// LogCost logs token usage with structured zap fields.
func (u TokenUsage) LogCost(model, phase string) {
	zap.L().Info("llm usage",
		zap.String("model", model),
		zap.String("phase", phase),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
	)
}

// Option configures the client.
type Option func(*sdkClient)

// WithModel overrides the default extraction model.
func WithModel(model string) Option {
	return func(c *sdkClient) {
		c.model = model
	}
}

// WithJSONTimeout overrides the per-call timeout for CompleteJSON.
func WithJSONTimeout(d time.Duration) Option {
	return func(c *sdkClient) {
		c.jsonTimeout = d
	}
}

// WithRequestOptions appends SDK request options (for testing).
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(c *sdkClient) {
		c.sdkOpts = append(c.sdkOpts, opts...)
	}
}

// sdkClient implements Client using the official anthropic-sdk-go.
type sdkClient struct {
	client      sdk.Client
	model       string
	jsonTimeout time.Duration
	sdkOpts     []option.RequestOption
}

// NewClient creates a new Anthropic client backed by the SDK.
func NewClient(apiKey string, opts ...Option) Client {
	c := &sdkClient{
		model:       defaultModel,
		jsonTimeout: 45 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.client = sdk.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, c.sdkOpts...)...)
	return c
}

func (c *sdkClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	if req.Model == "" {
		req.Model = c.model
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = 1024
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: req.MaxTokens,
		Messages:  toSDKMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, eris.Wrap(err, "anthropic: create message")
	}
	return fromSDKMessage(msg), nil
}

func (c *sdkClient) CompleteJSON(ctx context.Context, system, user string) (json.RawMessage, error) {
	req := MessageRequest{
		Model:       c.model,
		MaxTokens:   1024,
		System:      system,
		Messages:    []Message{{Role: "user", Content: user}},
		Temperature: sdkFloatPtr(0),
	}

	tctx, cancel := context.WithTimeout(ctx, c.jsonTimeout)
	resp, err := c.CreateMessage(tctx, req)
	cancel()

	// One untimed retry after a timeout; other failures surface directly.
	if err != nil && errors.Is(tctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		zap.L().Warn("llm call timed out, retrying without deadline",
			zap.String("model", req.Model),
		)
		resp, err = c.CreateMessage(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	raw, err := CleanJSON(resp.Text)
	if err != nil {
		return nil, eris.Wrapf(err, "anthropic: response is not a JSON object")
	}
	return raw, nil
}

// CleanJSON extracts the single JSON object from a model response, tolerating
// code fences and prose around it.
func CleanJSON(text string) (json.RawMessage, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil, eris.New("no JSON object found in response")
	}
	raw := json.RawMessage(s[start : end+1])
	if !json.Valid(raw) {
		return nil, eris.New("malformed JSON object in response")
	}
	return raw, nil
}

func sdkFloatPtr(v float64) *float64 { return &v }

func toSDKMessages(msgs []Message) []sdk.MessageParam {
	out := make([]sdk.MessageParam, len(msgs))
	for i, m := range msgs {
		block := sdk.NewTextBlock(m.Content)
		switch m.Role {
		case "assistant":
			out[i] = sdk.NewAssistantMessage(block)
		default:
			out[i] = sdk.NewUserMessage(block)
		}
	}
	return out
}

func fromSDKMessage(msg *sdk.Message) *MessageResponse {
	var text strings.Builder
	for _, b := range msg.Content {
		if b.Type == "text" {
			text.WriteString(b.Text)
		}
	}
	return &MessageResponse{
		ID:         msg.ID,
		Model:      string(msg.Model),
		Text:       text.String(),
		StopReason: string(msg.StopReason),
		Usage: TokenUsage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}
}
