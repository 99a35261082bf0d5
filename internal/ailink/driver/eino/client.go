// Package eino adapts a cloudwego/eino chat model to the ailink driver
// interface.
package eino

import (
	"context"
	"fmt"
	"strings"
	"time"

	openaiModel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/astrasemi/qualitylens/internal/ailink/content"
	"github.com/astrasemi/qualitylens/internal/ailink/driver"
)

// Generator is the subset of model.BaseChatModel the driver calls.
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Client implements driver.Driver on top of an eino chat model.
type Client struct {
	Model   Generator
	Timeout time.Duration
}

// NewOpenAIClient builds an eino-ext OpenAI chat model bound to modelName.
func NewOpenAIClient(ctx context.Context, baseURL, apiKey, modelName string, timeout time.Duration) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		return nil, fmt.Errorf("model is required")
	}

	cm, err := openaiModel.NewChatModel(ctx, &openaiModel.ChatModelConfig{
		APIKey:  apiKey,
		Model:   modelName,
		BaseURL: strings.TrimSpace(baseURL),
		Timeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create eino chat model: %w", err)
	}
	return &Client{Model: cm, Timeout: timeout}, nil
}

// Name returns the driver identifier.
func (c *Client) Name() string {
	return "eino"
}

// Capabilities describes supported features.
func (c *Client) Capabilities() driver.Capabilities {
	return driver.Capabilities{SupportsStreaming: true}
}

// Complete runs a single Generate call.
func (c *Client) Complete(ctx context.Context, req *driver.Request) (*driver.Response, error) {
	if c == nil || c.Model == nil {
		return nil, fmt.Errorf("eino client not configured")
	}
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("messages are required")
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	msgs := toSchemaMessages(req.Messages)
	opts := callOptions(req)

	entry := driver.TraceEntry{Driver: c.Name(), Model: req.Model, PromptSlug: req.PromptSlug}
	start := time.Now()
	defer func() {
		entry.DurationMs = time.Since(start).Milliseconds()
		driver.Trace(entry)
	}()

	resp, err := c.Model.Generate(ctx, msgs, opts...)
	if err != nil {
		entry.Error = err.Error()
		if ctx.Err() != nil {
			return nil, fmt.Errorf("generate: %w", ctx.Err())
		}
		return nil, &driver.ProviderError{Provider: c.Name(), Message: err.Error(), Err: err}
	}
	if resp == nil {
		entry.Error = "empty response"
		return nil, fmt.Errorf("empty response")
	}

	return toDriverResponse(resp), nil
}

func toSchemaMessages(messages []content.Message) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		role := schema.User
		switch msg.Role {
		case content.RoleSystem:
			role = schema.System
		case "assistant":
			role = schema.Assistant
		}
		msgs = append(msgs, &schema.Message{Role: role, Content: msg.Text()})
	}
	return msgs
}

func callOptions(req *driver.Request) []model.Option {
	var opts []model.Option
	if m := strings.TrimSpace(req.Model); m != "" {
		opts = append(opts, model.WithModel(m))
	}
	if req.Temperature != nil {
		opts = append(opts, model.WithTemperature(float32(*req.Temperature)))
	}
	if req.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*req.MaxTokens))
	}
	return opts
}

func toDriverResponse(msg *schema.Message) *driver.Response {
	resp := &driver.Response{
		Content: []content.ContentBlock{{Type: content.ContentTypeText, Text: msg.Content}},
	}
	if meta := msg.ResponseMeta; meta != nil {
		resp.FinishReason = meta.FinishReason
		if meta.Usage != nil {
			resp.Usage = &driver.Usage{
				PromptTokens:     meta.Usage.PromptTokens,
				CompletionTokens: meta.Usage.CompletionTokens,
				TotalTokens:      meta.Usage.TotalTokens,
			}
		}
	}
	return resp
}
