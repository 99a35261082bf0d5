// Package driver defines the provider-neutral completion contract that the
// ailink service calls and each backend implements.
package driver

import (
	"context"
	"strings"

	"github.com/astrasemi/qualitylens/internal/ailink/content"
)

type Driver interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
	// Name identifies the backend in logs, traces and errors.
	Name() string
	Capabilities() Capabilities
}

type Capabilities struct {
	// SupportsJSONMode means ResponseFormat{Type: "json_object"} is honored.
	SupportsJSONMode  bool
	SupportsStreaming bool
}

// ResponseFormat asks for "text" or "json_object" output.
type ResponseFormat struct {
	Type string `json:"type"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Request is one completion call. Nil sampling fields leave the provider
// default in place.
type Request struct {
	Model          string
	Messages       []content.Message
	ResponseFormat *ResponseFormat
	Temperature    *float64
	MaxTokens      *int
	// PromptSlug is recorded in traces only.
	PromptSlug string
}

type Response struct {
	Content      []content.ContentBlock
	FinishReason string
	Usage        *Usage
}

// Text concatenates the response blocks, newline separated.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	for i, block := range r.Content {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(block.Text)
	}
	return b.String()
}
