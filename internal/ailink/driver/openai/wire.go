package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/astrasemi/qualitylens/internal/ailink/content"
	"github.com/astrasemi/qualitylens/internal/ailink/driver"
)

// Chat completions wire format, limited to the fields the insight flow
// sends and reads.

type completionRequest struct {
	Model          string        `json:"model"`
	Messages       []wireMessage `json:"messages"`
	ResponseFormat *wireFormat   `json:"response_format,omitempty"`
	Temperature    *float64      `json:"temperature,omitempty"`
	MaxTokens      *int          `json:"max_tokens,omitempty"`
}

type wireMessage struct {
	Role string `json:"role"`
	// A string for single-block text, else a list of typed parts.
	Content any `json:"content"`
}

type wirePart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type wireFormat struct {
	Type string `json:"type"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *driver.Usage `json:"usage,omitempty"`
}

// apiError is the error body the API returns on non-2xx statuses.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

var errNoChoices = errors.New("empty response choices")

func encodeRequest(req *driver.Request) (*completionRequest, error) {
	switch {
	case req == nil:
		return nil, errors.New("request is required")
	case strings.TrimSpace(req.Model) == "":
		return nil, errors.New("model is required")
	case len(req.Messages) == 0:
		return nil, errors.New("messages are required")
	}

	out := &completionRequest{
		Model:       req.Model,
		Messages:    make([]wireMessage, len(req.Messages)),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	for i, msg := range req.Messages {
		body, err := encodeContent(msg.Content)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		out.Messages[i] = wireMessage{Role: msg.Role, Content: body}
	}
	if rf := req.ResponseFormat; rf != nil && strings.TrimSpace(rf.Type) != "" {
		out.ResponseFormat = &wireFormat{Type: rf.Type}
	}
	return out, nil
}

func encodeContent(blocks []content.ContentBlock) (any, error) {
	for _, block := range blocks {
		if block.Type != content.ContentTypeText {
			return nil, fmt.Errorf("unsupported content type: %s", block.Type)
		}
	}
	switch len(blocks) {
	case 0:
		return "", nil
	case 1:
		return blocks[0].Text, nil
	}
	parts := make([]wirePart, len(blocks))
	for i, block := range blocks {
		parts[i] = wirePart{Type: "text", Text: block.Text}
	}
	return parts, nil
}

func decodeResponse(body []byte) (*driver.Response, error) {
	var parsed completionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, errNoChoices
	}
	first := parsed.Choices[0]
	return &driver.Response{
		Content:      []content.ContentBlock{{Type: content.ContentTypeText, Text: first.Message.Content}},
		FinishReason: first.FinishReason,
		Usage:        parsed.Usage,
	}, nil
}

// errorMessage prefers the API's error.message and falls back to the raw
// body text.
func errorMessage(body []byte) string {
	var parsed apiError
	if json.Unmarshal(body, &parsed) == nil && strings.TrimSpace(parsed.Error.Message) != "" {
		return strings.TrimSpace(parsed.Error.Message)
	}
	return strings.TrimSpace(string(body))
}
