// Package openai adapts the OpenAI chat-completion API to llm.Client and
// classifies its failures into the service's fixed error buckets.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openaiapi "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/fernwood/slackbrief/llm"
)

type Client struct {
	api   openaiapi.Client
	model string
}

func New(apiKey, model string, timeout time.Duration) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, fmt.Errorf("openai model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	return &Client{api: openaiapi.NewClient(opts...), model: model}, nil
}

func (c *Client) Model() string {
	return c.model
}

func (c *Client) Chat(ctx context.Context, req llm.Request) (llm.Response, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.model
	}
	messages := make([]openaiapi.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case llm.RoleSystem:
			messages = append(messages, openaiapi.SystemMessage(m.Content))
		default:
			messages = append(messages, openaiapi.UserMessage(m.Content))
		}
	}
	params := openaiapi.ChatCompletionNewParams{
		Model:    openaiapi.ChatModel(model),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openaiapi.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openaiapi.Float(req.Temperature)
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return llm.Response{}, classify(err)
	}
	if len(resp.Choices) == 0 {
		return llm.Response{}, llm.NewError(llm.ErrorCodeOther, "completion response has no choices")
	}
	return llm.Response{Text: resp.Choices[0].Message.Content}, nil
}

func classify(err error) error {
	var apiErr *openaiapi.Error
	if errors.As(err, &apiErr) {
		detail := strings.TrimSpace(apiErr.Message)
		if detail == "" {
			detail = err.Error()
		}
		return llm.NewError(mapCode(apiErr.StatusCode, apiErr.Code), detail)
	}
	return llm.NewError(llm.ErrorCodeOther, err.Error())
}

// mapCode folds the provider's status/code pair into the three buckets the
// summarizer reacts to. 429 covers both rate limiting and exhausted quota;
// both surface to the user the same way.
func mapCode(status int, code string) llm.ErrorCode {
	switch {
	case code == "insufficient_quota" || status == http.StatusTooManyRequests:
		return llm.ErrorCodeQuotaExceeded
	case code == "invalid_api_key" || status == http.StatusUnauthorized || status == http.StatusForbidden:
		return llm.ErrorCodeInvalidCredentials
	default:
		return llm.ErrorCodeOther
	}
}
