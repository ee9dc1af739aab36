// Package digest turns fetched conversations into a delivered summary block:
// transcript -> completion call -> rendered report.
package digest

import (
	"context"
	"fmt"
	"strings"

	"github.com/fernwood/slackbrief/internal/chat"
	"github.com/fernwood/slackbrief/llm"
)

const (
	summaryMaxTokens   = 300
	summaryTemperature = 0.3
)

const (
	textNoMessages   = "No messages to summarize."
	textNoMeaningful = "No meaningful messages found to summarize."
	textQuota        = "AI summary unavailable: the completion quota has been exceeded."
	textBadCreds     = "AI summary unavailable: the completion service rejected the configured credentials."
)

// ResultKind distinguishes a real model summary from a recovered user-facing
// notice. The delivered payload is Text either way; the kind exists so the
// rest of the system can tell an apology apart from a summary.
type ResultKind string

const (
	ResultOK        ResultKind = "ok"
	ResultRecovered ResultKind = "recovered"
)

type Result struct {
	Kind ResultKind
	Text string
}

type Summarizer struct {
	client llm.Client
	model  string
}

func NewSummarizer(client llm.Client, model string) (*Summarizer, error) {
	if client == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	return &Summarizer{client: client, model: model}, nil
}

// Summarize produces the summary text for a set of messages. It never returns
// an error: completion failures are mapped to one of three fixed user-safe
// notices and become the deliverable themselves. No retries.
func (s *Summarizer) Summarize(ctx context.Context, msgs []chat.Message, label string, resolve chat.NameResolver) Result {
	if len(msgs) == 0 {
		return Result{Kind: ResultRecovered, Text: textNoMessages}
	}
	transcript := chat.FormatTranscript(msgs, resolve)
	if transcript == "" {
		return Result{Kind: ResultRecovered, Text: textNoMeaningful}
	}

	res, err := s.client.Chat(ctx, llm.Request{
		Model:       s.model,
		MaxTokens:   summaryMaxTokens,
		Temperature: summaryTemperature,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: userPrompt(label, transcript)},
		},
	})
	if err != nil {
		return Result{Kind: ResultRecovered, Text: recoveredText(err)}
	}
	text := strings.TrimSpace(res.Text)
	if text == "" {
		return Result{Kind: ResultRecovered, Text: recoveredText(fmt.Errorf("empty completion response"))}
	}
	return Result{Kind: ResultOK, Text: text}
}

const systemPrompt = "You are a helpful assistant that summarizes Slack conversations. " +
	"Be concise and factual. Use short bullet points."

func userPrompt(label, transcript string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		label = "conversation"
	}
	return fmt.Sprintf(`Summarize the following Slack %s. Include:
1. Main topics discussed
2. Key decisions made
3. Action items mentioned
4. Any important information shared

Conversation:
%s`, label, transcript)
}

func recoveredText(err error) string {
	switch llm.CodeOf(err) {
	case llm.ErrorCodeQuotaExceeded:
		return textQuota
	case llm.ErrorCodeInvalidCredentials:
		return textBadCreds
	default:
		return "Error generating AI summary: " + strings.TrimSpace(err.Error())
	}
}
