package digest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/fernwood/slackbrief/internal/chat"
	"github.com/fernwood/slackbrief/llm"
)

type fakeLLM struct {
	calls []llm.Request
	text  string
	err   error
}

func (f *fakeLLM) Chat(ctx context.Context, req llm.Request) (llm.Response, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Text: f.text}, nil
}

func namesOf(names map[string]string) chat.NameResolver {
	return func(userID string) (string, error) {
		name, ok := names[userID]
		if !ok {
			return "", fmt.Errorf("no such user: %s", userID)
		}
		return name, nil
	}
}

func TestSummarizeEmptyInputSkipsLLM(t *testing.T) {
	t.Parallel()

	client := &fakeLLM{text: "unused"}
	s, err := NewSummarizer(client, "test-model")
	if err != nil {
		t.Fatalf("NewSummarizer() error = %v", err)
	}
	got := s.Summarize(context.Background(), nil, "direct messages", namesOf(nil))
	if got.Text != "No messages to summarize." {
		t.Fatalf("text mismatch: got %q want %q", got.Text, "No messages to summarize.")
	}
	if got.Kind != ResultRecovered {
		t.Fatalf("kind mismatch: got %q want %q", got.Kind, ResultRecovered)
	}
	if len(client.calls) != 0 {
		t.Fatalf("llm calls mismatch: got %d want 0", len(client.calls))
	}
}

func TestSummarizeEmptyTranscriptSkipsLLM(t *testing.T) {
	t.Parallel()

	client := &fakeLLM{text: "unused"}
	s, err := NewSummarizer(client, "test-model")
	if err != nil {
		t.Fatalf("NewSummarizer() error = %v", err)
	}
	msgs := []chat.Message{
		{Text: ":wave:", UserID: "U1", Timestamp: 1},
		{Text: "ok", UserID: "U2", Timestamp: 2},
	}
	got := s.Summarize(context.Background(), msgs, "direct messages", namesOf(map[string]string{"U1": "Ana", "U2": "Bo"}))
	if got.Text != "No meaningful messages found to summarize." {
		t.Fatalf("text mismatch: got %q", got.Text)
	}
	if got.Kind != ResultRecovered {
		t.Fatalf("kind mismatch: got %q want %q", got.Kind, ResultRecovered)
	}
	if len(client.calls) != 0 {
		t.Fatalf("llm calls mismatch: got %d want 0", len(client.calls))
	}
}

func TestSummarizeBuildsPromptAndParams(t *testing.T) {
	t.Parallel()

	client := &fakeLLM{text: "- the team shipped the release"}
	s, err := NewSummarizer(client, "test-model")
	if err != nil {
		t.Fatalf("NewSummarizer() error = %v", err)
	}
	msgs := []chat.Message{
		{Text: "release is tagged and ready", UserID: "U1", Timestamp: 1},
		{Text: "deploying it after lunch then", UserID: "U2", Timestamp: 2},
	}
	got := s.Summarize(context.Background(), msgs, "channel conversation", namesOf(map[string]string{"U1": "Ana", "U2": "Bo"}))
	if got.Kind != ResultOK {
		t.Fatalf("kind mismatch: got %q want %q", got.Kind, ResultOK)
	}
	if got.Text != "- the team shipped the release" {
		t.Fatalf("text mismatch: got %q", got.Text)
	}
	if len(client.calls) != 1 {
		t.Fatalf("llm calls mismatch: got %d want 1", len(client.calls))
	}
	req := client.calls[0]
	if req.MaxTokens != 300 {
		t.Fatalf("max tokens mismatch: got %d want 300", req.MaxTokens)
	}
	if req.Temperature != 0.3 {
		t.Fatalf("temperature mismatch: got %v want 0.3", req.Temperature)
	}
	if len(req.Messages) != 2 {
		t.Fatalf("message count mismatch: got %d want 2", len(req.Messages))
	}
	if req.Messages[0].Role != llm.RoleSystem {
		t.Fatalf("first role mismatch: got %q want system", req.Messages[0].Role)
	}
	user := req.Messages[1].Content
	for _, want := range []string{
		"Main topics discussed",
		"Key decisions made",
		"Action items mentioned",
		"channel conversation",
		"Ana: release is tagged and ready",
		"Bo: deploying it after lunch then",
	} {
		if !strings.Contains(user, want) {
			t.Fatalf("user prompt missing %q:\n%s", want, user)
		}
	}
}

func TestSummarizeMapsQuotaError(t *testing.T) {
	t.Parallel()

	client := &fakeLLM{err: llm.NewError(llm.ErrorCodeQuotaExceeded, "insufficient_quota")}
	s, err := NewSummarizer(client, "test-model")
	if err != nil {
		t.Fatalf("NewSummarizer() error = %v", err)
	}
	msgs := []chat.Message{{Text: "long enough message text", UserID: "U1", Timestamp: 1}}
	got := s.Summarize(context.Background(), msgs, "direct messages", namesOf(map[string]string{"U1": "Ana"}))
	if got.Kind != ResultRecovered {
		t.Fatalf("kind mismatch: got %q want %q", got.Kind, ResultRecovered)
	}
	if got.Text != textQuota {
		t.Fatalf("text mismatch: got %q want %q", got.Text, textQuota)
	}
}

func TestSummarizeMapsCredentialError(t *testing.T) {
	t.Parallel()

	client := &fakeLLM{err: llm.NewError(llm.ErrorCodeInvalidCredentials, "invalid_api_key")}
	s, err := NewSummarizer(client, "test-model")
	if err != nil {
		t.Fatalf("NewSummarizer() error = %v", err)
	}
	msgs := []chat.Message{{Text: "long enough message text", UserID: "U1", Timestamp: 1}}
	got := s.Summarize(context.Background(), msgs, "direct messages", namesOf(map[string]string{"U1": "Ana"}))
	if got.Text != textBadCreds {
		t.Fatalf("text mismatch: got %q want %q", got.Text, textBadCreds)
	}
}

func TestSummarizeMapsGenericError(t *testing.T) {
	t.Parallel()

	client := &fakeLLM{err: fmt.Errorf("connection reset")}
	s, err := NewSummarizer(client, "test-model")
	if err != nil {
		t.Fatalf("NewSummarizer() error = %v", err)
	}
	msgs := []chat.Message{{Text: "long enough message text", UserID: "U1", Timestamp: 1}}
	got := s.Summarize(context.Background(), msgs, "direct messages", namesOf(map[string]string{"U1": "Ana"}))
	want := "Error generating AI summary: connection reset"
	if got.Text != want {
		t.Fatalf("text mismatch: got %q want %q", got.Text, want)
	}
	if got.Kind != ResultRecovered {
		t.Fatalf("kind mismatch: got %q want %q", got.Kind, ResultRecovered)
	}
}
