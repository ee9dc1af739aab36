package digest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/fernwood/slackbrief/internal/chat"
)

type fakeSource struct {
	messages      map[string][]chat.Message
	conversations []chat.Conversation
	listErr       error
	lookups       int
}

func (f *fakeSource) ListMessages(ctx context.Context, channelID string, oldest time.Time, limit int) ([]chat.Message, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.messages[channelID], nil
}

func (f *fakeSource) ListIMChannels(ctx context.Context) ([]chat.Conversation, error) {
	return f.conversations, nil
}

func (f *fakeSource) OpenDM(ctx context.Context, userID string) (string, error) {
	for _, conv := range f.conversations {
		if conv.PeerUserID == userID {
			return conv.ChannelID, nil
		}
	}
	return "", fmt.Errorf("no im channel for %s", userID)
}

func (f *fakeSource) DisplayName(ctx context.Context, userID string) (string, error) {
	f.lookups++
	return "User " + userID, nil
}

func newTestPipeline(t *testing.T, source Source, llmText string) *Pipeline {
	t.Helper()
	s, err := NewSummarizer(&fakeLLM{text: llmText}, "test-model")
	if err != nil {
		t.Fatalf("NewSummarizer() error = %v", err)
	}
	p, err := NewPipeline(source, s, slog.Default())
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	return p
}

func TestPipelineMergesAllIMConversations(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		conversations: []chat.Conversation{
			{ChannelID: "D1", PeerUserID: "U1"},
			{ChannelID: "D2", PeerUserID: "U2"},
		},
		messages: map[string][]chat.Message{
			"D1": {{Text: "later message from dm one", UserID: "U1", Timestamp: 200}},
			"D2": {{Text: "earlier message from dm two", UserID: "U2", Timestamp: 100}},
		},
	}
	p := newTestPipeline(t, source, "- summary body")
	report := p.DirectMessages(context.Background(), 1, "all")

	if report.MessageCount != 2 {
		t.Fatalf("message count mismatch: got %d want 2", report.MessageCount)
	}
	if report.Summary.Kind != ResultOK {
		t.Fatalf("kind mismatch: got %q want %q", report.Summary.Kind, ResultOK)
	}
	if !strings.Contains(report.Body, "All Direct Messages (last day)") {
		t.Fatalf("label missing from body:\n%s", report.Body)
	}
}

func TestPipelineSinglePeer(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		conversations: []chat.Conversation{{ChannelID: "D9", PeerUserID: "U9"}},
		messages: map[string][]chat.Message{
			"D9": {{Text: "hello from the single peer", UserID: "U9", Timestamp: 10}},
		},
	}
	p := newTestPipeline(t, source, "- peer summary")
	report := p.DirectMessages(context.Background(), 3, "U9")

	if report.MessageCount != 1 {
		t.Fatalf("message count mismatch: got %d want 1", report.MessageCount)
	}
	if !strings.Contains(report.Body, "Direct Messages (last 3 days)") {
		t.Fatalf("label missing from body:\n%s", report.Body)
	}
	if !strings.Contains(report.Body, "- peer summary") {
		t.Fatalf("summary missing from body:\n%s", report.Body)
	}
}

func TestPipelineFetchErrorRecoversToNoMessages(t *testing.T) {
	t.Parallel()

	source := &fakeSource{listErr: fmt.Errorf("channel_not_found")}
	p := newTestPipeline(t, source, "unused")
	report := p.Channel(context.Background(), "C1", 1)

	if report.MessageCount != 0 {
		t.Fatalf("message count mismatch: got %d want 0", report.MessageCount)
	}
	if report.Summary.Kind != ResultRecovered {
		t.Fatalf("kind mismatch: got %q want %q", report.Summary.Kind, ResultRecovered)
	}
	if !strings.Contains(report.Body, "No messages to summarize.") {
		t.Fatalf("recovered text missing from body:\n%s", report.Body)
	}
	if !strings.Contains(report.Body, "*Time range:* No messages") {
		t.Fatalf("time range missing from body:\n%s", report.Body)
	}
}

func TestPipelineMemoizesNameLookups(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		messages: map[string][]chat.Message{
			"C1": {
				{Text: "first message with substance", UserID: "U1", Timestamp: 1},
				{Text: "second message with substance", UserID: "U1", Timestamp: 2},
				{Text: "third message with substance", UserID: "U1", Timestamp: 3},
			},
		},
	}
	p := newTestPipeline(t, source, "- ok")
	_ = p.Channel(context.Background(), "C1", 1)

	if source.lookups != 1 {
		t.Fatalf("lookup count mismatch: got %d want 1", source.lookups)
	}
}
