package digest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fernwood/slackbrief/internal/chat"
)

// fetchLimit caps how many messages are pulled per conversation. The
// transcript window is applied later; the extra headroom keeps activity
// stats meaningful.
const fetchLimit = 200

// Source is the message-fetch side of the Slack client. Lookup failures on
// individual users never fail a digest; fetch failures degrade to an empty
// message set so the pipeline reports "no messages" instead of an error.
type Source interface {
	ListMessages(ctx context.Context, channelID string, oldest time.Time, limit int) ([]chat.Message, error)
	ListIMChannels(ctx context.Context) ([]chat.Conversation, error)
	OpenDM(ctx context.Context, userID string) (string, error)
	DisplayName(ctx context.Context, userID string) (string, error)
}

// Report is one finished digest run. Body is the deliverable; Summary keeps
// the ok/recovered distinction for logging and monitoring.
type Report struct {
	Summary      Result
	Body         string
	MessageCount int
}

type Pipeline struct {
	source     Source
	summarizer *Summarizer
	logger     *slog.Logger
	now        func() time.Time
}

func NewPipeline(source Source, summarizer *Summarizer, logger *slog.Logger) (*Pipeline, error) {
	if source == nil {
		return nil, fmt.Errorf("source is required")
	}
	if summarizer == nil {
		return nil, fmt.Errorf("summarizer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:     source,
		summarizer: summarizer,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// DirectMessages digests the operator's DM history over the trailing window.
// peerUserID narrows the digest to one conversation; empty or "all" merges
// every IM conversation, sorted chronologically before formatting.
func (p *Pipeline) DirectMessages(ctx context.Context, days int, peerUserID string) Report {
	days = normalizeDays(days)
	oldest := p.now().Add(-time.Duration(days) * 24 * time.Hour)
	peerUserID = strings.TrimSpace(peerUserID)

	var msgs []chat.Message
	label := fmt.Sprintf("All Direct Messages (%s)", windowLabel(days))
	if peerUserID == "" || strings.EqualFold(peerUserID, "all") {
		msgs = p.fetchAllIMs(ctx, oldest)
	} else {
		label = fmt.Sprintf("Direct Messages (%s)", windowLabel(days))
		channelID, err := p.source.OpenDM(ctx, peerUserID)
		if err != nil {
			p.logger.Warn("digest_open_dm_error", "peer_user_id", peerUserID, "error", err.Error())
		} else {
			msgs = p.fetchChannel(ctx, channelID, oldest)
		}
	}
	return p.finish(ctx, msgs, label)
}

// Channel digests a single channel's history over the trailing window.
func (p *Pipeline) Channel(ctx context.Context, channelID string, days int) Report {
	days = normalizeDays(days)
	oldest := p.now().Add(-time.Duration(days) * 24 * time.Hour)
	label := fmt.Sprintf("Channel Conversation (%s)", windowLabel(days))
	msgs := p.fetchChannel(ctx, channelID, oldest)
	return p.finish(ctx, msgs, label)
}

func (p *Pipeline) finish(ctx context.Context, msgs []chat.Message, label string) Report {
	msgs = chat.SortByTimestamp(msgs)
	resolve := p.memoizedResolver(ctx)
	summary := p.summarizer.Summarize(ctx, msgs, label, resolve)
	body := Render(msgs, summary.Text, label, p.now())
	return Report{
		Summary:      summary,
		Body:         body,
		MessageCount: len(msgs),
	}
}

func (p *Pipeline) fetchAllIMs(ctx context.Context, oldest time.Time) []chat.Message {
	conversations, err := p.source.ListIMChannels(ctx)
	if err != nil {
		p.logger.Warn("digest_list_ims_error", "error", err.Error())
		return nil
	}
	var out []chat.Message
	for _, conv := range conversations {
		out = append(out, p.fetchChannel(ctx, conv.ChannelID, oldest)...)
	}
	return out
}

func (p *Pipeline) fetchChannel(ctx context.Context, channelID string, oldest time.Time) []chat.Message {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return nil
	}
	msgs, err := p.source.ListMessages(ctx, channelID, oldest, fetchLimit)
	if err != nil {
		p.logger.Warn("digest_fetch_error", "channel_id", channelID, "error", err.Error())
		return nil
	}
	return msgs
}

// memoizedResolver caches user lookups for the duration of one digest run.
// The cache is invocation-scoped; nothing is shared across runs.
func (p *Pipeline) memoizedResolver(ctx context.Context) chat.NameResolver {
	cache := make(map[string]string)
	return func(userID string) (string, error) {
		if name, ok := cache[userID]; ok {
			return name, nil
		}
		name, err := p.source.DisplayName(ctx, userID)
		if err != nil {
			return "", err
		}
		cache[userID] = name
		return name, nil
	}
}

func normalizeDays(days int) int {
	if days <= 0 {
		return 1
	}
	return days
}

func windowLabel(days int) string {
	if days == 1 {
		return "last day"
	}
	return fmt.Sprintf("last %d days", days)
}
