// Package slackclient wraps the Slack Web API for the two roles this service
// needs: message source (history, IM list, user lookup) and delivery sink
// (channel posts, DMs, response_url webhooks).
package slackclient

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"github.com/fernwood/slackbrief/internal/chat"
	"github.com/fernwood/slackbrief/internal/dispatch"
)

type Client struct {
	api *slack.Client
}

func New(token string, opts ...slack.Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("slack token is required")
	}
	return &Client{api: slack.New(token, opts...)}, nil
}

// ListMessages fetches a channel's history since oldest and keeps only
// eligible messages: human-authored, non-empty text.
func (c *Client) ListMessages(ctx context.Context, channelID string, oldest time.Time, limit int) ([]chat.Message, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return nil, fmt.Errorf("channel_id is required")
	}
	if limit <= 0 {
		limit = 100
	}
	resp, err := c.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Oldest:    strconv.FormatInt(oldest.Unix(), 10),
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("slack conversations.history: %w", err)
	}
	out := make([]chat.Message, 0, len(resp.Messages))
	for _, raw := range resp.Messages {
		msg := chat.Message{
			Text:      raw.Text,
			UserID:    raw.User,
			Timestamp: parseSlackTS(raw.Timestamp),
			IsBot:     raw.BotID != "" || raw.SubType == "bot_message",
		}
		if !msg.Eligible() {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

// ListIMChannels pages through the caller's direct-message conversations.
func (c *Client) ListIMChannels(ctx context.Context) ([]chat.Conversation, error) {
	var out []chat.Conversation
	cursor := ""
	for {
		channels, next, err := c.api.GetConversationsContext(ctx, &slack.GetConversationsParameters{
			Types:  []string{"im"},
			Limit:  200,
			Cursor: cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("slack conversations.list: %w", err)
		}
		for _, ch := range channels {
			out = append(out, chat.Conversation{
				ChannelID:  ch.ID,
				PeerUserID: ch.User,
			})
		}
		cursor = strings.TrimSpace(next)
		if cursor == "" {
			return out, nil
		}
	}
}

func (c *Client) OpenDM(ctx context.Context, userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("user_id is required")
	}
	channel, _, _, err := c.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users:    []string{userID},
		ReturnIM: true,
	})
	if err != nil {
		return "", fmt.Errorf("slack conversations.open: %w", err)
	}
	if channel == nil || strings.TrimSpace(channel.ID) == "" {
		return "", fmt.Errorf("slack conversations.open returned no channel")
	}
	return channel.ID, nil
}

// DisplayName resolves a user's preferred name: profile display name first,
// then real name, then the account name.
func (c *Client) DisplayName(ctx context.Context, userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("user_id is required")
	}
	user, err := c.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("slack users.info: %w", err)
	}
	for _, candidate := range []string{user.Profile.DisplayName, user.RealName, user.Name} {
		if name := strings.TrimSpace(candidate); name != "" {
			return name, nil
		}
	}
	return "", fmt.Errorf("user %s has no usable name", userID)
}

// CallerIdentity returns the authed user's ID via auth.test.
func (c *Client) CallerIdentity(ctx context.Context) (string, error) {
	resp, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return "", fmt.Errorf("slack auth.test: %w", err)
	}
	userID := strings.TrimSpace(resp.UserID)
	if userID == "" {
		return "", fmt.Errorf("slack auth.test returned empty user_id")
	}
	return userID, nil
}

func (c *Client) PostMessage(ctx context.Context, channelID, text string) error {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return fmt.Errorf("channel_id is required")
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text is required")
	}
	_, _, err := c.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("slack chat.postMessage: %w", err)
	}
	return nil
}

// PostToCallback pushes a delivery envelope to a slash-command response_url.
func (c *Client) PostToCallback(ctx context.Context, url string, env dispatch.Envelope) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return fmt.Errorf("callback url is required")
	}
	err := slack.PostWebhookContext(ctx, url, &slack.WebhookMessage{
		ResponseType: env.ResponseType,
		Text:         env.Text,
	})
	if err != nil {
		return fmt.Errorf("slack response_url post: %w", err)
	}
	return nil
}

func parseSlackTS(raw string) float64 {
	ts, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return ts
}
