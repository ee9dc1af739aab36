// Package app builds the wired service runtime from configuration: Slack
// client, completion client, digest pipeline, and delivery coordinator.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/fernwood/slackbrief/internal/digest"
	"github.com/fernwood/slackbrief/internal/dispatch"
	"github.com/fernwood/slackbrief/internal/slackclient"
	openaiprovider "github.com/fernwood/slackbrief/providers/openai"
)

type Runtime struct {
	Logger      *slog.Logger
	Slack       *slackclient.Client
	Pipeline    *digest.Pipeline
	Coordinator *dispatch.Coordinator
	SelfUserID  string
}

// Build constructs every invocation-scoped collaborator once per process.
// The Slack client is explicit and passed down; nothing here is a package
// singleton.
func Build(ctx context.Context, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}

	slackToken := strings.TrimSpace(viper.GetString("slack.user_token"))
	if slackToken == "" {
		return nil, fmt.Errorf("missing slack.user_token (set SLACKBRIEF_SLACK_USER_TOKEN)")
	}
	slackAPI, err := slackclient.New(slackToken)
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(viper.GetString("openai.api_key"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing openai.api_key (set SLACKBRIEF_OPENAI_API_KEY)")
	}
	model := strings.TrimSpace(viper.GetString("openai.model"))
	timeout := viper.GetDuration("openai.request_timeout")
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	completion, err := openaiprovider.New(apiKey, model, timeout)
	if err != nil {
		return nil, err
	}

	summarizer, err := digest.NewSummarizer(completion, model)
	if err != nil {
		return nil, err
	}
	pipeline, err := digest.NewPipeline(slackAPI, summarizer, logger)
	if err != nil {
		return nil, err
	}
	coordinator, err := dispatch.NewCoordinator(slackAPI, logger)
	if err != nil {
		return nil, err
	}

	selfUserID := strings.TrimSpace(viper.GetString("self_user_id"))
	if selfUserID == "" {
		selfUserID, err = slackAPI.CallerIdentity(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve caller identity: %w", err)
		}
	}

	return &Runtime{
		Logger:      logger,
		Slack:       slackAPI,
		Pipeline:    pipeline,
		Coordinator: coordinator,
		SelfUserID:  selfUserID,
	}, nil
}
