// Package dispatch runs the deferred-delivery choreography: the HTTP handler
// acknowledges a command synchronously, then a detached job finishes the real
// work and pushes the result to its delivery target.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Job states, in order. Terminal states are delivered and delivery_failed.
const (
	StateReceived       = "received"
	StateAcknowledged   = "acknowledged"
	StateProcessing     = "processing"
	StateDelivered      = "delivered"
	StateDeliveryFailed = "delivery_failed"
)

const failureNotice = "Sorry, generating your summary failed. Please try again later."

// Target is where a finished job's result goes, in priority order: the
// single-use callback URL, then a direct channel post, then a DM opened to
// the user.
type Target struct {
	CallbackURL string
	ChannelID   string
	UserID      string
}

// Envelope wraps text for a callback post. ResponseType follows the Slack
// response_url contract ("in_channel" or "ephemeral").
type Envelope struct {
	ResponseType string `json:"response_type"`
	Text         string `json:"text"`
}

// Sink is the delivery side of the Slack client.
type Sink interface {
	PostMessage(ctx context.Context, channelID, text string) error
	OpenDM(ctx context.Context, userID string) (string, error)
	PostToCallback(ctx context.Context, url string, env Envelope) error
}

// WorkFunc produces the deliverable text. An error here means nothing was
// produced; the coordinator then attempts a short failure notice instead.
type WorkFunc func(ctx context.Context) (string, error)

type Coordinator struct {
	sink   Sink
	logger *slog.Logger
}

func NewCoordinator(sink Sink, logger *slog.Logger) (*Coordinator, error) {
	if sink == nil {
		return nil, fmt.Errorf("sink is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{sink: sink, logger: logger}, nil
}

// Dispatch schedules work for a target and returns immediately; the returned
// job ID only serves log correlation. The caller sends its synchronous
// acknowledgment before or right after this call; nothing here blocks on
// external I/O. Failures inside the detached job never propagate: there is no
// live request to report to once the acknowledgment has gone out.
func (c *Coordinator) Dispatch(target Target, work WorkFunc) string {
	jobID := "job_" + uuid.NewString()
	c.logger.Info("dispatch_ack", "job_id", jobID, "state", StateAcknowledged)
	go c.run(jobID, target, work)
	return jobID
}

func (c *Coordinator) run(jobID string, target Target, work WorkFunc) {
	// Detached from the request lifecycle on purpose: no timeout, no
	// cancellation. If the process dies first, the result is lost.
	ctx := context.Background()
	c.logger.Info("dispatch_processing", "job_id", jobID, "state", StateProcessing)

	text, err := work(ctx)
	if err != nil {
		c.logger.Warn("dispatch_work_error", "job_id", jobID, "error", err.Error())
		c.deliverFailureNotice(ctx, jobID, target)
		return
	}
	if err := c.Deliver(ctx, target, text); err != nil {
		c.logger.Warn("dispatch_delivery_error", "job_id", jobID, "error", err.Error())
		c.deliverFailureNotice(ctx, jobID, target)
		return
	}
	c.logger.Info("dispatch_delivered", "job_id", jobID, "state", StateDelivered)
}

// Deliver pushes text to the target. The callback URL is tried once; any
// callback failure falls back to a direct post.
func (c *Coordinator) Deliver(ctx context.Context, target Target, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("empty delivery text")
	}
	if url := strings.TrimSpace(target.CallbackURL); url != "" {
		err := c.sink.PostToCallback(ctx, url, Envelope{ResponseType: "in_channel", Text: text})
		if err == nil {
			return nil
		}
		c.logger.Warn("dispatch_callback_error", "error", err.Error())
	}
	return c.deliverDirect(ctx, target, text)
}

func (c *Coordinator) deliverDirect(ctx context.Context, target Target, text string) error {
	if channelID := strings.TrimSpace(target.ChannelID); channelID != "" {
		return c.sink.PostMessage(ctx, channelID, text)
	}
	userID := strings.TrimSpace(target.UserID)
	if userID == "" {
		return fmt.Errorf("target has no channel or user")
	}
	channelID, err := c.sink.OpenDM(ctx, userID)
	if err != nil {
		return fmt.Errorf("open dm for %s: %w", userID, err)
	}
	return c.sink.PostMessage(ctx, channelID, text)
}

// deliverFailureNotice is the best-effort second attempt. If this one fails
// too, the job ends terminal and silent to the end user.
func (c *Coordinator) deliverFailureNotice(ctx context.Context, jobID string, target Target) {
	if err := c.Deliver(ctx, target, failureNotice); err != nil {
		c.logger.Warn("dispatch_failure_notice_error", "job_id", jobID, "state", StateDeliveryFailed, "error", err.Error())
		return
	}
	c.logger.Info("dispatch_failure_notice_sent", "job_id", jobID, "state", StateDeliveryFailed)
}
