// Package servecmd runs the HTTP service and the optional daily digest job.
package servecmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/fernwood/slackbrief/internal/app"
	"github.com/fernwood/slackbrief/internal/configutil"
	"github.com/fernwood/slackbrief/internal/dispatch"
	"github.com/fernwood/slackbrief/internal/httpapi"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP endpoints and, if enabled, the daily digest job",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.Default()
			runtime, err := app.Build(cmd.Context(), logger)
			if err != nil {
				return err
			}

			listen := strings.TrimSpace(configutil.FlagOrViperString(cmd, "listen", "listen"))
			if listen == "" {
				listen = ":8080"
			}

			srv, err := httpapi.StartServer(cmd.Context(), logger, httpapi.ServerOptions{
				Listen: listen,
				Routes: httpapi.Options{
					Logger:        logger,
					SelfUserID:    runtime.SelfUserID,
					Coordinator:   runtime.Coordinator,
					DigestDMs:     runtime.Pipeline.DirectMessages,
					DigestChannel: runtime.Pipeline.Channel,
				},
			})
			if err != nil {
				return err
			}
			defer func() { _ = srv.Close() }()

			if configutil.FlagOrViperBool(cmd, "daily", "daily.enabled") {
				schedule := strings.TrimSpace(configutil.FlagOrViperString(cmd, "daily-schedule", "daily.schedule"))
				days := configutil.FlagOrViperInt(cmd, "days", "window.days")
				stopCron, err := startDailyJob(runtime, schedule, days)
				if err != nil {
					return err
				}
				defer stopCron()
			}

			logger.Info("serve_start", "listen", listen, "self_user_id", runtime.SelfUserID)
			<-cmd.Context().Done()
			logger.Info("serve_stop", "reason", "context_canceled")
			return nil
		},
	}

	cmd.Flags().String("listen", ":8080", "HTTP listen address.")
	cmd.Flags().Bool("daily", false, "Enable the recurring daily digest job.")
	cmd.Flags().String("daily-schedule", "0 18 * * *", "Cron expression for the daily digest job.")
	cmd.Flags().Int("days", 1, "Trailing window in days for the daily digest.")
	return cmd
}

// startDailyJob schedules a recurring digest of all DM conversations,
// delivered as a self-DM. Each run is independent; a failed run only logs.
func startDailyJob(runtime *app.Runtime, schedule string, days int) (func(), error) {
	if strings.TrimSpace(schedule) == "" {
		return nil, fmt.Errorf("daily schedule is required")
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx := context.Background()
		report := runtime.Pipeline.DirectMessages(ctx, days, "all")
		target := dispatch.Target{UserID: runtime.SelfUserID}
		if err := runtime.Coordinator.Deliver(ctx, target, report.Body); err != nil {
			runtime.Logger.Warn("daily_digest_delivery_error", "error", err.Error())
			return
		}
		runtime.Logger.Info("daily_digest_delivered",
			"messages", report.MessageCount,
			"summary_kind", string(report.Summary.Kind),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule daily digest: %w", err)
	}
	c.Start()
	runtime.Logger.Info("daily_digest_scheduled", "schedule", schedule, "days", days)
	return func() { c.Stop() }, nil
}
