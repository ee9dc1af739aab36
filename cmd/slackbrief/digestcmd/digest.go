// Package digestcmd runs one digest from the command line, printing the
// result or delivering it as a self-DM.
package digestcmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fernwood/slackbrief/internal/app"
	"github.com/fernwood/slackbrief/internal/configutil"
	"github.com/fernwood/slackbrief/internal/dispatch"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Run one DM digest and print it (or deliver it as a self-DM)",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.Default()
			runtime, err := app.Build(cmd.Context(), logger)
			if err != nil {
				return err
			}

			days := configutil.FlagOrViperInt(cmd, "days", "window.days")
			peer := configutil.FlagOrViperString(cmd, "peer", "")
			deliver := configutil.FlagOrViperBool(cmd, "deliver", "")

			report := runtime.Pipeline.DirectMessages(cmd.Context(), days, peer)
			logger.Info("digest_done",
				"messages", report.MessageCount,
				"summary_kind", string(report.Summary.Kind),
			)

			if !deliver {
				fmt.Fprintln(cmd.OutOrStdout(), report.Body)
				return nil
			}
			target := dispatch.Target{UserID: runtime.SelfUserID}
			if err := runtime.Coordinator.Deliver(cmd.Context(), target, report.Body); err != nil {
				return fmt.Errorf("deliver digest: %w", err)
			}
			logger.Info("digest_delivered", "user_id", runtime.SelfUserID)
			return nil
		},
	}

	cmd.Flags().Int("days", 1, "Trailing window in days.")
	cmd.Flags().String("peer", "all", "Peer user ID to digest, or \"all\" for every DM conversation.")
	cmd.Flags().Bool("deliver", false, "Send the digest as a self-DM instead of printing it.")
	return cmd
}
