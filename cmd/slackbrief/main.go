package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fernwood/slackbrief/cmd/slackbrief/digestcmd"
	"github.com/fernwood/slackbrief/cmd/slackbrief/servecmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string
	root := &cobra.Command{
		Use:           "slackbrief",
		Short:         "Summarize Slack conversations with an LLM and deliver the digest back into Slack",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(configFile); err != nil {
				return err
			}
			slog.SetDefault(newLogger())
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "Config file path (YAML). Defaults to ./slackbrief.yaml if present.")

	root.AddCommand(servecmd.New())
	root.AddCommand(digestcmd.New())
	return root
}

func initConfig(configFile string) error {
	viper.SetEnvPrefix("SLACKBRIEF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("listen", ":8080")
	viper.SetDefault("openai.model", "gpt-4o-mini")
	viper.SetDefault("daily.enabled", false)
	viper.SetDefault("daily.schedule", "0 18 * * *")
	viper.SetDefault("window.days", 1)
	viper.SetDefault("log.level", "info")

	if strings.TrimSpace(configFile) != "" {
		viper.SetConfigFile(configFile)
		return viper.ReadInConfig()
	}
	viper.SetConfigName("slackbrief")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(strings.TrimSpace(viper.GetString("log.level"))) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
