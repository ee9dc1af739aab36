// Package configutil bridges cobra flags and viper keys: an explicitly set
// flag wins, then a non-empty config/env value, then the flag default.
package configutil

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func FlagOrViperString(cmd *cobra.Command, flagName, viperKey string) string {
	if cmd != nil && cmd.Flags().Changed(flagName) {
		value, _ := cmd.Flags().GetString(flagName)
		return value
	}
	if viperKey != "" {
		if value := viper.GetString(viperKey); value != "" {
			return value
		}
	}
	if cmd == nil {
		return ""
	}
	value, _ := cmd.Flags().GetString(flagName)
	return value
}

func FlagOrViperInt(cmd *cobra.Command, flagName, viperKey string) int {
	if cmd != nil && cmd.Flags().Changed(flagName) {
		value, _ := cmd.Flags().GetInt(flagName)
		return value
	}
	if viperKey != "" {
		if value := viper.GetInt(viperKey); value != 0 {
			return value
		}
	}
	if cmd == nil {
		return 0
	}
	value, _ := cmd.Flags().GetInt(flagName)
	return value
}

func FlagOrViperBool(cmd *cobra.Command, flagName, viperKey string) bool {
	if cmd != nil && cmd.Flags().Changed(flagName) {
		value, _ := cmd.Flags().GetBool(flagName)
		return value
	}
	if viperKey != "" && viper.GetBool(viperKey) {
		return true
	}
	if cmd == nil {
		return false
	}
	value, _ := cmd.Flags().GetBool(flagName)
	return value
}

func FlagOrViperDuration(cmd *cobra.Command, flagName, viperKey string) time.Duration {
	if cmd != nil && cmd.Flags().Changed(flagName) {
		value, _ := cmd.Flags().GetDuration(flagName)
		return value
	}
	if viperKey != "" {
		if value := viper.GetDuration(viperKey); value > 0 {
			return value
		}
	}
	if cmd == nil {
		return 0
	}
	value, _ := cmd.Flags().GetDuration(flagName)
	return value
}
