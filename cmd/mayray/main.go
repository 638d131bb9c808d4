package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/mayray/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "mayray",
	Short:   "Small HTTPS server for password protected directory downloads",
	Long: `Mayray serves a handful of fixed routes over a hand-rolled HTTP/1.1
implementation. Directories below the download root can be listed and
fetched as zip archives once their password has been entered.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		setupLogging(cfg.Env, cfg.Log.Level)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file path, repeatable (default: ./config.yaml, then ./config/server.properties)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: MAYRAY_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
