package cli

import (
	"os"

	"github.com/spf13/cobra"

	"document-quiz/internal/config"
	"document-quiz/internal/helper"
)

var (
	configPath string
	logLevel   string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "./configs/config.yaml"
	}

	cmd := &cobra.Command{
		Use:           "document-quiz",
		Short:         "Quiz generation and question answering over uploaded documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewQuizCmd())
	cmd.AddCommand(NewAskCmd())
	cmd.AddCommand(NewInitDBCmd())
	return cmd
}

// loadConfig reads the config and sets up logging on stderr so command
// output on stdout stays machine readable.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	helper.SetupLogger(level, cmd.ErrOrStderr())
	return cfg, nil
}
