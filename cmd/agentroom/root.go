package main

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/agentroom/config"
)

type globalFlags struct {
	configPath string
	roomsDir   string
	provider   string
	model      string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:           "agentroom",
		Short:         "Multi-agent chat rooms over WebSocket",
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "path to the server config file")
	pf.StringVar(&flags.roomsDir, "rooms-dir", "", "directory with room YAML files")
	pf.StringVar(&flags.provider, "provider", "", "model provider (openai, ollama, anthropic, mock)")
	pf.StringVar(&flags.model, "model", "", "model name")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCmd(flags),
		newRoomsCmd(flags),
		newChatCmd(flags),
	)

	return cmd
}

// load resolves the config and applies flags that were set explicitly.
func (f *globalFlags) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.NewLoader().WithConfigPath(f.configPath).Load()
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed

	if changed("rooms-dir") {
		cfg.RoomsDir = f.roomsDir
	}

	if changed("provider") {
		cfg.Provider = f.provider
	}

	if changed("model") {
		cfg.Model = f.model
	}

	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
