package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentroom"
	"github.com/hupe1980/agentroom/core"
)

func newChatCmd(flags *globalFlags) *cobra.Command {
	var showHints bool

	cmd := &cobra.Command{
		Use:   "chat <room> <message>",
		Short: "Run one turn loop in a room and print the agent replies",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}

			app, err := agentroom.New(cfg)
			if err != nil {
				return err
			}

			envs, err := app.InvokeSync(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}

			printTranscript(cmd, envs, showHints)

			return nil
		},
	}

	cmd.Flags().BoolVar(&showHints, "hints", false, "print selection and termination decisions")

	return cmd
}

// printTranscript prints the last snapshot of every iteration.
func printTranscript(cmd *cobra.Command, envs []*core.Envelope, showHints bool) {
	out := cmd.OutOrStdout()

	for i, env := range envs {
		if i+1 < len(envs) && !envs[i+1].IsNewAgent {
			continue
		}

		if reply, ok := env.Stage(core.StageAgent); ok {
			fmt.Fprintf(out, "%s: %s\n", env.AgentName, reply.Content)
		}

		if !showHints {
			continue
		}

		for _, stage := range []core.Stage{core.StageSelectDecision, core.StageTerminateDecision} {
			if p, ok := env.Stage(stage); ok {
				fmt.Fprintf(out, "  [%s] %s\n", stage, p.Content)
			}
		}
	}
}
