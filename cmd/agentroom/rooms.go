package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentroom"
)

func newRoomsCmd(flags *globalFlags) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "List the rooms found in the rooms directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}

			app, err := agentroom.New(cfg)
			if err != nil {
				return err
			}

			rooms := app.Registry().List()
			out := cmd.OutOrStdout()

			if jsonOutput {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(rooms)
			}

			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ROOM\tEMOJI\tAGENTS")

			for _, r := range rooms {
				names := make([]string, len(r.Agents))
				for i, a := range r.Agents {
					names[i] = a.Emoji + " " + a.Name
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, r.Emoji, strings.Join(names, ", "))
			}

			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")

	return cmd
}
