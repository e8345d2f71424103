package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/logan/usecasehub/internal/workflow"
)

var transitionsJSON bool

var transitionsCmd = &cobra.Command{
	Use:   "transitions [status]",
	Short: "Print the use-case status workflow",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		statuses := workflow.All()
		if len(args) == 1 {
			s, err := workflow.Parse(args[0])
			if err != nil {
				return err
			}
			statuses = []workflow.Status{s}
		}

		out := cmd.OutOrStdout()
		if transitionsJSON {
			table := make(map[workflow.Status][]workflow.Status, len(statuses))
			for _, s := range statuses {
				table[s] = workflow.AllowedNextStates(s)
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(table)
		}

		for _, s := range statuses {
			next := workflow.AllowedNextStates(s)
			names := make([]string, len(next))
			for i, n := range next {
				names[i] = string(n)
			}
			target := strings.Join(names, ", ")
			if s.Terminal() {
				target = "(terminal; restore returns it to new)"
			}
			fmt.Fprintf(out, "%-12s -> %s\n", s, target)
		}
		return nil
	},
}

func init() {
	transitionsCmd.Flags().BoolVar(&transitionsJSON, "json", false, "print as JSON")
}
