package cli

import (
	"fmt"
	"strings"

	filters "github.com/goliatone/go-filters"
	"github.com/spf13/cobra"
)

func newDescribeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <fields-file>",
		Short: "Show each field with its derived relations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := opts.loadFields(args[0])
			if err != nil {
				return err
			}
			descriptors := filters.Describe(fields)

			w := cmd.OutOrStdout()
			if opts.jsonOutput {
				return outputJSON(w, descriptors)
			}
			for _, desc := range descriptors {
				fmt.Fprintf(w, "%s (%s)\n", desc.Name, desc.Kind)
				if len(desc.DependsOn) > 0 {
					fmt.Fprintf(w, "  depends on: %s\n", strings.Join(desc.DependsOn, ", "))
				}
				if len(desc.Dependents) > 0 {
					fmt.Fprintf(w, "  dependents: %s\n", strings.Join(desc.Dependents, ", "))
				}
				if len(desc.Excludes) > 0 {
					fmt.Fprintf(w, "  excludes: %s\n", strings.Join(desc.Excludes, ", "))
				}
				if desc.ExclusionGroup != "" {
					fmt.Fprintf(w, "  group: %s\n", desc.ExclusionGroup)
				}
				if desc.Visibility != nil {
					fmt.Fprintf(w, "  visibility: %s %s\n", desc.Visibility.Engine, desc.Visibility.Expr)
				}
			}
			return nil
		},
	}
}
