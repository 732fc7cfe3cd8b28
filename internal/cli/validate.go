package cli

import (
	"fmt"

	filters "github.com/goliatone/go-filters"
	"github.com/spf13/cobra"
)

type warningOutput struct {
	Kind   string   `json:"kind"`
	Field  string   `json:"field"`
	Path   []string `json:"path,omitempty"`
	Detail string   `json:"detail,omitempty"`
}

type validateOutput struct {
	Fields   int             `json:"fields"`
	Warnings []warningOutput `json:"warnings"`
}

func newValidateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <fields-file>",
		Short: "Check a field registry for misconfigurations",
		Long: `Loads the registry into a store and reports duplicate names, unknown
parents or exclusions, dependency cycles and invalid definitions.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := opts.loadFields(args[0])
			if err != nil {
				return err
			}
			logger, err := opts.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			store := filters.NewStore("validate", filters.WithLogger(logger))
			warnings := store.Initialize(fields)

			out := validateOutput{Fields: len(store.Fields()), Warnings: []warningOutput{}}
			for _, w := range warnings {
				out.Warnings = append(out.Warnings, warningOutput{
					Kind:   string(w.Kind),
					Field:  w.Field,
					Path:   w.Path,
					Detail: w.Detail,
				})
			}

			w := cmd.OutOrStdout()
			if opts.jsonOutput {
				if err := outputJSON(w, out); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(w, "%d field(s) installed\n", out.Fields)
				for _, warning := range out.Warnings {
					fmt.Fprintf(w, "warning: %s %s: %s\n", warning.Kind, warning.Field, warning.Detail)
				}
			}
			if len(warnings) > 0 {
				return fmt.Errorf("%d configuration warning(s)", len(warnings))
			}
			return nil
		},
	}
}
