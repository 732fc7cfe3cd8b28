package cli

import (
	"fmt"

	filters "github.com/goliatone/go-filters"
	"github.com/goliatone/go-filters/pkg/lookup"
	"github.com/spf13/cobra"
)

type optionsOutput struct {
	Field      string        `json:"field"`
	Search     string        `json:"search,omitempty"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	TotalItems int           `json:"total_items"`
	HasMore    bool          `json:"has_more"`
	Items      []lookup.Item `json:"items"`
}

func newOptionsCmd(opts *globalOptions) *cobra.Command {
	var (
		search   string
		pages    int
		pageSize int
		demo     int
	)
	cmd := &cobra.Command{
		Use:   "options <fields-file> <field>",
		Short: "Page through the choices of an options field",
		Long: `Serves the static options declared by the registry through a paginated
lookup. Fields without static options can be populated with --demo.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := opts.loadFields(args[0])
			if err != nil {
				return err
			}
			name := args[1]
			var def *filters.FieldDefinition
			for i := range fields {
				if fields[i].Name == name {
					def = &fields[i]
					break
				}
			}
			if def == nil {
				return fmt.Errorf("unknown field %q", name)
			}
			if def.Kind != filters.KindOptions {
				return fmt.Errorf("field %q is a %s field, not options", name, def.Kind)
			}
			logger, err := opts.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			providerOpts := []lookup.Option{
				lookup.WithPageSize(pageSize),
				lookup.WithFieldOptions(fields...),
			}
			if demo > 0 {
				providerOpts = append(providerOpts, lookup.WithFallback(lookup.DemoCatalog(demo)))
			}
			loader := lookup.NewLoader(lookup.NewStaticProvider(providerOpts...), lookup.WithLoaderLogger(logger))

			ctx := cmd.Context()
			state, err := loader.Search(ctx, name, search)
			for loaded := 1; err == nil && loaded < pages && state.HasMore; loaded++ {
				state, err = loader.LoadMore(ctx, name)
			}
			if err != nil {
				return err
			}

			out := optionsOutput{
				Field:      name,
				Search:     search,
				Page:       state.Page,
				TotalPages: state.TotalPages,
				TotalItems: state.TotalItems,
				HasMore:    state.HasMore,
				Items:      state.Items,
			}
			w := cmd.OutOrStdout()
			if opts.jsonOutput {
				return outputJSON(w, out)
			}
			for _, item := range out.Items {
				fmt.Fprintf(w, "%s\t%s\n", item.Value, item.Label)
			}
			fmt.Fprintf(w, "page %d of %d (%d items)\n", out.Page, out.TotalPages, out.TotalItems)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&search, "search", "", "Case-insensitive label filter")
	flags.IntVar(&pages, "pages", 1, "Number of pages to load")
	flags.IntVar(&pageSize, "page-size", lookup.DefaultPageSize, "Items per page")
	flags.IntVar(&demo, "demo", 0, "Generate this many demo choices for fields without static options")
	return cmd
}
