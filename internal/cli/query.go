package cli

import (
	"fmt"
	"strings"

	filters "github.com/goliatone/go-filters"
	"github.com/spf13/cobra"
)

type fieldStateOutput struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Value    any    `json:"value"`
	Visible  bool   `json:"visible"`
	Disabled bool   `json:"disabled"`
	Excluded bool   `json:"excluded"`
}

type queryOutput struct {
	Store  string             `json:"store"`
	Params map[string]string  `json:"params"`
	Query  string             `json:"query"`
	Fields []fieldStateOutput `json:"fields"`
}

type queryOptions struct {
	storeID string
	storage string
	query   string
	sets    []string
	clears  []string
	restore bool
	persist bool
}

func newQueryCmd(opts *globalOptions) *cobra.Command {
	qopts := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "query <fields-file>",
		Short: "Run values through a filter store and print the applied query",
		Long: `Builds a store from the registry, optionally restores persisted values,
hydrates from --query, applies each --set and --clear in order, then prints
the applied query parameters and the derived state of every field.

Values given to --set use the query-string form: plain text, a JSON list for
options fields, or a JSON object for compare fields.`,
		Example: `  filterctl query fields.yaml --query 'category=shoes' --set 'price={"min":10,"max":50}'
  filterctl query fields.yaml --store sqlite:./filters.db --restore --set search=boots --persist`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts, qopts, args[0])
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&qopts.storeID, "id", filters.DefaultStoreID, "Store identifier")
	flags.StringVar(&qopts.storage, "store", "", "Persistence medium: memory, sqlite:<path> or redis://host:port/db")
	flags.StringVar(&qopts.query, "query", "", "Raw query string to hydrate from")
	flags.StringArrayVar(&qopts.sets, "set", nil, "Set a field value (name=value), repeatable")
	flags.StringArrayVar(&qopts.clears, "clear", nil, "Clear a field, repeatable")
	flags.BoolVar(&qopts.restore, "restore", false, "Restore persisted values before applying changes")
	flags.BoolVar(&qopts.persist, "persist", false, "Persist the resulting values")
	return cmd
}

func runQuery(cmd *cobra.Command, opts *globalOptions, qopts *queryOptions, path string) error {
	fields, err := opts.loadFields(path)
	if err != nil {
		return err
	}
	logger, err := opts.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	kv, closeStorage, err := openStorage(qopts.storage)
	if err != nil {
		return err
	}
	defer func() { _ = closeStorage() }()
	if kv == nil && (qopts.restore || qopts.persist) {
		return fmt.Errorf("--restore and --persist require --store")
	}

	storeOpts := []filters.Option{filters.WithLogger(logger)}
	if kv != nil {
		storeOpts = append(storeOpts, filters.WithStorage(kv))
	}
	store := filters.NewStore(qopts.storeID, storeOpts...)
	store.Initialize(fields)

	ctx := cmd.Context()
	if qopts.restore {
		store.Restore(ctx)
	}
	if qopts.query != "" {
		store.HydrateFromQuery(strings.TrimPrefix(qopts.query, "?"))
	}
	for _, assignment := range qopts.sets {
		name, raw, ok := strings.Cut(assignment, "=")
		if !ok {
			return fmt.Errorf("invalid --set %q, expected name=value", assignment)
		}
		def, known := store.Field(name)
		if !known {
			return fmt.Errorf("unknown field %q", name)
		}
		store.SetValue(name, filters.CoerceValue(def.Kind, filters.Deserialize(raw)))
	}
	for _, name := range qopts.clears {
		if _, known := store.Field(name); !known {
			return fmt.Errorf("unknown field %q", name)
		}
		store.ClearValue(name)
	}

	applied := store.Apply()
	if qopts.persist {
		store.Persist(ctx)
	}

	out := queryOutput{
		Store:  store.ID(),
		Params: filters.ToQueryParams(applied),
		Query:  filters.EncodeQuery(applied),
		Fields: make([]fieldStateOutput, 0, len(applied)),
	}
	for _, entry := range applied {
		def, _ := store.Field(entry.Name)
		var value any
		if entry.Value != nil {
			value = entry.Value.Native()
		}
		out.Fields = append(out.Fields, fieldStateOutput{
			Name:     entry.Name,
			Kind:     string(def.Kind),
			Value:    value,
			Visible:  store.IsVisible(entry.Name),
			Disabled: store.IsDisabled(entry.Name),
			Excluded: store.IsExcluded(entry.Name),
		})
	}

	w := cmd.OutOrStdout()
	if opts.jsonOutput {
		return outputJSON(w, out)
	}
	fmt.Fprintf(w, "query: %s\n", out.Query)
	for _, field := range out.Fields {
		flags := []string{}
		if !field.Visible {
			flags = append(flags, "hidden")
		}
		if field.Disabled {
			flags = append(flags, "disabled")
		}
		if field.Excluded {
			flags = append(flags, "excluded")
		}
		line := fmt.Sprintf("%-16s %-8s %s", field.Name, field.Kind, formatValue(field.Value))
		if len(flags) > 0 {
			line += " [" + strings.Join(flags, ",") + "]"
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
