// Package cli implements the filterctl command tree.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	filters "github.com/goliatone/go-filters"
	"github.com/spf13/cobra"
)

var version = "dev"

// SetVersion overrides the version reported by --version.
func SetVersion(v string) {
	if v == "" {
		return
	}
	version = v
}

type globalOptions struct {
	jsonOutput bool
	logLevel   string
	strict     bool
	overlays   []string
}

// NewRootCommand builds the filterctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:     "filterctl",
		Version: version,
		Short:   "Inspect and exercise filter field registries",
		Long: `filterctl loads a filter field registry (YAML or JSON) and lets you
validate it, describe it, render its OpenAPI query contract, and run
queries through a filter store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flags.BoolVar(&opts.strict, "strict", false, "Reject unknown keys in field documents")
	flags.StringArrayVar(&opts.overlays, "overlay", nil, "Fields file merged over the registry by field name, repeatable")

	rootCmd.AddCommand(
		newValidateCmd(opts),
		newDescribeCmd(opts),
		newOpenAPICmd(opts),
		newQueryCmd(opts),
		newOptionsCmd(opts),
	)
	return rootCmd
}

// Execute runs the command tree with the process arguments.
func Execute() error {
	return NewRootCommand().Execute()
}

func (o *globalOptions) logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(o.logLevel))); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", o.logLevel)
	}
	return filters.NewLogger(w, level), nil
}

func (o *globalOptions) loadFields(path string) ([]filters.FieldDefinition, error) {
	var loadOpts []filters.LoadOption
	if o.strict {
		loadOpts = append(loadOpts, filters.WithStrictFields())
	}
	paths := append([]string{path}, o.overlays...)
	return filters.LoadFieldsFiles(paths, loadOpts...)
}
