package cli

import (
	"github.com/goliatone/go-filters/schema/openapi"
	"github.com/spf13/cobra"
)

func newOpenAPICmd(opts *globalOptions) *cobra.Command {
	var (
		title        string
		apiVersion   string
		path         string
		method       string
		noExtensions bool
	)
	cmd := &cobra.Command{
		Use:   "openapi <fields-file>",
		Short: "Render the registry as an OpenAPI query contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := opts.loadFields(args[0])
			if err != nil {
				return err
			}
			genOpts := []openapi.GeneratorOption{
				openapi.WithInfo(title, apiVersion),
				openapi.WithOperation(path, method, ""),
			}
			if noExtensions {
				genOpts = append(genOpts, openapi.WithoutExtensions())
			}
			document, err := openapi.Generate(fields, genOpts...)
			if err != nil {
				return err
			}
			return outputJSON(cmd.OutOrStdout(), document)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&title, "title", "Filters", "Document title")
	flags.StringVar(&apiVersion, "api-version", "1.0.0", "Document version")
	flags.StringVar(&path, "path", "/search", "Operation path")
	flags.StringVar(&method, "method", "get", "Operation method")
	flags.BoolVar(&noExtensions, "no-extensions", false, "Omit x-filter parameter extensions")
	return cmd
}
