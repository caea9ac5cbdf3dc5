package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/speakeasy-api/yschema/document"
	"github.com/speakeasy-api/yschema/internal/log"
	"github.com/speakeasy-api/yschema/jsonschema"
	"github.com/speakeasy-api/yschema/pkg/render"
	"github.com/speakeasy-api/yschema/problem"
	"github.com/speakeasy-api/yschema/reconcile"
)

// errProblemsFound makes the command exit with status 1 without printing
// anything beyond the report itself.
var errProblemsFound = errors.New("problems found")

type checkFlags struct {
	schema       string
	component    string
	output       string
	color        string
	logLevel     string
	documents    string
	minSeverity  string
	placeholders bool
	strict       bool
}

func newCheckCmd() *cobra.Command {
	var f checkFlags
	cmd := &cobra.Command{
		Use:   "check --schema api.yaml --component Name file.yaml...",
		Short: "Validate YAML files against a component schema of an OpenAPI document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, f, args)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.schema, "schema", "", "OpenAPI document holding the schema")
	flags.StringVar(&f.component, "component", "", "name of the component schema files must match")
	flags.StringVarP(&f.output, "output", "o", "text", "output format: text, json or yaml")
	flags.StringVar(&f.color, "color", "auto", "colorize text output: auto, always or never")
	flags.StringVar(&f.logLevel, "log-level", "warn", "log level: error, warn, info or debug")
	flags.StringVar(&f.documents, "documents", "", `expected YAML documents per file: "n", "n+" or "n-m"`)
	flags.StringVar(&f.minSeverity, "min-severity", "info", "hide problems below this severity")
	flags.BoolVar(&f.placeholders, "check-placeholders", false, "check ((var)) and {{var}} values instead of skipping them")
	flags.BoolVar(&f.strict, "strict", false, "fail on schema constructs that cannot be checked")
	_ = cmd.MarkFlagRequired("schema")
	_ = cmd.MarkFlagRequired("component")
	return cmd
}

func runCheck(cmd *cobra.Command, f checkFlags, files []string) error {
	ctx := cmd.Context()
	logger := log.New(cmd.ErrOrStderr(), log.Options{Level: log.ParseLevel(f.logLevel)})

	format, err := render.ParseFormat(f.output)
	if err != nil {
		return err
	}
	minSeverity, err := problem.ParseSeverity(f.minSeverity)
	if err != nil {
		return err
	}
	renderOpts := render.Options{Format: format, Color: render.ColorMode(f.color), MinSeverity: minSeverity}

	schemaFile, err := os.Open(f.schema)
	if err != nil {
		return fmt.Errorf("opening schema: %w", err)
	}
	defer schemaFile.Close()

	importOpts := jsonschema.DefaultOptions()
	importOpts.Logger = logger
	importOpts.Strict = f.strict
	schema, err := jsonschema.FromOpenAPI(ctx, schemaFile, f.component, importOpts)
	if err != nil {
		return fmt.Errorf("loading schema %s: %w", f.schema, err)
	}

	opts := reconcile.DefaultOptions()
	opts.Logger = logger
	opts.SkipTemplatePlaceholders = !f.placeholders
	if f.documents != "" {
		rng, err := jsonschema.ParseRange(f.documents)
		if err != nil {
			return fmt.Errorf("--documents: %w", err)
		}
		opts.Documents = &rng
	}
	r := reconcile.New(schema, opts)

	failed := false
	for _, path := range files {
		found, err := checkFile(cmd, r, path, renderOpts)
		if err != nil {
			return err
		}
		failed = failed || found
	}
	if failed {
		return errProblemsFound
	}
	return nil
}

// checkFile reports the problems of one file and whether any is an error.
func checkFile(cmd *cobra.Command, r *reconcile.Reconciler, path string, opts render.Options) (bool, error) {
	data, err := readFile(cmd, path)
	if err != nil {
		return false, err
	}
	doc := document.New(path, 1, string(data))
	sink := problem.NewCollector()
	if _, err := r.CheckDocument(cmd.Context(), doc, sink, nil); err != nil {
		return false, fmt.Errorf("checking %s: %w", path, err)
	}
	problems := sink.Problems()
	if err := render.Write(cmd.OutOrStdout(), doc, problems, opts); err != nil {
		return false, err
	}
	return problem.HasErrors(problems), nil
}

func readFile(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
