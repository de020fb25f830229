package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/lakeidx/internal/catalog"
)

// SchemaResult is the JSON payload of the schema command.
type SchemaResult struct {
	Valid    bool         `json:"valid"`
	Nouns    []SchemaNoun `json:"nouns"`
	Capacity int          `json:"subdb_capacity"`
}

// SchemaNoun describes the indexes of one noun.
type SchemaNoun struct {
	Noun    string                    `json:"noun"`
	Indexes []catalog.IndexDefinition `json:"indexes"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema [file]",
		Short: "Validate and describe a schema file",
		Long: `Load a schema file and print its nouns, indexes and the number of
sub-databases the index environment is opened with.

Without a file argument the configured schema is used.

Example:
  lakeidx schema schema.json
  lakeidx schema schema.cue --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(rootOpts, inputArg(args), cmd)
		},
	}

	return cmd
}

func runSchema(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	if path == "" {
		cfg, err := loadConfig(opts)
		if err != nil {
			_ = f.Error(ErrCodeConfig, err.Error(), nil)
			return WrapExitError(ExitCommandError, "invalid configuration", err)
		}
		path = cfg.Schema
	}
	f.VerboseLog("loading schema %s", path)

	cat, err := catalog.Load(path)
	if err != nil {
		var le *catalog.LoadError
		if errors.As(err, &le) {
			_ = f.Error(le.Code, le.Error(), nil)
		} else {
			_ = f.Error(ErrCodeGeneric, err.Error(), nil)
		}
		return WrapExitError(ExitFailure, "invalid schema", err)
	}

	result := SchemaResult{Valid: true, Nouns: []SchemaNoun{}, Capacity: cat.SubDBCapacity()}
	var b strings.Builder
	for _, noun := range cat.Nouns() {
		schema, _ := cat.Get(noun)
		result.Nouns = append(result.Nouns, SchemaNoun{Noun: noun, Indexes: schema.Indexes})
		fmt.Fprintf(&b, "%s\n", noun)
		for _, idx := range schema.Indexes {
			fmt.Fprintf(&b, "  %s [%s]%s\n", idx.Name, strings.Join(idx.Fields, ", "), describeOptions(idx.Options))
		}
	}
	fmt.Fprintf(&b, "sub-databases: %d", result.Capacity)

	return f.Success(b.String(), result)
}

func describeOptions(o catalog.Options) string {
	var flags []string
	if o.Lowercase {
		flags = append(flags, "lowercase")
	}
	if o.Unique {
		flags = append(flags, "unique")
	}
	if o.Multi {
		flags = append(flags, "multi")
	}
	if len(flags) == 0 {
		return ""
	}
	return " " + strings.Join(flags, " ")
}
