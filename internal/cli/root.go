package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	LogBackend string // "slog" | "zap"

	// Config is the path of a YAML config file. The remaining fields
	// override it when set.
	Config   string
	IndexDir string
	LakeDir  string
	Schema   string
	TxMode   string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// ValidLogBackends defines the allowed diagnostic log backends.
var ValidLogBackends = []string{"slog", "zap"}

// NewRootCommand creates the root command for the lakeidx CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "lakeidx",
		Short: "lakeidx - secondary indexes over a JSON lake",
		Long: `Store JSON records as blobs in a lake directory and maintain
schema-driven secondary indexes over them in an embedded database.

Each index maps a key composed from record fields to the record's id;
the id names the record's blob in the lake.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !oneOf(opts.Format, ValidFormats) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if !oneOf(opts.LogBackend, ValidLogBackends) {
				return fmt.Errorf("invalid log backend %q: must be one of %v", opts.LogBackend, ValidLogBackends)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogBackend, "log", "slog", "diagnostic log backend (slog|zap)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.IndexDir, "index-dir", "", "index environment directory")
	cmd.PersistentFlags().StringVar(&opts.LakeDir, "lake-dir", "", "blob lake directory")
	cmd.PersistentFlags().StringVar(&opts.Schema, "schema", "", "schema file (.json, .yaml or .cue)")
	cmd.PersistentFlags().StringVar(&opts.TxMode, "tx-mode", "", "transaction scope of a put (per-index|per-record)")

	// Add subcommands
	cmd.AddCommand(NewPutCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewDumpCommand(opts))
	cmd.AddCommand(NewKeysCommand(opts))
	cmd.AddCommand(NewNewIDCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// oneOf checks if v is one of the allowed values.
func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}
