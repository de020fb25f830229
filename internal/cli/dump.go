package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// DumpEntry is one index entry in the dump command's JSON payload.
type DumpEntry struct {
	Key string `json:"key"`
	ID  string `json:"id"`
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <noun> <index>",
		Short: "Print every entry of an index",
		Long: `Print every key and id of one index in key order.

An index that was never written prints nothing.

Example:
  lakeidx dump location byName
  lakeidx dump location byName --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runDump(opts *RootOptions, noun, index string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	db, err := openDB(opts, cmd, f)
	if err != nil {
		return err
	}
	defer closeDB(db, f)

	entries, err := db.Engine.Dump(cmd.Context(), noun, index)
	if err != nil {
		return reportLookupError(f, err)
	}

	out := make([]DumpEntry, len(entries))
	lines := make([]string, len(entries))
	for i, e := range entries {
		out[i] = DumpEntry{Key: string(e.Key), ID: e.ID}
		lines[i] = fmt.Sprintf("%s\t%s", e.Key, e.ID)
	}

	if f.Format != "json" && len(lines) == 0 {
		return nil
	}
	return f.Success(strings.Join(lines, "\n"), out)
}
