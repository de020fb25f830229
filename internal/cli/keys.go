package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// KeyResult is one derived key in the keys command's JSON payload.
type KeyResult struct {
	Index string `json:"index"`
	SubDB string `json:"subdb"`
	Key   string `json:"key,omitempty"`
	Error string `json:"error,omitempty"`
}

// NewKeysCommand creates the keys command.
func NewKeysCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys [file|-]",
		Short: "Show the index keys a record would get",
		Long: `Derive every index key of a record without writing anything.

Indexes whose key cannot be derived are listed with the reason.

Example:
  lakeidx keys paris.json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeys(rootOpts, inputArg(args), cmd)
		},
	}

	return cmd
}

func runKeys(opts *RootOptions, input string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	_, doc, err := readRecord(cmd, input)
	if err != nil {
		_ = f.Error(ErrCodeRecord, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid record", err)
	}

	db, err := openDB(opts, cmd, f)
	if err != nil {
		return err
	}
	defer closeDB(db, f)

	derived := db.Engine.Keys(cmd.Context(), doc)
	if derived == nil {
		msg := fmt.Sprintf("no schema for %s", doc.Noun())
		_ = f.Error(ErrCodeUnknownIndex, msg, nil)
		return NewExitError(ExitFailure, msg)
	}

	out := make([]KeyResult, len(derived))
	lines := make([]string, len(derived))
	for i, k := range derived {
		out[i] = KeyResult{Index: k.Index, SubDB: k.SubDB, Key: string(k.Key)}
		if k.Err != nil {
			out[i].Key = ""
			out[i].Error = k.Err.Error()
			lines[i] = fmt.Sprintf("%s\t(skipped: %v)", k.SubDB, k.Err)
			continue
		}
		lines[i] = fmt.Sprintf("%s\t%s", k.SubDB, k.Key)
	}
	return f.Success(strings.Join(lines, "\n"), out)
}
