package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
	Raw     bool // treat the single value as an already composed key
	Content bool // print the blob instead of the id
}

// GetResult is the JSON payload of the get command.
type GetResult struct {
	ID      string `json:"id"`
	Content string `json:"content,omitempty"`
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <noun> <index> <value>...",
		Short: "Look a record up by index",
		Long: `Look a record up in one index of a noun.

Values are given in the index's field order and composed into a key with
the index's own options, so "lakeidx get location byName PARIS" finds a
record whose name was "Paris" when byName is lowercase. With --raw the
single value is used as the key verbatim.

Exit codes:
  0 - Found
  1 - Not found, or store failure
  2 - Command error (unknown index, bad config, etc.)

Example:
  lakeidx get location byName paris
  lakeidx get location byCountryCity FR Paris --content
  lakeidx get location byCountryCity 'FR:Paris' --raw`,
		Args:          cobra.MinimumNArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(opts, args[0], args[1], args[2:], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "use the single value as the key verbatim")
	cmd.Flags().BoolVar(&opts.Content, "content", false, "print the record's blob instead of its id")

	return cmd
}

func runGet(opts *GetOptions, noun, index string, values []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	if opts.Raw && len(values) != 1 {
		err := fmt.Errorf("--raw takes exactly one key, got %d values", len(values))
		_ = f.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}

	db, err := openDB(opts.RootOptions, cmd, f)
	if err != nil {
		return err
	}
	defer closeDB(db, f)

	ctx := cmd.Context()
	var id string
	if opts.Raw {
		id, err = db.Engine.Get(ctx, noun, index, []byte(values[0]))
	} else {
		id, err = db.Engine.Lookup(ctx, noun, index, values...)
	}
	if err != nil {
		return reportLookupError(f, err)
	}

	if !opts.Content {
		return f.Success(id, GetResult{ID: id})
	}

	data, err := db.Lake.Read(id)
	if err != nil {
		return reportLookupError(f, err)
	}
	return f.Success(string(data), GetResult{ID: id, Content: string(data)})
}
