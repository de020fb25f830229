package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/lakeidx/internal/record"
)

// PutResult is the JSON payload of the put command.
type PutResult struct {
	ID   string `json:"id"`
	Noun string `json:"noun"`
}

// NewPutCommand creates the put command.
func NewPutCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put [file|-]",
		Short: "Store a record and index it",
		Long: `Store a JSON record in the lake and write its index entries.

The record is a single-key envelope naming its noun:

  {"location": {"name": "Paris", "country": "FR"}}

A record without an "id" field is given a fresh one, which is added to the
stored blob. The id is printed on success. Reads stdin when no file is given.

Example:
  lakeidx put paris.json
  echo '{"location": {"name": "Paris"}}' | lakeidx put`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPut(rootOpts, inputArg(args), cmd)
		},
	}

	return cmd
}

func runPut(opts *RootOptions, input string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	content, doc, err := readRecord(cmd, input)
	if err != nil {
		_ = f.Error(ErrCodeRecord, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid record", err)
	}

	db, err := openDB(opts, cmd, f)
	if err != nil {
		return err
	}
	defer closeDB(db, f)

	if doc.ID() == "" {
		doc.SetID(db.IDs.New(doc.Noun()))
		if content, err = json.Marshal(doc); err != nil {
			_ = f.Error(ErrCodeRecord, err.Error(), nil)
			return WrapExitError(ExitCommandError, "invalid record", err)
		}
	}

	id, err := db.Write(cmd.Context(), doc, content)
	if err != nil {
		_ = f.Error(ErrCodeStore, err.Error(), map[string]string{"id": id})
		return WrapExitError(ExitFailure, "put failed", err)
	}

	f.VerboseLog("stored %s %s", doc.Noun(), id)
	return f.Success(id, PutResult{ID: id, Noun: doc.Noun()})
}

// inputArg returns the single optional file argument, or "" for stdin.
func inputArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// readInput reads path, or stdin when path is "" or "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	return data, nil
}

// readRecord reads and parses one record envelope.
func readRecord(cmd *cobra.Command, path string) ([]byte, *record.Document, error) {
	content, err := readInput(cmd, path)
	if err != nil {
		return nil, nil, err
	}
	doc, err := record.ParseDocument(content)
	if err != nil {
		return nil, nil, err
	}
	return content, doc, nil
}
