package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

// Error codes for catalog loading.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeNotFound      = "E005" // Schema file not found
	ErrCodeParseFailed   = "E201" // Schema file could not be parsed
	ErrCodeUnknownFormat = "E202" // Unrecognised file extension
	ErrCodeInvalidNoun   = "E203" // Empty or malformed noun name
	ErrCodeDuplicateNoun = "E204" // Two nouns fold to the same lowercase name
	ErrCodeInvalidIndex  = "E205" // Malformed index definition
)

// Format is a schema file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// LoadError reports why a catalog could not be built.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
	Err     error
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError reports whether err is (or wraps) a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// FormatForPath picks the format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", &LoadError{
			Code:    ErrCodeUnknownFormat,
			Message: fmt.Sprintf("unrecognised schema file extension %q (want .json, .yaml, .yml or .cue)", filepath.Ext(path)),
		}
	}
}

// Load reads a schema file and builds a catalog from it.
func Load(path string) (*Catalog, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema file not found: %s", path), Err: err}
		}
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("reading schema file: %v", err), Err: err}
	}

	return Parse(data, format, path)
}

// Parse decodes schema source in the given format and builds a catalog.
// filename is used for error positions only.
func Parse(data []byte, format Format, filename string) (*Catalog, error) {
	var (
		src Source
		err error
	)
	switch format {
	case FormatJSON:
		src, err = parseJSON(data)
	case FormatYAML:
		src, err = parseYAML(data)
	case FormatCUE:
		src, err = parseCUE(data, filename)
	default:
		return nil, &LoadError{Code: ErrCodeUnknownFormat, Message: fmt.Sprintf("unknown schema format %q", format)}
	}
	if err != nil {
		return nil, err
	}
	return New(src)
}

func parseJSON(data []byte) (Source, error) {
	var src Source
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&src); err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("parsing JSON schema: %v", err), Err: err}
	}
	return src, nil
}

func parseYAML(data []byte) (Source, error) {
	var src Source
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields
	if err := dec.Decode(&src); err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("parsing YAML schema: %v", err), Err: err}
	}
	return src, nil
}

// parseCUE compiles a CUE schema. The top-level struct maps nouns to schemas,
// so definitions and constraints may be used to share index shapes:
//
//	#byName: {name: "byName", fields: ["name"], options: lowercase: true}
//	location: indexes: [#byName]
func parseCUE(data []byte, filename string) (Source, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, cueLoadError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueLoadError(err)
	}

	var src Source
	if err := v.Decode(&src); err != nil {
		return nil, cueLoadError(err)
	}
	return src, nil
}

// cueLoadError keeps the position of the first CUE error.
func cueLoadError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: ErrCodeParseFailed, Message: err.Error(), Err: err}
	}

	first := errs[0]
	le := &LoadError{Code: ErrCodeParseFailed, Message: first.Error(), Err: err}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
