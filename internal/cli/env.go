package cli

import (
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/lakeidx/internal/catalog"
	"github.com/roach88/lakeidx/internal/config"
	"github.com/roach88/lakeidx/internal/diag"
	"github.com/roach88/lakeidx/internal/engine"
	"github.com/roach88/lakeidx/internal/lakedb"
)

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg := config.Default()
	if opts.Config != "" {
		var err error
		cfg, err = config.Load(opts.Config)
		if err != nil {
			return config.Config{}, err
		}
	}

	if opts.IndexDir != "" {
		cfg.IndexDir = opts.IndexDir
	}
	if opts.LakeDir != "" {
		cfg.LakeDir = opts.LakeDir
	}
	if opts.Schema != "" {
		cfg.Schema = opts.Schema
	}
	if opts.TxMode != "" {
		cfg.TxMode = engine.TxMode(opts.TxMode)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newSink builds the diagnostic sink for the chosen backend, writing to w.
// Debug-level events are only shown with --verbose.
func newSink(opts *RootOptions, w io.Writer) diag.Sink {
	if opts.LogBackend == "zap" {
		level := zapcore.InfoLevel
		if opts.Verbose {
			level = zapcore.DebugLevel
		}
		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.AddSync(w),
			level,
		)
		return diag.NewZapSink(zap.New(core))
	}

	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	return diag.SlogSink{Logger: slog.New(handler)}
}

// newFormatter returns the output formatter for cmd.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// openDB loads config and opens the database. Failures are reported through
// f and returned as ExitCommandError.
func openDB(opts *RootOptions, cmd *cobra.Command, f *OutputFormatter) (*lakedb.DB, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		_ = f.Error(ErrCodeConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	f.VerboseLog("index dir %s, lake dir %s, schema %s", cfg.IndexDir, cfg.LakeDir, cfg.Schema)

	db, err := lakedb.Open(cfg, newSink(opts, cmd.ErrOrStderr()), nil)
	if err != nil {
		var le *catalog.LoadError
		if errors.As(err, &le) {
			_ = f.Error(le.Code, le.Error(), nil)
		} else {
			_ = f.Error(ErrCodeStore, err.Error(), nil)
		}
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return db, nil
}

// reportLookupError reports a Get/Lookup/Dump failure and returns the
// matching ExitError.
func reportLookupError(f *OutputFormatter, err error) error {
	switch {
	case errors.Is(err, engine.ErrUnknownIndex):
		_ = f.Error(ErrCodeUnknownIndex, err.Error(), nil)
		return WrapExitError(ExitCommandError, "unknown index", err)
	case lakedb.IsNotFound(err):
		_ = f.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitFailure, "not found", err)
	default:
		_ = f.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "lookup failed", err)
	}
}

// closeDB closes db, logging rather than returning the error.
func closeDB(db *lakedb.DB, f *OutputFormatter) {
	if err := db.Close(); err != nil {
		f.VerboseLog("error closing database: %v", err)
	}
}
