package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Exit codes by category. Anything unclassified, including a failed
// --strict check, exits with 1.
var exitCodes = map[ErrorCategory]int{
	CategoryValidation: 2,
	CategoryConfig:     7,
	CategoryNetwork:    8,
	CategoryInternal:   10,
	CategoryBuild:      11,
	CategoryMoniker:    11,
	CategoryFileSystem: 11,
	CategoryRuntime:    12,
}

// CLIErrorAdapter turns a command error into a message on stderr and a
// process exit code.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger}
}

// ExitCodeFor returns the process exit code for err.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var de *DocfxError
	if As(err, &de) {
		if code, ok := exitCodes[de.Category]; ok {
			return code
		}
	}
	return 1
}

// FormatError renders err for a terminal. Configuration and usage errors
// print their bare message since the user has to act on it; everything
// else is prefixed with its category. Verbose mode prints the full chain.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	var de *DocfxError
	switch {
	case !As(err, &de):
		return "Error: " + err.Error()
	case a.verbose:
		return de.Error()
	case de.Category == CategoryConfig || de.Category == CategoryValidation:
		return de.Message
	default:
		return fmt.Sprintf("%s: %s", de.Category, de.Message)
	}
}

// Report writes the formatted error to w, logs it when it is worth a log
// record, and returns the exit code.
func (a *CLIErrorAdapter) Report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	if a.shouldLog(err) {
		a.logError(err)
	}
	fmt.Fprintln(w, a.FormatError(err))
	return a.ExitCodeFor(err)
}

// HandleError reports err on stderr and exits.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	os.Exit(a.Report(os.Stderr, err))
}

func (a *CLIErrorAdapter) shouldLog(err error) bool {
	var de *DocfxError
	if a.verbose || !As(err, &de) {
		return true
	}
	switch {
	case de.Severity == SeverityFatal:
		return true
	case de.Category == CategoryInternal, de.Category == CategoryRuntime:
		return true
	}
	return false
}

func (a *CLIErrorAdapter) logError(err error) {
	var de *DocfxError
	if !As(err, &de) {
		a.logger.Error("Unclassified error", "error", err)
		return
	}
	attrs := make([]slog.Attr, 0, len(de.Context)+2)
	attrs = append(attrs, slog.String("category", string(de.Category)))
	if de.Retryable {
		attrs = append(attrs, slog.Bool("retryable", true))
	}
	for k, v := range de.Context {
		attrs = append(attrs, slog.Any(k, v))
	}
	a.logger.LogAttrs(context.Background(), levelFromSeverity(de.Severity), de.Message, attrs...)
}

// LogDiagnostics writes each diagnostic at the slog level matching its Level.
func LogDiagnostics(logger *slog.Logger, diags []*Diagnostic) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, d := range diags {
		if d == nil {
			continue
		}
		attrs := []slog.Attr{slog.String("code", d.Code)}
		if d.Source != nil {
			attrs = append(attrs, slog.String("source", d.Source.String()))
		}
		logger.LogAttrs(context.Background(), levelFromDiagnostic(d.Level), d.Message, attrs...)
	}
}

func levelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func levelFromDiagnostic(level DiagnosticLevel) slog.Level {
	switch level {
	case LevelError:
		return slog.LevelError
	case LevelWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
