package errors

import (
	"fmt"
	"strings"
)

// DiagnosticLevel ranks a recoverable content problem.
type DiagnosticLevel string

const (
	LevelError      DiagnosticLevel = "error"
	LevelWarning    DiagnosticLevel = "warning"
	LevelSuggestion DiagnosticLevel = "suggestion"
	LevelInfo       DiagnosticLevel = "info"
)

// Diagnostic codes. These strings are consumed by build reports and tooling;
// do not rename them.
const (
	CodeMonikerRangeUndefined  = "moniker-range-undefined"
	CodeMonikerRangeOutOfScope = "moniker-range-out-of-scope"
	CodeDuplicateMonikerConfig = "duplicate-moniker-config"
	CodeInvalidMonikerRange    = "invalid-moniker-range"
	CodeMonikerZoneUnclosed    = "moniker-zone-unclosed"
	CodeMonikerZoneNested      = "moniker-zone-nested"
	CodeMonikerZoneUnopened    = "moniker-zone-unopened"
	CodeInvalidFrontmatter     = "invalid-frontmatter"
)

// SourceInfo locates a value inside a file. Line and Column are 1-based; zero
// means unknown.
type SourceInfo struct {
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
	Line   int    `json:"line,omitempty" yaml:"line,omitempty"`
	Column int    `json:"column,omitempty" yaml:"column,omitempty"`
}

func (s *SourceInfo) String() string {
	if s == nil {
		return ""
	}
	switch {
	case s.Line > 0 && s.Column > 0:
		return fmt.Sprintf("%s(%d,%d)", s.File, s.Line, s.Column)
	case s.Line > 0:
		return fmt.Sprintf("%s(%d)", s.File, s.Line)
	default:
		return s.File
	}
}

// Diagnostic is a recoverable problem reported next to a best-effort result.
// It implements error so it can flow through error-typed plumbing, but callers
// generally collect diagnostics instead of returning them.
type Diagnostic struct {
	Level   DiagnosticLevel `json:"level"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Source  *SourceInfo     `json:"source,omitempty"`
}

func (d *Diagnostic) Error() string {
	var b strings.Builder
	if loc := d.Source.String(); loc != "" {
		b.WriteString(loc)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%s %s: %s", d.Level, d.Code, d.Message)
	return b.String()
}

// WithLevel returns a copy of d with a different level.
func (d *Diagnostic) WithLevel(level DiagnosticLevel) *Diagnostic {
	out := *d
	out.Level = level
	return &out
}

// HasErrors reports whether any diagnostic is error level.
func HasErrors(diags []*Diagnostic) bool {
	for _, d := range diags {
		if d != nil && d.Level == LevelError {
			return true
		}
	}
	return false
}

func newDiagnostic(level DiagnosticLevel, code string, source *SourceInfo, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Level:   level,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Source:  source,
	}
}

// Moniker diagnostics

func MonikerRangeUndefined(source *SourceInfo) *Diagnostic {
	return newDiagnostic(LevelError, CodeMonikerRangeUndefined, source,
		"Moniker range missing in docfx.yml/docfx.json, user should not define it in file metadata or moniker zone.")
}

func MonikerRangeOutOfScope(configRange string, configMonikers []string, fileRange string, fileMonikers []string, source *SourceInfo) *Diagnostic {
	return newDiagnostic(LevelError, CodeMonikerRangeOutOfScope, source,
		"No moniker intersection between docfx.yml/docfx.json and file metadata. Config moniker range '%s' is '%s', while file moniker range '%s' is '%s'.",
		configRange, strings.Join(configMonikers, ", "), fileRange, strings.Join(fileMonikers, ", "))
}

func ZoneMonikerRangeOutOfScope(zoneRange string, zoneMonikers, fileMonikers []string, source *SourceInfo) *Diagnostic {
	return newDiagnostic(LevelError, CodeMonikerRangeOutOfScope, source,
		"No intersection between zone and file level monikers. The result of zone level range string '%s' is '%s', while file level monikers is '%s'.",
		zoneRange, strings.Join(zoneMonikers, ", "), strings.Join(fileMonikers, ", "))
}

func DuplicateMonikerConfig(source *SourceInfo) *Diagnostic {
	return newDiagnostic(LevelWarning, CodeDuplicateMonikerConfig, source,
		"Both monikerRange and monikers are defined in file metadata, monikers is ignored.")
}

func InvalidMonikerRange(expression string, cause error, source *SourceInfo) *Diagnostic {
	return newDiagnostic(LevelError, CodeInvalidMonikerRange, source,
		"Invalid moniker range '%s': %v", expression, cause)
}

func MonikerZoneUnclosed(source *SourceInfo) *Diagnostic {
	return newDiagnostic(LevelWarning, CodeMonikerZoneUnclosed, source,
		"Moniker zone is not closed, add '::: moniker-end' to end the zone.")
}

func MonikerZoneNested(source *SourceInfo) *Diagnostic {
	return newDiagnostic(LevelWarning, CodeMonikerZoneNested, source,
		"Moniker zone cannot be nested inside another moniker zone.")
}

func MonikerZoneUnopened(source *SourceInfo) *Diagnostic {
	return newDiagnostic(LevelWarning, CodeMonikerZoneUnopened, source,
		"Found '::: moniker-end' without a matching '::: moniker range'.")
}

func InvalidFrontmatter(cause error, source *SourceInfo) *Diagnostic {
	return newDiagnostic(LevelWarning, CodeInvalidFrontmatter, source,
		"File metadata could not be parsed: %v", cause)
}
