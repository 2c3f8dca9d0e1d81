package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID      = "build_id"
	KeyActivity     = "activity"
	KeyFile         = "file"
	KeyPath         = "path"
	KeyURL          = "url"
	KeyMonikerRange = "moniker_range"
	KeyMonikers     = "monikers"
	KeyCode         = "code"
	KeyCount        = "count"
	KeyDurationMS   = "duration_ms"
	KeyAttempt      = "attempt"
	KeyError        = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr        { return slog.String(KeyBuildID, id) }
func Activity(id int64) slog.Attr        { return slog.Int64(KeyActivity, id) }
func File(f string) slog.Attr            { return slog.String(KeyFile, f) }
func Path(p string) slog.Attr            { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr             { return slog.String(KeyURL, u) }
func MonikerRange(r string) slog.Attr    { return slog.String(KeyMonikerRange, r) }
func Monikers(m []string) slog.Attr      { return slog.Any(KeyMonikers, m) }
func Code(c string) slog.Attr            { return slog.String(KeyCode, c) }
func Count(n int) slog.Attr              { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr    { return slog.Float64(KeyDurationMS, ms) }
func Attempt(n int) slog.Attr            { return slog.Int(KeyAttempt, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
