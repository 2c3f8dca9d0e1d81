package metrics

import "time"

// ResolutionLevel labels which moniker resolution produced a result.
type ResolutionLevel string

const (
	LevelFile ResolutionLevel = "file"
	LevelZone ResolutionLevel = "zone"
)

// Recorder defines observability hooks for moniker resolution and the
// incremental function graph. Implementations may forward to Prometheus.
// All methods must be safe for nil receivers when using the NoopRecorder
// (allowing optional injection).
type Recorder interface {
	IncMonikerResolution(level ResolutionLevel, resolved bool)
	IncDiagnostic(code string)
	IncWatchRecompute()
	IncWatchCacheHit()
	ObserveChangeCheck(d time.Duration, changed bool)
	ObserveResolveDuration(d time.Duration)
	SetFilesResolved(n int)
	SetActivity(id int64)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncMonikerResolution(ResolutionLevel, bool)  {}
func (NoopRecorder) IncDiagnostic(string)                        {}
func (NoopRecorder) IncWatchRecompute()                          {}
func (NoopRecorder) IncWatchCacheHit()                           {}
func (NoopRecorder) ObserveChangeCheck(time.Duration, bool)      {}
func (NoopRecorder) ObserveResolveDuration(time.Duration)        {}
func (NoopRecorder) SetFilesResolved(int)                        {}
func (NoopRecorder) SetActivity(int64)                           {}
