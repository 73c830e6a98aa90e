// Package monitoring reports aborted planning runs to an error tracker.
package monitoring

import "time"

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureError(err error, tags map[string]string)
	Flush(timeout time.Duration) bool
}

type NopMonitor struct{}

func (NopMonitor) CaptureError(error, map[string]string) {}
func (NopMonitor) Flush(time.Duration) bool              { return true }

// Recorder keeps captured errors in memory. Tests use it in place of a real
// tracker.
type Recorder struct {
	Errors []error
	Tags   []map[string]string
}

func (r *Recorder) CaptureError(err error, tags map[string]string) {
	r.Errors = append(r.Errors, err)
	r.Tags = append(r.Tags, tags)
}

func (r *Recorder) Flush(time.Duration) bool { return true }
