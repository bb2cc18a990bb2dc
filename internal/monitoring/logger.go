// Package monitoring carries the pipeline's observability: a swappable
// package-level logger and the Prometheus counters for pixel degradation.
package monitoring

import "log"

// Logf emits pipeline diagnostics (degraded pixels, fold sizes, run
// summaries). It defaults to log.Printf; embedders and tests swap it via
// SetLogger to redirect or silence the output.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger installs f as the package logger. A nil f mutes logging
// entirely; Logf stays callable either way.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
