// Package monitor runs the periodic background health sweep.
package monitor

import "errors"

var (
	ErrMonitorAlreadyRunning = errors.New("monitor is already running")
	ErrMonitorNotRunning     = errors.New("monitor is not running")
)
