package http

import "log"

type Logger interface {
	Printf(format string, v ...any)
}

var logger Logger = log.Default()

// SetLogger replaces the logger reporting failures of background temp files cleanup.
func SetLogger(l Logger) {
	logger = l
}
