package logger

import (
	"go.uber.org/zap"
)

// New builds the process-wide production logger. Callers own Sync.
func New() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return l
}

// NewDevelopment builds a human-readable logger for local runs.
func NewDevelopment() *zap.Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	return l
}
