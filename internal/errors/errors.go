// Package errors carries the render error taxonomy and the collector
// used to aggregate per-file diagnostics for one preview pass.
package errors

import (
	"fmt"
	"sync"
	"time"
)

// Stage identifies which pipeline phase produced an error.
type Stage string

const (
	StageScan      Stage = "scan"
	StageDetect    Stage = "detect"
	StageSynth     Stage = "synthesize"
	StageDocument  Stage = "document"
	StageSandbox   Stage = "sandbox"
	StageTransport Stage = "transport"
)

// ErrorSeverity represents the severity of an error
type ErrorSeverity int

const (
	ErrorSeverityInfo ErrorSeverity = iota
	ErrorSeverityWarning
	ErrorSeverityError
	ErrorSeverityFatal
)

// String returns the string representation of the severity
func (s ErrorSeverity) String() string {
	switch s {
	case ErrorSeverityInfo:
		return "info"
	case ErrorSeverityWarning:
		return "warning"
	case ErrorSeverityError:
		return "error"
	case ErrorSeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// RenderError represents a diagnostic attached to one file of a render.
type RenderError struct {
	Stage     Stage
	File      string
	Message   string
	Severity  ErrorSeverity
	Cause     error
	Timestamp time.Time
}

// Error implements the error interface
func (re *RenderError) Error() string {
	if re.File != "" {
		return fmt.Sprintf("%s: %s: %s: %s", re.Stage, re.File, re.Severity, re.Message)
	}
	return fmt.Sprintf("%s: %s: %s", re.Stage, re.Severity, re.Message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (re *RenderError) Unwrap() error {
	return re.Cause
}

// New creates a RenderError at error severity.
func New(stage Stage, file, message string) *RenderError {
	return &RenderError{
		Stage:     stage,
		File:      file,
		Message:   message,
		Severity:  ErrorSeverityError,
		Timestamp: time.Now(),
	}
}

// Wrap creates a RenderError around a cause.
func Wrap(stage Stage, file string, cause error) *RenderError {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &RenderError{
		Stage:     stage,
		File:      file,
		Message:   msg,
		Severity:  ErrorSeverityError,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// WithSeverity overrides the severity and returns the error for chaining.
func (re *RenderError) WithSeverity(s ErrorSeverity) *RenderError {
	re.Severity = s
	return re
}

// ErrorCollector collects diagnostics across the files of a render pass
type ErrorCollector struct {
	mutex  sync.RWMutex
	errors []RenderError
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		errors: make([]RenderError, 0),
	}
}

// Add adds a diagnostic to the collector
func (ec *ErrorCollector) Add(err RenderError) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	ec.errors = append(ec.errors, err)
}

// AddError wraps a plain error under a stage and collects it
func (ec *ErrorCollector) AddError(stage Stage, file string, err error) {
	if err == nil {
		return
	}
	ec.Add(*Wrap(stage, file, err))
}

// GetErrors returns a copy of all collected diagnostics
func (ec *ErrorCollector) GetErrors() []RenderError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]RenderError, len(ec.errors))
	copy(result, ec.errors)
	return result
}

// HasErrors returns true if anything at error severity or above was collected
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	for _, e := range ec.errors {
		if e.Severity >= ErrorSeverityError {
			return true
		}
	}
	return false
}

// Clear drops all collected diagnostics
func (ec *ErrorCollector) Clear() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = ec.errors[:0]
}

// GetErrorsByFile returns diagnostics for a specific file
func (ec *ErrorCollector) GetErrorsByFile(file string) []RenderError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	var fileErrors []RenderError
	for _, err := range ec.errors {
		if err.File == file {
			fileErrors = append(fileErrors, err)
		}
	}
	return fileErrors
}

// GetErrorsByStage returns diagnostics for a specific pipeline stage
func (ec *ErrorCollector) GetErrorsByStage(stage Stage) []RenderError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	var stageErrors []RenderError
	for _, err := range ec.errors {
		if err.Stage == stage {
			stageErrors = append(stageErrors, err)
		}
	}
	return stageErrors
}
