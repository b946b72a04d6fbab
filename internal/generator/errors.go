package generator

import (
	"errors"
	"fmt"
	"net/http"
)

// ModelLoadError reports that the model source could not be resolved or the
// backend could not load it. It is fatal to whoever constructs the Generator.
type ModelLoadError struct {
	Source string
	Err    error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("load model %q: %v", e.Source, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// StatusCode lets the HTTP layer map a missing model to 503.
func (e *ModelLoadError) StatusCode() int { return http.StatusServiceUnavailable }

// IsModelLoad reports whether err is (or wraps) a ModelLoadError.
func IsModelLoad(err error) bool {
	var e *ModelLoadError
	return errors.As(err, &e)
}

// InvalidParameterError rejects a generation request before the backend runs.
type InvalidParameterError struct {
	Name   string
	Value  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid %s: %q", e.Name, e.Value)
	}
	return fmt.Sprintf("%s %s (got %s)", e.Name, e.Reason, e.Value)
}

func (e *InvalidParameterError) StatusCode() int { return http.StatusUnprocessableEntity }

// IsInvalidParameter reports whether err is (or wraps) an InvalidParameterError.
func IsInvalidParameter(err error) bool {
	var e *InvalidParameterError
	return errors.As(err, &e)
}

// GenerationError wraps an unexpected failure of the backend during Run.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return "generation failed: " + e.Err.Error() }

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) StatusCode() int { return http.StatusInternalServerError }

// IsGeneration reports whether err is (or wraps) a GenerationError.
func IsGeneration(err error) bool {
	var e *GenerationError
	return errors.As(err, &e)
}

// dependencyUnavailableError signals a backend that was not compiled in or
// whose runtime cannot be reached.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var e dependencyUnavailableError
	return errors.As(err, &e)
}
