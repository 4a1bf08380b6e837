package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrRuntimeNotFound    = errors.New("runtime not found")
	ErrExecutableNotFound = errors.New("executable not found")
	ErrLaunchFailed       = errors.New("launch failed")
	ErrSync               = errors.New("sync error")
	ErrConflict           = errors.New("conflict")
	ErrRegistryIO         = errors.New("registry io error")
	ErrConfiguration      = errors.New("configuration error")
	ErrNotFound           = errors.New("not found")
	ErrTimeout            = errors.New("timeout")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later status classification. The marker should
// be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrSync
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// StatusLabel maps an error to the short status string surfaced to UI
// consumers alongside the log line.
func StatusLabel(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "cartridge not recognized"
	case errors.Is(err, ErrRuntimeNotFound):
		return "runtime not found"
	case errors.Is(err, ErrExecutableNotFound):
		return "executable not found"
	case errors.Is(err, ErrLaunchFailed):
		return "launch failed"
	case errors.Is(err, ErrSync):
		return "save sync failed"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrRegistryIO):
		return "registry unavailable"
	case errors.Is(err, ErrConfiguration):
		return "configuration error"
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, ErrTimeout):
		return "timed out"
	default:
		return "error"
	}
}

// BlocksSession reports whether the error prevents a session from starting,
// as opposed to sync warnings that surface without trapping the session.
func BlocksSession(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrSync):
		return false
	default:
		return true
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
