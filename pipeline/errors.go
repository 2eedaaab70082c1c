package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNotBuilt = errors.New("pipeline not built")

type ErrorCategory int

const (
	// ErrCategoryResource covers missing files, devices and permissions.
	ErrCategoryResource ErrorCategory = iota
	// ErrCategoryCodec covers demux, decode and negotiation failures.
	ErrCategoryCodec
	// ErrCategoryPlugin covers missing elements and inference framework failures.
	ErrCategoryPlugin
	ErrCategoryUnknown
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryResource:
		return "resource"
	case ErrCategoryCodec:
		return "codec"
	case ErrCategoryPlugin:
		return "plugin"
	default:
		return "unknown"
	}
}

var (
	pluginKeywords = []string{
		"no element",
		"missing plugin",
		"tensor_filter",
		"tensorflow",
		"tflite",
		"nnfw",
		"framework",
		"model",
	}
	codecKeywords = []string{
		"codec",
		"decode",
		"demux",
		"qtdemux",
		"not-negotiated",
		"negotiat",
		"caps",
		"format",
		"stream type",
	}
	resourceKeywords = []string{
		"resource",
		"no such file",
		"could not open",
		"not found",
		"permission",
		"read",
		"write",
		"device",
	}
)

// ClassifyError categorises a bus error by its message and debug text.
// Plugin failures are checked first since their messages often also
// mention files.
func ClassifyError(message, debug string) ErrorCategory {
	s := strings.ToLower(message + " " + debug)
	switch {
	case containsAny(s, pluginKeywords):
		return ErrCategoryPlugin
	case containsAny(s, codecKeywords):
		return ErrCategoryCodec
	case containsAny(s, resourceKeywords):
		return ErrCategoryResource
	}
	return ErrCategoryUnknown
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// BusError is an error or warning posted on the pipeline bus.
type BusError struct {
	Source   string
	Message  string
	Debug    string
	Category ErrorCategory
}

func NewBusError(source, message, debug string) *BusError {
	return &BusError{
		Source:   source,
		Message:  message,
		Debug:    debug,
		Category: ClassifyError(message, debug),
	}
}

func (e *BusError) Error() string {
	return fmt.Sprintf("%s error from %s: %s", e.Category, e.Source, e.Message)
}
