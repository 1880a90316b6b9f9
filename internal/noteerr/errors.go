package noteerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure so callers can decide between retry, fallback,
// degrade and abort without string-matching messages.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNotFound means the video/playlist reference does not resolve.
	KindNotFound
	// KindNoCaptions means the uploader provides no captions. It is an
	// expected condition that triggers the audio fallback, not a failure.
	KindNoCaptions
	// KindNetwork covers transient connectivity failures.
	KindNetwork
	// KindTimeout covers collaborator calls exceeding their deadline.
	KindTimeout
	// KindResourceExhausted covers non-retryable local resource failures,
	// e.g. not enough memory to load a transcription model.
	KindResourceExhausted
	// KindProvider covers AI provider failures other than quota.
	KindProvider
	// KindQuotaExceeded covers AI provider rate/quota rejections.
	KindQuotaExceeded
	// KindStorageUnavailable means the cache medium cannot be used; callers
	// operate without cache rather than failing.
	KindStorageUnavailable
	// KindPlaylistResolution means a playlist reference could not be
	// expanded; it invalidates the whole batch.
	KindPlaylistResolution
	// KindExtraction wraps a terminal extraction failure after all
	// methods were exhausted.
	KindExtraction
	// KindValidation covers malformed input.
	KindValidation
	// KindConfig covers missing or invalid configuration.
	KindConfig
	// KindCancelled means the surrounding run was cancelled before or
	// while the item executed.
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindNoCaptions:
		return "NoCaptions"
	case KindNetwork:
		return "Network"
	case KindTimeout:
		return "Timeout"
	case KindResourceExhausted:
		return "ResourceExhausted"
	case KindProvider:
		return "Provider"
	case KindQuotaExceeded:
		return "QuotaExceeded"
	case KindStorageUnavailable:
		return "StorageUnavailable"
	case KindPlaylistResolution:
		return "PlaylistResolutionFailed"
	case KindExtraction:
		return "ExtractionFailed"
	case KindValidation:
		return "Validation"
	case KindConfig:
		return "Config"
	case KindCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Context map[string]any
	Cause   error
}

func New(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Context: make(map[string]any),
	}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

func Wrap(err error, kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Context: make(map[string]any),
		Cause:   err,
	}
}

func (e *Error) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", e.Kind.String(), e.Message))

	if len(e.Context) > 0 {
		var ctxParts []string
		for k, v := range e.Context {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(ctxParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) WithContext(key string, value any) *Error {
	e.Context[key] = value
	return e
}

// IsKind reports whether err (or anything it wraps) carries the given kind.
func IsKind(err error, kind Kind) bool {
	var nerr *Error
	if errors.As(err, &nerr) {
		return nerr.Kind == kind
	}
	return false
}

// KindOf returns the kind carried by err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var nerr *Error
	if errors.As(err, &nerr) {
		return nerr.Kind
	}
	return KindUnknown
}

// IsTransient reports whether err is worth retrying with backoff.
func IsTransient(err error) bool {
	switch KindOf(err) {
	case KindNetwork, KindTimeout:
		return true
	default:
		return false
	}
}
