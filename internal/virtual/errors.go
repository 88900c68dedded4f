package virtual

import "fmt"

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors, compared with errors.Is.
var (
	// ErrConfiguration indicates geometry that cannot produce a valid window,
	// such as a non-positive item height or an unparseable container height.
	// It is fatal to the list instance that reports it.
	ErrConfiguration = constError("invalid list configuration")

	// ErrMeasurementUnavailable indicates the parent container has no
	// measurable layout yet. Trackers absorb it into the pending state.
	ErrMeasurementUnavailable = constError("container measurement unavailable")
)

// configError wraps ErrConfiguration with detail about the offending value.
func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
