package insight

import (
	"encoding/json"
	"fmt"
	"time"
)

// GenerationError means the text-generation call failed or produced no
// usable content.
type GenerationError struct {
	Mode Mode
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Mode, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// GenerationFormatError means the call succeeded but the content did not
// match the structured shape the mode requires.
type GenerationFormatError struct {
	Mode    Mode
	Content json.RawMessage
	Err     error
}

func (e *GenerationFormatError) Error() string {
	return fmt.Sprintf("%s response has invalid format: %v", e.Mode, e.Err)
}

func (e *GenerationFormatError) Unwrap() error { return e.Err }

// GenerationTimeoutError means the call did not finish within the
// composer's timeout.
type GenerationTimeoutError struct {
	Mode    Mode
	Timeout time.Duration
	Err     error
}

func (e *GenerationTimeoutError) Error() string {
	return fmt.Sprintf("%s generation timed out after %s", e.Mode, e.Timeout)
}

func (e *GenerationTimeoutError) Unwrap() error { return e.Err }
