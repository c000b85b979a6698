package railapi

import (
	"errors"
	"fmt"
)

// Sentinel errors for the two fetch failure modes callers branch on. Both are
// terminal for the call that produced them; retry happens only on the owning
// timer's next tick.
var (
	// ErrInvalidURL means the request URL could not be built.
	ErrInvalidURL = errors.New("invalid request URL")

	// ErrNoData means the upstream returned a successful but empty response.
	ErrNoData = errors.New("no data in response")
)

// DecodeError means the response body did not match the expected schema.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s response: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
