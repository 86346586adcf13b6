package daegufood

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotDone matches every StatusError.
var ErrNotDone = errors.New("daegufood API returned non-DONE status")

// HTTPError is a non-2xx response from the API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("daegufood API error: HTTP %d", e.StatusCode)
}

// StatusError is a 2xx response whose payload status is not DONE.
type StatusError struct {
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("daegufood API returned status %q", e.Status)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotDone
}
