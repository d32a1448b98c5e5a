package megaupload

import (
	"errors"
	"fmt"
)

// Sentinel error kinds, per spec §7. Each is safe to match with errors.Is/errors.As after the
// wrapping fmt.Errorf calls at the raise sites.
var (
	// ErrNotFound is raised by the Coordinator when the source path is
	// missing or is not a regular file.
	ErrNotFound = errors.New("megaupload: source file not found")

	// ErrIO is raised by the chunk reader on an underlying storage
	// failure. The upload is aborted; callers may retry the whole run.
	ErrIO = errors.New("megaupload: i/o error reading source file")

	// ErrOrder is raised by the stream cipher when a chunk is presented
	// out of sequence. This indicates a coordinator bug, not a
	// transient condition.
	ErrOrder = errors.New("megaupload: chunk presented out of order")

	// ErrTransport is raised by the uploader on a non-2xx HTTP status
	// or a connection failure.
	ErrTransport = errors.New("megaupload: transport error")

	// ErrProtocol is raised by the uploader when the server returns an
	// empty or otherwise unusable body where a token was required; the
	// Coordinator raises it when no completion token was collected, and
	// RequestUploadURL when the upload-url response is unusable.
	ErrProtocol = errors.New("megaupload: protocol error")

	// ErrIntegrity is raised by the Coordinator when the MAC engine's
	// finalize call times out before the queue drains. Per spec §9,
	// this is always treated as a failure — a partial meta-MAC is
	// never accepted.
	ErrIntegrity = errors.New("megaupload: MAC drain timed out, integrity not established")
)

// ServiceError wraps a numeric error code returned by the MEGA service,
// either from a chunk upload response (§4.5) or from the node-creation
// request (§4.7 step 5).
type ServiceError struct {
	Code int
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("megaupload: service error %d", e.Code)
}

// NewServiceError builds a ServiceError for the given numeric code.
func NewServiceError(code int) error {
	return &ServiceError{Code: code}
}
