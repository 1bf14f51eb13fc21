package list

import "errors"

var (
	// ErrInvalidID indicates a container identifier could not be parsed into
	// the configured id kind.
	ErrInvalidID = errors.New("invalid container id")
	// ErrConflict indicates a create matched no container: either the
	// container is missing or the duplicate guard rejected the element.
	ErrConflict = errors.New("item already exists in list")
	// ErrInvalidArgument indicates a caller contract violation such as an
	// unknown action or a scalar payload without its value envelope.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidPayload indicates the consistency check rejected a payload.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrNotFound indicates a document lookup returned nothing.
	ErrNotFound = errors.New("not found")
	// ErrNotInitialized indicates an accessor was used without a client.
	ErrNotInitialized = errors.New("collection not initialized")
	// ErrCompliance indicates the session compliance follow-up failed after
	// a committed delete.
	ErrCompliance = errors.New("session compliance recalculation failed")
)
