package workflow

import (
	"errors"
	"fmt"
)

// ErrNilDocumentID signals input validation failure.
var ErrNilDocumentID = errors.New("workflow: document id required")

// ErrNilActorID signals a user transition submitted without an actor.
var ErrNilActorID = errors.New("workflow: actor id required")

// ErrUnknownKind signals an unrecognized workflow kind.
var ErrUnknownKind = errors.New("workflow: unknown workflow kind")

// ErrSupersedeTargetRequired signals an up-version workflow started without
// naming the document it replaces.
var ErrSupersedeTargetRequired = errors.New("workflow: up_version requires a superseded document")

// NotFoundError is returned when a workflow record does not exist.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

// IsNotFound reports whether err is a workflow NotFoundError.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}
