package intake

import (
	"errors"
	"strings"
)

var (
	ErrInvalidDepartment = errors.New("invalid department")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrPayloadMismatch   = errors.New("payload does not match unit department")
	ErrFieldLocked       = errors.New("field cannot change on a persisted unit")
	ErrDiseaseNotFound   = errors.New("disease not selected on unit")
	ErrDuplicateDisease  = errors.New("disease selected more than once")
)

// ValidationError carries every problem found in one validation pass
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}
