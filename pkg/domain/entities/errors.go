package entities

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is matched by every NotFoundError
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict is returned when a stock row changed since it was read
	ErrVersionConflict = errors.New("version conflict")
	// ErrInvalidArgument marks caller input that can never succeed
	ErrInvalidArgument = errors.New("invalid argument")
)

// NotFoundError names the missing resource
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ImportNotFound builds the error for a missing or soft-deleted import
func ImportNotFound(id ImportID) error {
	return &NotFoundError{Resource: "import", Key: fmt.Sprintf("%d", id)}
}

// MaterialNotFound builds the error for a material absent from an import
func MaterialNotFound(id ImportID, code MaterialCode) error {
	return &NotFoundError{Resource: "material", Key: fmt.Sprintf("%d/%s", id, code)}
}
