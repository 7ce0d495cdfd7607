package types

import (
	"errors"
	"fmt"
)

// Gateway and catalog errors.
var (
	ErrNotFound        = errors.New("entity not found")
	ErrMissingEndpoint = errors.New("operation not configured")
	ErrUnsupported     = errors.New("operation not supported by resource")
	ErrInvalidConfig   = errors.New("invalid resource config")
	ErrUnknownResource = errors.New("unknown resource")
)

// Engine errors.
var (
	ErrUnknownColumn        = errors.New("unknown column")
	ErrNotSortable          = errors.New("column is not sortable")
	ErrUnknownField         = errors.New("unknown field")
	ErrUnknownSegment       = errors.New("unknown segment")
	ErrNotEditable          = errors.New("field is not editable")
	ErrEditInProgress       = errors.New("another field is being edited")
	ErrNoEditSession        = errors.New("no field is being edited")
	ErrSaveInProgress       = errors.New("save already in progress")
	ErrTabDisabled          = errors.New("tab is not configured")
	ErrTabNotLoaded         = errors.New("tab is still loading")
	ErrConfirmationRequired = errors.New("delete must be requested before it is confirmed")
	ErrNoEntity             = errors.New("no entity is open")
)

// ValidationError is a local, field-level validation failure. It never
// reaches the gateway.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
