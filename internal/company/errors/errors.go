package errors

import (
	"fmt"
)

var (
	ErrNotFound            = fmt.Errorf("not found")
	ErrInvalidInput        = fmt.Errorf("invalid input")
	ErrSearchUnavailable   = fmt.Errorf("search unavailable")
	ErrRegistryUnavailable = fmt.Errorf("registry unavailable")
	ErrReferenceData       = fmt.Errorf("reference data")
)
