package repository

import (
	"errors"
	"fmt"

	"github.com/okian/smarthr/internal/domain/model"
)

// Sentinel kinds for store errors. ErrNotFound and ErrInvalidLimit wrap the
// domain kinds so callers can classify with errors.Is against either.
var (
	ErrNotFound     = fmt.Errorf("record %w", model.ErrNotFound)
	ErrInvalidLimit = fmt.Errorf("invalid list limit: %w", model.ErrValidation)
	ErrConflict     = errors.New("record already exists")
	ErrStaleStatus  = errors.New("suggestion status changed concurrently")
	ErrUnknownKind  = fmt.Errorf("unknown suggestion kind: %w", model.ErrValidation)
)
