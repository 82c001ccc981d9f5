package repository

import (
	"errors"
	"fmt"

	"github.com/okian/parkrank/internal/domain/model"
)

// Sentinel kinds for store errors.
var (
	ErrNotFound     = model.ErrNotFound
	ErrInvalidLimit = fmt.Errorf("invalid limit: %w", model.ErrInvalidInput)
	ErrClosed       = errors.New("store closed")
)
