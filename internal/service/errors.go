package service

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/eventstream/pulse/internal/utils"
)

// mapNotFound converts sql.ErrNoRows into utils.ErrNotFound with context.
func mapNotFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), utils.ErrNotFound)
	}
	return err
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), utils.ErrInvalidArgument)
}
