package database

import (
	"database/sql"
	"errors"

	"github.com/mquintana/divscope/internal/models"
)

// MapSQLiteError converts driver-level errors into the domain sentinels.
func MapSQLiteError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}

	return err
}
