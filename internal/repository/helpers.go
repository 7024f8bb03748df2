package repository

import (
	"database/sql"
	"fmt"
)

// requireRowsAffected maps a zero-row result onto sql.ErrNoRows so services
// can treat missing rows and failed conditional updates uniformly.
func requireRowsAffected(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
