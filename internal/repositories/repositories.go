// package repositories provides SQLite implementations of the stores used by the gallery and the CLI
package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// clock is swapped in tests to control created_at ordering.
type clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// affected turns a zero-row update into notFound.
func affected(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
