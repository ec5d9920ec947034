// Package postgres persists the adjudication aggregates with sqlx and
// plain SQL built through the shared query builder.
package postgres

import (
	"database/sql"
	"errors"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
