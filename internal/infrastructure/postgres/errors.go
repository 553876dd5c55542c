package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation = "23505"
	invalidTextRep  = "22P02"
)

// missingRow reports whether an id-keyed query failed to address a row:
// either no row matched, or the id is not a valid uuid at all. Path ids come
// straight from clients, so both cases read as "does not exist".
func missingRow(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextRep
}
