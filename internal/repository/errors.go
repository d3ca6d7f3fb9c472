package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors shared by repositories.
var (
	ErrDuplicate  = errors.New("record already exists")
	ErrReferenced = errors.New("record is referenced by other records")
	ErrNotFound   = errors.New("record not found")
)

// mapWriteError converts unique and foreign-key violations into sentinels.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrDuplicate
		case "23503":
			return ErrReferenced
		}
	}
	return err
}

// IsNotFound reports whether err means no row matched.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, ErrNotFound)
}

// execAffected turns a zero-row update or delete into ErrNotFound.
func execAffected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
