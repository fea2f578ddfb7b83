package repository

import (
	stderrors "errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = stderrors.New("record not found")
	ErrDuplicate = stderrors.New("duplicate record")
	// ErrStateConflict is returned when a row is not in the state a transition requires.
	ErrStateConflict = stderrors.New("record state conflict")
)

const uniqueViolation = "23505"

// translate maps driver level failures onto the repository sentinels and
// wraps everything else with the failing operation.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	switch {
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		return errors.Wrap(ErrNotFound, op)
	case stderrors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return errors.Wrap(ErrDuplicate, op)
	}
	return errors.Wrap(err, op)
}

func isUniqueViolation(err error) bool {
	var pgxErr *pgconn.PgError
	if stderrors.As(err, &pgxErr) {
		return pgxErr.Code == uniqueViolation
	}
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}
