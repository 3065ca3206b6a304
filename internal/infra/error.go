package infra

import (
	"context"
	"errors"

	"clinic-booking/internal/pkg/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type RepositoryErrorKind string

// Infrastructure-specific error kinds. The engine maps these onto its own
// taxonomy; no raw storage error ever crosses the usecase boundary.
const (
	KindNotFound    RepositoryErrorKind = "NOT_FOUND"
	KindConflict    RepositoryErrorKind = "CONFLICT"
	KindLockTimeout RepositoryErrorKind = "LOCK_TIMEOUT"
	KindDBFailure   RepositoryErrorKind = "DB_FAILURE"
)

const (
	pgErrCodeUniqueViolation  = "23505"
	pgErrCodeLockNotAvailable = "55P03"
	pgErrCodeQueryCanceled    = "57014"
)

type RepositoryError struct {
	Kind RepositoryErrorKind
	msg  string
	err  error // wrapped low-level error
}

func (e RepositoryError) Error() string {
	if e.err != nil {
		return string(e.Kind) + ": " + e.msg + ": " + e.err.Error()
	}
	return string(e.Kind) + ": " + e.msg
}

func (e RepositoryError) Unwrap() error {
	return e.err
}

// WrapRepoErr classifies err unless an explicit kind is given.
func WrapRepoErr(msg string, err error, kind ...RepositoryErrorKind) error {
	k := ClassifyError(err)
	if len(kind) > 0 {
		k = kind[0]
	}

	if err != nil {
		err = errs.Wrap(err, msg)
	}

	return RepositoryError{Kind: k, msg: msg, err: err}
}

func IsKind(err error, kind RepositoryErrorKind) bool {
	var e RepositoryError
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// ClassifyError maps driver-level failures to a kind. Unique-index
// violations are conflicts (a concurrent writer won the race); lock waits
// and cancelled statements are transient and safe to retry.
func ClassifyError(err error) RepositoryErrorKind {
	if err == nil {
		return KindDBFailure
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return KindNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindLockTimeout
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrCodeUniqueViolation:
			return KindConflict
		case pgErrCodeLockNotAvailable, pgErrCodeQueryCanceled:
			return KindLockTimeout
		}
	}

	return KindDBFailure
}
