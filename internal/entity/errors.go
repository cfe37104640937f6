package entity

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Kind classifies an operation failure into the categories callers can
// act on.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindPermissionDenied Kind = "permission_denied"
	KindValidation       Kind = "validation"
	KindDuplicate        Kind = "duplicate_entry"
	KindForeignKey       Kind = "foreign_key_violation"
	KindResolution       Kind = "resolution"
	KindUnknown          Kind = "unknown"
)

// Error is the error type returned by every Client operation.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Postgres error codes classified at the store boundary.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInsufficientPrivs   = "42501"
)

// classify wraps a store error into an *Error, mapping driver error
// codes to the matching kind. Already-classified errors pass through.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &Error{Kind: KindNotFound, Op: op, Msg: "record not found", Err: err}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation:
			return &Error{Kind: KindDuplicate, Op: op, Msg: "duplicate entry", Err: err}
		case pgForeignKeyViolation:
			return &Error{Kind: KindForeignKey, Op: op, Msg: "referenced record does not exist", Err: err}
		case pgInsufficientPrivs:
			return &Error{Kind: KindPermissionDenied, Op: op, Msg: "permission denied", Err: err}
		}
	}
	return &Error{Kind: KindUnknown, Op: op, Msg: "operation failed", Err: err}
}

func validationError(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg}
}

func resolutionError(op string, err error) error {
	return &Error{Kind: KindResolution, Op: op, Msg: "resolving related records failed", Err: err}
}

func kindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool { return kindOf(err) == KindNotFound }

// IsPermissionDenied reports whether err is a permission failure.
func IsPermissionDenied(err error) bool { return kindOf(err) == KindPermissionDenied }

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return kindOf(err) == KindValidation }

// IsDuplicate reports whether err is a unique-constraint failure.
func IsDuplicate(err error) bool { return kindOf(err) == KindDuplicate }

// IsForeignKey reports whether err is a foreign-key failure.
func IsForeignKey(err error) bool { return kindOf(err) == KindForeignKey }
