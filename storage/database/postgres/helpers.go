// Package pgdb implements the repositories on PostgreSQL via sqlx. The
// domain invariants (one admin per club, one pending request per identity,
// one signup per student) are enforced by the schema's unique indexes, so
// concurrent writers race on the index rather than on application checks.
package pgdb

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

const uniqueViolationCode = "23505"

// uniqueViolation reports whether err is a unique index violation, on the
// named constraint when given.
func uniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != uniqueViolationCode {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// Optional timestamps are stored as the zero time in NOT NULL columns and
// surface as nil pointers on the domain models.

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
