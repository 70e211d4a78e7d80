package database

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

const uniqueViolation = pq.ErrorCode("23505")

// IsUniqueViolation reports whether err is a postgres unique violation involving column.
// The constraint name is checked first, then the message and detail for drivers that omit it.
func IsUniqueViolation(err error, column string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return false
	}
	return strings.Contains(pqErr.Constraint, column) ||
		strings.Contains(pqErr.Message, column) ||
		strings.Contains(pqErr.Detail, column)
}
