// Package tenancy describes which rows a caller may see.
// This is part of the platform layer and contains no business logic.
package tenancy

import (
	"fmt"

	"github.com/google/uuid"
)

// Scope identifies the caller's ownership boundary: the user and, when the
// user belongs to a company, that company.
type Scope struct {
	UserID    uuid.UUID
	CompanyID *uuid.UUID
}

// ForUser returns a scope without a company.
func ForUser(userID uuid.UUID) Scope {
	return Scope{UserID: userID}
}

// WithCompany returns a copy of s bound to companyID.
func (s Scope) WithCompany(companyID uuid.UUID) Scope {
	s.CompanyID = &companyID
	return s
}

// Predicate renders the row filter for table alias (may be empty) using
// positional parameters $n (user) and $n+1 (company).
func Predicate(alias string, n int) string {
	prefix := ""
	if alias != "" {
		prefix = alias + "."
	}
	return fmt.Sprintf("(%suser_id = $%d OR ($%d::uuid IS NOT NULL AND %scompany_id = $%d))",
		prefix, n, n+1, prefix, n+1)
}

// Args returns the values bound to Predicate's parameters.
func (s Scope) Args() []any {
	return []any{s.UserID, s.CompanyID}
}
