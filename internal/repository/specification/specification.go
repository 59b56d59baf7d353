package specification

import (
	"textbehind-be/internal/entity"

	"gorm.io/gorm"
)

// Specification defines the interface for query specifications.
// Apply builds the SQL-side filter; Matches evaluates the same predicate
// against an in-memory account so the memory repository (mock mode, tests)
// behaves like the gorm one. Ordering/pagination specs match everything.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
	Matches(account *entity.UserAccount) bool
}
