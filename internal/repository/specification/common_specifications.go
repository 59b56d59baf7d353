package specification

import (
	"fmt"

	"textbehind-be/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByID filters by primary key
type ByID struct {
	ID uuid.UUID
}

func (s ByID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id = ?", s.ID)
}

func (s ByID) Matches(a *entity.UserAccount) bool {
	return a != nil && a.Id == s.ID
}

// OrderBy applies ordering (no-op for the memory repository)
type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	direction := "ASC"
	if s.Desc {
		direction = "DESC"
	}
	return db.Order(fmt.Sprintf("%s %s", s.Field, direction))
}

func (s OrderBy) Matches(a *entity.UserAccount) bool {
	return true
}

// Pagination limits result sets (no-op for the memory repository)
type Pagination struct {
	Limit  int
	Offset int
}

func (s Pagination) Apply(db *gorm.DB) *gorm.DB {
	return db.Limit(s.Limit).Offset(s.Offset)
}

func (s Pagination) Matches(a *entity.UserAccount) bool {
	return true
}
