package models

import (
	"gorm.io/gorm"
)

const (
	RoleLearner  = "LEARNER"
	RoleEducator = "EDUCATOR"
	RoleAdmin    = "ADMIN"
)

type User struct {
	gorm.Model
	Name          string `json:"name" gorm:"default:''"`
	Email         string `json:"email" gorm:"uniqueIndex;not null"`
	Password      string `json:"-" gorm:"not null"`
	Role          string `json:"role" gorm:"default:'LEARNER'"` // LEARNER, EDUCATOR, ADMIN
	InstitutionID *uint  `json:"institution_id"`
	IsDeleted     bool   `json:"-" gorm:"default:false"`
}

// Institution is the organisation an educator teaches for.
type Institution struct {
	gorm.Model
	Name      string `json:"name" gorm:"not null"`
	IsDeleted bool   `json:"-" gorm:"default:false"`
}
