package models

import (
	"time"
)

type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"uniqueIndex;size:255;not null" json:"email"` // always lower-cased
	Password     string     `gorm:"not null" json:"-"`                          // bcrypt hash
	Name         string     `gorm:"size:120;not null" json:"name"`
	Registration string     `gorm:"size:30" json:"registration"` // matrícula
	Position     string     `gorm:"size:80" json:"position"`
	Unit         string     `gorm:"size:120" json:"unit"`
	Avatar       string     `json:"avatar"`
	Bio          string     `gorm:"size:300" json:"bio"`
	SpecialtyID  *uint      `gorm:"index" json:"specialtyId"`
	Specialty    *Specialty `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"specialty,omitempty"`
	GoogleID     string     `gorm:"index;size:64" json:"-"`
	IsAdmin      bool       `gorm:"not null" json:"isAdmin"`
	IsModerator  bool       `gorm:"not null" json:"isModerator"`
	IsActive     bool       `gorm:"not null" json:"isActive"` // set explicitly on create; no DB default
	LastLoginAt  *time.Time `json:"lastLoginAt"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	// No DeletedAt: accounts are deactivated, never removed
}
