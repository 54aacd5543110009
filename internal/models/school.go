package models

import (
	"time"

	"github.com/google/uuid"
)

// School owns one or more shops. ShortCode is an optional abbreviation
// that exports commonly use as a product tag.
type School struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"not null"`
	ShortCode *string   `json:"shortCode,omitempty" gorm:"column:short_code;index"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Shop is a storefront for one school (usually one per school year).
type Shop struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SchoolID  uuid.UUID `json:"schoolId" gorm:"type:uuid;not null;index"`
	School    *School   `json:"school,omitempty" gorm:"foreignKey:SchoolID"`
	Slug      string    `json:"slug" gorm:"not null;uniqueIndex"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (School) TableName() string {
	return "schools"
}

func (Shop) TableName() string {
	return "shops"
}
