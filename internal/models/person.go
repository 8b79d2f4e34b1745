package models

import "strings"

// PersonModel is an author or medical reviewer.
type PersonModel struct {
	DocumentBase
	FirstName string `json:"firstName,omitempty" gorm:"size:128"                validate:"notblank"`
	LastName  string `json:"lastName,omitempty"  gorm:"size:128"                validate:"notblank"`
	Picture   *Image `json:"picture,omitempty"   gorm:"type:text;serializer:json"`
}

func (PersonModel) TableName() string { return "people" }

// FullName joins first and last name, skipping empty parts.
func (p *PersonModel) FullName() string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}
