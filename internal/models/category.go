package models

import (
	"strings"

	"gorm.io/gorm"
)

// Category is a flat label that can be attached to transactions.
type Category struct {
	DefaultModel
	Name string `json:"name" gorm:"size:80;uniqueIndex" example:"Groceries"`
}

// BeforeSave trims whitespace and validates the name.
func (c *Category) BeforeSave(_ *gorm.DB) (err error) {
	c.Name = strings.TrimSpace(c.Name)

	if c.Name == "" {
		return ErrNameRequired
	}

	return maxLength("name", c.Name, 80)
}
