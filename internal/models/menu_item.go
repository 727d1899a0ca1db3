package models

import "time"

type MenuItem struct {
	ID           string    `yaml:"id" json:"id" db:"id"`
	Name         string    `yaml:"name" json:"name" db:"name"`
	Description  string    `yaml:"description" json:"description" db:"description"`
	Price        float64   `yaml:"price" json:"price" db:"price"`
	Category     string    `yaml:"category" json:"category" db:"category"`
	IsAvailable  bool      `yaml:"is_available" json:"is_available" db:"is_available"`
	IsVegetarian bool      `yaml:"is_vegetarian" json:"is_vegetarian" db:"is_vegetarian"`
	IsVegan      bool      `yaml:"is_vegan" json:"is_vegan" db:"is_vegan"`
	IsGlutenFree bool      `yaml:"is_gluten_free" json:"is_gluten_free" db:"is_gluten_free"`
	SpicyLevel   int       `yaml:"spicy_level" json:"spicy_level" db:"spicy_level"`
	CreatedAt    time.Time `yaml:"-" json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `yaml:"-" json:"updated_at" db:"updated_at"`
}
