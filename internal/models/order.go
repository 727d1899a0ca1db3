package models

import "time"

type OrderItem struct {
	MenuItemID          string  `yaml:"menu_item_id" json:"menu_item_id" db:"menu_item_id"`
	Name                string  `yaml:"name" json:"name" db:"name"`
	Price               float64 `yaml:"price" json:"price" db:"price"`
	Quantity            int     `yaml:"quantity" json:"quantity" db:"quantity"`
	SpecialInstructions string  `yaml:"special_instructions" json:"special_instructions,omitempty" db:"special_instructions"`
}

// Order is read by the engine for aggregation only.
type Order struct {
	ID            string      `yaml:"-" json:"id" db:"id"`
	CustomerName  string      `yaml:"customer_name" json:"customer_name" db:"customer_name"`
	CustomerEmail string      `yaml:"customer_email" json:"customer_email,omitempty" db:"customer_email"`
	CustomerPhone string      `yaml:"customer_phone" json:"customer_phone,omitempty" db:"customer_phone"`
	TableID       string      `yaml:"-" json:"table_id,omitempty" db:"table_id"`
	Items         []OrderItem `yaml:"items" json:"items" db:"-"`
	Total         float64     `yaml:"total" json:"total" db:"total"`
	Status        string      `yaml:"status" json:"status" db:"status"`                         // pending, preparing, ready, delivered, cancelled
	OrderType     string      `yaml:"order_type" json:"order_type" db:"order_type"`             // dine-in, takeout, delivery
	PaymentStatus string      `yaml:"payment_status" json:"payment_status" db:"payment_status"` // pending, paid, failed
	PaymentMethod string      `yaml:"payment_method" json:"payment_method,omitempty" db:"payment_method"`
	CreatedAt     time.Time   `yaml:"-" json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `yaml:"-" json:"updated_at" db:"updated_at"`
}
