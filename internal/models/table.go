package models

import "time"

type Table struct {
	ID          string    `json:"id" db:"id"`
	Number      int       `json:"number" db:"number"`
	Capacity    int       `json:"capacity" db:"capacity"`
	Location    Location  `json:"location" db:"location"`
	IsAvailable bool      `json:"is_available" db:"is_available"` // out-of-service flag, not occupancy
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// TableSpec is the input for creating a table. A nil IsAvailable means available.
type TableSpec struct {
	Number      int      `yaml:"number" json:"number"`
	Capacity    int      `yaml:"capacity" json:"capacity"`
	Location    Location `yaml:"location" json:"location"`
	IsAvailable *bool    `yaml:"is_available" json:"is_available,omitempty"`
}

type TablePatch struct {
	Number      *int      `json:"number,omitempty"`
	Capacity    *int      `json:"capacity,omitempty"`
	Location    *Location `json:"location,omitempty"`
	IsAvailable *bool     `json:"is_available,omitempty"`
}

// Apply merges the non-nil patch fields into t. Timestamps are left to the caller.
func (p TablePatch) Apply(t *Table) {
	if p.Number != nil {
		t.Number = *p.Number
	}
	if p.Capacity != nil {
		t.Capacity = *p.Capacity
	}
	if p.Location != nil {
		t.Location = *p.Location
	}
	if p.IsAvailable != nil {
		t.IsAvailable = *p.IsAvailable
	}
}

// TableRemoval is what a table delete found among the bookings.
type TableRemoval struct {
	Removed     bool
	Referencing int // bookings pointing at the table, any status
	Active      int // the non-cancelled ones among them
}

// Fits reports whether the table is in service and seats at least partySize guests.
func (t *Table) Fits(partySize int) bool {
	return t.IsAvailable && t.Capacity >= partySize
}
