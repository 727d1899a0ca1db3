package models

import "time"

type Booking struct {
	ID              string        `json:"id" db:"id"`
	CustomerName    string        `json:"customer_name" db:"customer_name"`
	CustomerPhone   string        `json:"customer_phone" db:"customer_phone"`
	CustomerEmail   string        `json:"customer_email,omitempty" db:"customer_email"`
	TableID         string        `json:"table_id" db:"table_id"`
	PartySize       int           `json:"party_size" db:"party_size"`
	Date            string        `json:"date" db:"date"` // 2006-01-02
	Time            string        `json:"time" db:"time"` // 15:04
	SpecialRequests string        `json:"special_requests,omitempty" db:"special_requests"`
	Status          BookingStatus `json:"status" db:"status"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// BookingSpec is the input for creating a booking. Status is accepted for
// symmetry with the form payload but creation always confirms.
type BookingSpec struct {
	CustomerName    string        `yaml:"customer_name" json:"customer_name"`
	CustomerPhone   string        `yaml:"customer_phone" json:"customer_phone"`
	CustomerEmail   string        `yaml:"customer_email" json:"customer_email,omitempty"`
	TableID         string        `yaml:"table_id" json:"table_id"`
	PartySize       int           `yaml:"party_size" json:"party_size"`
	Date            string        `yaml:"date" json:"date"`
	Time            string        `yaml:"time" json:"time"`
	SpecialRequests string        `yaml:"special_requests" json:"special_requests,omitempty"`
	Status          BookingStatus `yaml:"status" json:"status,omitempty"`
}

type BookingPatch struct {
	CustomerName    *string        `json:"customer_name,omitempty"`
	CustomerPhone   *string        `json:"customer_phone,omitempty"`
	CustomerEmail   *string        `json:"customer_email,omitempty"`
	TableID         *string        `json:"table_id,omitempty"`
	PartySize       *int           `json:"party_size,omitempty"`
	Date            *string        `json:"date,omitempty"`
	Time            *string        `json:"time,omitempty"`
	SpecialRequests *string        `json:"special_requests,omitempty"`
	Status          *BookingStatus `json:"status,omitempty"`
}

func (p BookingPatch) Apply(b *Booking) {
	if p.CustomerName != nil {
		b.CustomerName = *p.CustomerName
	}
	if p.CustomerPhone != nil {
		b.CustomerPhone = *p.CustomerPhone
	}
	if p.CustomerEmail != nil {
		b.CustomerEmail = *p.CustomerEmail
	}
	if p.TableID != nil {
		b.TableID = *p.TableID
	}
	if p.PartySize != nil {
		b.PartySize = *p.PartySize
	}
	if p.Date != nil {
		b.Date = *p.Date
	}
	if p.Time != nil {
		b.Time = *p.Time
	}
	if p.SpecialRequests != nil {
		b.SpecialRequests = *p.SpecialRequests
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
}

// TouchesSlot reports whether applying the patch can move the booking into a
// different slot or into the confirmed state.
func (p BookingPatch) TouchesSlot() bool {
	return p.TableID != nil || p.Date != nil || p.Time != nil || p.Status != nil
}

// Occupies reports whether the booking holds its slot.
func (b *Booking) Occupies() bool {
	return b.Status == StatusConfirmed
}

func (b *Booking) SlotKey() string {
	return SlotKey(b.Date, b.Time, b.TableID)
}

// SlotKey renders the (date, time, table) identity of a slot.
func SlotKey(date, tm, tableID string) string {
	return date + "|" + tm + "|" + tableID
}

// ValidDate reports whether s is a date in canonical YYYY-MM-DD form.
// time.Parse alone would accept shorter fields, which breaks string ordering.
func ValidDate(s string) bool {
	t, err := time.Parse(DateLayout, s)
	return err == nil && t.Format(DateLayout) == s
}

// ValidTime reports whether s is a time of day in canonical HH:MM form.
func ValidTime(s string) bool {
	t, err := time.Parse(TimeLayout, s)
	return err == nil && t.Format(TimeLayout) == s
}
