package models

// UpcomingBooking is a dashboard row. TableNumber is 0 when the table no longer exists.
type UpcomingBooking struct {
	Booking
	TableNumber int `json:"table_number"`
}

type Dashboard struct {
	Today              string            `json:"today"`
	TodaysBookings     []Booking         `json:"todays_bookings"`
	TodaysOrders       []Order           `json:"todays_orders"`
	TodaysRevenue      float64           `json:"todays_revenue"`
	UpcomingBookings   []UpcomingBooking `json:"upcoming_bookings"`
	RecentOrders       []Order           `json:"recent_orders"`
	MenuItemCount      int               `json:"menu_item_count"`
	AvailableMenuItems int               `json:"available_menu_items"`
}

// AvailabilityQuery asks whether a slot is free. Empty TableID and zero
// PartySize are treated as not supplied.
type AvailabilityQuery struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	TableID   string `json:"table_id,omitempty"`
	PartySize int    `json:"party_size,omitempty"`
}
