package models

// BookingStatus is the reservation state. Only confirmed bookings occupy a slot.
type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusPending   BookingStatus = "pending"
	StatusCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is one of the known booking statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusConfirmed, StatusPending, StatusCancelled:
		return true
	}
	return false
}

// Location is the dining area a table sits in.
type Location string

const (
	LocationIndoor  Location = "indoor"
	LocationOutdoor Location = "outdoor"
	LocationBalcony Location = "balcony"
)

func (l Location) Valid() bool {
	switch l {
	case LocationIndoor, LocationOutdoor, LocationBalcony:
		return true
	}
	return false
}

const (
	// DateLayout формат календарной даты бронирования
	DateLayout = "2006-01-02"

	// TimeLayout формат времени бронирования
	TimeLayout = "15:04"

	// DefaultPartySize размер компании, если он не указан
	DefaultPartySize = 2

	// DefaultUpcomingLimit количество ближайших бронирований на дашборде
	DefaultUpcomingLimit = 5

	// DefaultRecentOrdersLimit количество последних заказов на дашборде
	DefaultRecentOrdersLimit = 5

	// LegacyTableCount число столов, зашитое в старую эвристику доступности
	LegacyTableCount = 6

	// DefaultSlotLockTTL время жизни блокировки слота в секундах
	DefaultSlotLockTTL = 10
)

const (
	PartySizeModeCapacity = "capacity"
	PartySizeModeLegacy   = "legacy"
)

const (
	DeletePolicyOrphan   = "orphan"
	DeletePolicyRestrict = "restrict"
)
