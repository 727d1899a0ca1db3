package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "restobar",
			Name:      "bookings_created_total",
			Help:      "Confirmed bookings written to the ledger.",
		},
	)

	bookingConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "restobar",
			Name:      "booking_conflicts_total",
			Help:      "Writes rejected because the slot already had a confirmed booking.",
		},
	)

	availabilityChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "restobar",
			Name:      "availability_checks_total",
			Help:      "Availability checks by result.",
		},
		[]string{"result"},
	)

	tablesDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "restobar",
			Name:      "tables_deleted_total",
			Help:      "Tables removed from the registry by delete policy.",
		},
		[]string{"policy"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingsCreated, bookingConflicts, availabilityChecks, tablesDeleted)
	})
}

func IncBookingCreated() {
	bookingsCreated.Inc()
}

func IncBookingConflict() {
	bookingConflicts.Inc()
}

// ObserveAvailability counts one availability answer.
func ObserveAvailability(available bool) {
	result := "taken"
	if available {
		result = "available"
	}
	availabilityChecks.WithLabelValues(result).Inc()
}

func IncTableDeleted(policy string) {
	tablesDeleted.WithLabelValues(policy).Inc()
}
