package service

import (
	"context"
	"sort"
	"time"

	"restobar/internal/domain"
	"restobar/internal/models"

	"github.com/rs/zerolog"
)

// DashboardInput is the snapshot a dashboard is computed from. Location is
// used to take the calendar date of order timestamps; nil means time.Local.
type DashboardInput struct {
	Bookings      []*models.Booking
	Orders        []*models.Order
	Tables        []*models.Table
	MenuItems     []*models.MenuItem
	Today         string
	Location      *time.Location
	UpcomingLimit int
	RecentLimit   int
}

// ComputeDashboard derives the dashboard from in. Inputs are not modified.
func ComputeDashboard(in DashboardInput) models.Dashboard {
	loc := in.Location
	if loc == nil {
		loc = time.Local
	}
	upcomingLimit := in.UpcomingLimit
	if upcomingLimit <= 0 {
		upcomingLimit = models.DefaultUpcomingLimit
	}
	recentLimit := in.RecentLimit
	if recentLimit <= 0 {
		recentLimit = models.DefaultRecentOrdersLimit
	}

	d := models.Dashboard{
		Today:            in.Today,
		TodaysBookings:   []models.Booking{},
		TodaysOrders:     []models.Order{},
		UpcomingBookings: []models.UpcomingBooking{},
		RecentOrders:     []models.Order{},
	}

	tableNumbers := make(map[string]int, len(in.Tables))
	for _, t := range in.Tables {
		tableNumbers[t.ID] = t.Number
	}

	upcoming := make([]models.Booking, 0, len(in.Bookings))
	for _, b := range in.Bookings {
		if b.Date == in.Today {
			d.TodaysBookings = append(d.TodaysBookings, *b)
		}
		if b.Date >= in.Today && b.Status != models.StatusCancelled {
			upcoming = append(upcoming, *b)
		}
	}

	// ISO dates and times order lexicographically
	sort.SliceStable(upcoming, func(i, j int) bool {
		if upcoming[i].Date != upcoming[j].Date {
			return upcoming[i].Date < upcoming[j].Date
		}
		return upcoming[i].Time < upcoming[j].Time
	})
	for _, b := range upcoming[:min(upcomingLimit, len(upcoming))] {
		d.UpcomingBookings = append(d.UpcomingBookings, models.UpcomingBooking{
			Booking:     b,
			TableNumber: tableNumbers[b.TableID],
		})
	}

	recent := make([]models.Order, 0, len(in.Orders))
	for _, o := range in.Orders {
		order := copyOrder(o)
		if order.CreatedAt.In(loc).Format(models.DateLayout) == in.Today {
			d.TodaysOrders = append(d.TodaysOrders, order)
			d.TodaysRevenue += order.Total
		}
		recent = append(recent, order)
	}

	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	d.RecentOrders = append(d.RecentOrders, recent[:min(recentLimit, len(recent))]...)

	d.MenuItemCount = len(in.MenuItems)
	for _, item := range in.MenuItems {
		if item.IsAvailable {
			d.AvailableMenuItems++
		}
	}

	return d
}

func copyOrder(o *models.Order) models.Order {
	cp := *o
	cp.Items = append([]models.OrderItem(nil), o.Items...)
	return cp
}

// DashboardService snapshots the stores and computes a fresh dashboard on every call.
type DashboardService struct {
	bookings      domain.BookingRepository
	orders        domain.OrderRepository
	tables        domain.TableRepository
	menu          domain.MenuRepository
	location      *time.Location
	upcomingLimit int
	recentLimit   int
	logger        *zerolog.Logger
}

type DashboardOptions struct {
	Location      *time.Location
	UpcomingLimit int
	RecentLimit   int
}

func NewDashboardService(
	bookings domain.BookingRepository,
	orders domain.OrderRepository,
	tables domain.TableRepository,
	menu domain.MenuRepository,
	opts DashboardOptions,
	logger *zerolog.Logger,
) *DashboardService {
	return &DashboardService{
		bookings:      bookings,
		orders:        orders,
		tables:        tables,
		menu:          menu,
		location:      opts.Location,
		upcomingLimit: opts.UpcomingLimit,
		recentLimit:   opts.RecentLimit,
		logger:        logger,
	}
}

// Build computes the dashboard for today (YYYY-MM-DD). An empty today means
// the current date in the configured location.
func (s *DashboardService) Build(ctx context.Context, today string) (models.Dashboard, error) {
	if today == "" {
		loc := s.location
		if loc == nil {
			loc = time.Local
		}
		today = time.Now().In(loc).Format(models.DateLayout)
	}
	if !models.ValidDate(today) {
		return models.Dashboard{}, domain.Invalid("today", "must be YYYY-MM-DD")
	}

	bookings, err := s.bookings.ListBookings(ctx)
	if err != nil {
		return models.Dashboard{}, err
	}
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return models.Dashboard{}, err
	}
	tables, err := s.tables.ListTables(ctx)
	if err != nil {
		return models.Dashboard{}, err
	}
	var menuItems []*models.MenuItem
	if s.menu != nil {
		if menuItems, err = s.menu.ListMenuItems(ctx); err != nil {
			return models.Dashboard{}, err
		}
	}

	dashboard := ComputeDashboard(DashboardInput{
		Bookings:      bookings,
		Orders:        orders,
		Tables:        tables,
		MenuItems:     menuItems,
		Today:         today,
		Location:      s.location,
		UpcomingLimit: s.upcomingLimit,
		RecentLimit:   s.recentLimit,
	})

	s.logger.Debug().
		Str("today", today).
		Int("todays_bookings", len(dashboard.TodaysBookings)).
		Float64("todays_revenue", dashboard.TodaysRevenue).
		Msg("dashboard built")
	return dashboard, nil
}
