package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"restobar/internal/models"

	"gopkg.in/yaml.v2"
)

// seedFile is the layout of configs/seed.yaml. Bookings name their table by
// number and may give a day offset from today instead of a date.
type seedFile struct {
	Tables    []models.TableSpec `yaml:"tables"`
	MenuItems []models.MenuItem  `yaml:"menu_items"`
	Bookings  []seedBooking      `yaml:"bookings"`
	Orders    []seedOrder        `yaml:"orders"`
}

type seedBooking struct {
	models.BookingSpec `yaml:",inline"`
	TableNumber        int `yaml:"table_number"`
	DaysFromToday      int `yaml:"days_from_today"`
}

type seedOrder struct {
	models.Order `yaml:",inline"`
	TableNumber  int `yaml:"table_number"`
	HoursAgo     int `yaml:"hours_ago"`
}

func loadSeed(path string) (*seedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &seed, nil
}

// seed fills an empty store from cfg.SeedPath. A store that already has
// tables is left alone.
func (a *app) seed(ctx context.Context) error {
	if a.cfg.SeedPath == "" {
		return nil
	}

	existing, err := a.store.tables.ListTables(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	seed, err := loadSeed(a.cfg.SeedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			a.logger.Warn().Str("path", a.cfg.SeedPath).Msg("seed file not found, starting empty")
			return nil
		}
		return err
	}

	tableIDs := make(map[int]string, len(seed.Tables))
	for _, spec := range seed.Tables {
		table, err := a.tables.Create(ctx, spec)
		if err != nil {
			return fmt.Errorf("seed table %d: %w", spec.Number, err)
		}
		tableIDs[table.Number] = table.ID
	}

	for i := range seed.MenuItems {
		item := seed.MenuItems[i]
		if err := a.store.menu.CreateMenuItem(ctx, &item); err != nil {
			return fmt.Errorf("seed menu item %q: %w", item.Name, err)
		}
	}

	today := time.Now().In(a.location)
	for _, sb := range seed.Bookings {
		spec := sb.BookingSpec
		if spec.TableID == "" {
			spec.TableID = tableIDs[sb.TableNumber]
		}
		if spec.Date == "" {
			spec.Date = today.AddDate(0, 0, sb.DaysFromToday).Format(models.DateLayout)
		}
		if _, err := a.bookings.Create(ctx, spec); err != nil {
			return fmt.Errorf("seed booking for %q: %w", spec.CustomerName, err)
		}
	}

	for _, so := range seed.Orders {
		order := so.Order
		order.TableID = tableIDs[so.TableNumber]
		order.CreatedAt = today.Add(-time.Duration(so.HoursAgo) * time.Hour)
		order.UpdatedAt = order.CreatedAt
		if err := a.store.orders.CreateOrder(ctx, &order); err != nil {
			return fmt.Errorf("seed order for %q: %w", order.CustomerName, err)
		}
	}

	a.logger.Info().
		Int("tables", len(seed.Tables)).
		Int("menu_items", len(seed.MenuItems)).
		Int("bookings", len(seed.Bookings)).
		Int("orders", len(seed.Orders)).
		Msg("store seeded")
	return nil
}
