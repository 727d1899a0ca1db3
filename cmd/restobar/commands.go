package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"restobar/internal/domain"
	"restobar/internal/models"
	"restobar/internal/service"
)

var errUsage = errors.New("usage error")

func usage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), `Usage: restobar [-config path] [-seed path] <command> [flags]

Commands:
  tables                             list tables
  table-add -number N -capacity N    add a table
  table-update -id ID [...]          change a table
  table-rm -id ID                    delete a table
  bookings [-date D] [-table T] [-search S]
  book -name -phone -table -date -time [...]
  update -id ID [...]                change a booking
  cancel -id ID                      cancel a booking
  delete -id ID                      delete a booking
  available -date D -time T [-table T] [-party N]
  orders [-status S] [-table T]      list orders
  order -id ID                       show one order with its items
  dashboard [-today D]
  export -from D -to D               write an .xlsx schedule
  backup                             snapshot the sqlite database

Global flags:
`)
	fs.PrintDefaults()
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	handlers := map[string]func(context.Context, []string) error{
		"tables":       a.cmdTables,
		"table-add":    a.cmdTableAdd,
		"table-update": a.cmdTableUpdate,
		"table-rm":     a.cmdTableRemove,
		"bookings":     a.cmdBookings,
		"book":         a.cmdBook,
		"update":       a.cmdUpdate,
		"cancel":       a.cmdCancel,
		"delete":       a.cmdDelete,
		"available":    a.cmdAvailable,
		"dashboard":    a.cmdDashboard,
		"orders":       a.cmdOrders,
		"order":        a.cmdOrder,
		"export":       a.cmdExport,
		"backup":       a.cmdBackup,
	}

	handler, ok := handlers[command]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}

	err := handler(ctx, args)
	if err != nil {
		a.logger.Error().Err(err).Str("command", command).Msg("command failed")
	}
	return err
}

func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func (a *app) cmdTables(ctx context.Context, _ []string) error {
	tables, err := a.tables.List(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNUMBER\tCAPACITY\tLOCATION\tIN SERVICE")
	for _, t := range tables {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%t\n", t.ID, t.Number, t.Capacity, t.Location, t.IsAvailable)
	}
	return w.Flush()
}

func (a *app) cmdTableAdd(ctx context.Context, args []string) error {
	fs := a.newFlagSet("table-add")
	number := fs.Int("number", 0, "table number")
	capacity := fs.Int("capacity", 0, "seats")
	location := fs.String("location", string(models.LocationIndoor), "indoor, outdoor or balcony")
	outOfService := fs.Bool("out-of-service", false, "create the table out of service")
	if err := fs.Parse(args); err != nil {
		return err
	}

	available := !*outOfService
	table, err := a.tables.Create(ctx, models.TableSpec{
		Number:      *number,
		Capacity:    *capacity,
		Location:    models.Location(*location),
		IsAvailable: &available,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "table %d created: %s\n", table.Number, table.ID)
	return nil
}

func (a *app) cmdTableUpdate(ctx context.Context, args []string) error {
	fs := a.newFlagSet("table-update")
	id := fs.String("id", "", "table id")
	number := fs.Int("number", 0, "new table number")
	capacity := fs.Int("capacity", 0, "new capacity")
	location := fs.String("location", "", "new location")
	available := fs.String("available", "", "true or false")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var patch models.TablePatch
	set := visited(fs)
	if set["number"] {
		patch.Number = number
	}
	if set["capacity"] {
		patch.Capacity = capacity
	}
	if set["location"] {
		loc := models.Location(*location)
		patch.Location = &loc
	}
	if set["available"] {
		v, err := strconv.ParseBool(*available)
		if err != nil {
			return domain.Invalid("available", "must be true or false")
		}
		patch.IsAvailable = &v
	}

	table, err := a.tables.Update(ctx, *id, patch)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "table %d updated\n", table.Number)
	return nil
}

func (a *app) cmdTableRemove(ctx context.Context, args []string) error {
	fs := a.newFlagSet("table-rm")
	id := fs.String("id", "", "table id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	deleted, err := a.tables.Delete(ctx, *id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("table %s: %w", *id, domain.ErrNotFound)
	}
	fmt.Fprintf(a.out, "table %s deleted\n", *id)
	return nil
}

func (a *app) cmdBookings(ctx context.Context, args []string) error {
	fs := a.newFlagSet("bookings")
	date := fs.String("date", "", "only bookings on this date (YYYY-MM-DD)")
	table := fs.String("table", "", "only bookings for this table (id or number)")
	search := fs.String("search", "", "filter by name, email or phone")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tableID, err := a.resolveTable(ctx, *table)
	if err != nil {
		return err
	}

	var bookings []*models.Booking
	switch {
	case *search != "":
		bookings, err = a.bookings.Search(ctx, *search)
	case tableID != "":
		bookings, err = a.bookings.GetByTable(ctx, tableID)
	case *date != "":
		bookings, err = a.bookings.GetByDate(ctx, *date)
	default:
		bookings, err = a.bookings.List(ctx)
	}
	if err != nil {
		return err
	}

	numbers, err := a.tableNumbers(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTIME\tTABLE\tPARTY\tCUSTOMER\tPHONE\tSTATUS")
	for _, b := range bookings {
		if (*date != "" && b.Date != *date) || (tableID != "" && b.TableID != tableID) {
			continue
		}
		table := "-"
		if n, ok := numbers[b.TableID]; ok {
			table = strconv.Itoa(n)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			b.ID, b.Date, b.Time, table, b.PartySize, b.CustomerName, b.CustomerPhone, b.Status)
	}
	return w.Flush()
}

func (a *app) cmdBook(ctx context.Context, args []string) error {
	fs := a.newFlagSet("book")
	var spec models.BookingSpec
	fs.StringVar(&spec.CustomerName, "name", "", "customer name")
	fs.StringVar(&spec.CustomerPhone, "phone", "", "customer phone")
	fs.StringVar(&spec.CustomerEmail, "email", "", "customer email")
	table := fs.String("table", "", "table id or number")
	fs.IntVar(&spec.PartySize, "party", models.DefaultPartySize, "party size")
	fs.StringVar(&spec.Date, "date", "", "date (YYYY-MM-DD)")
	fs.StringVar(&spec.Time, "time", "", "time (HH:MM)")
	fs.StringVar(&spec.SpecialRequests, "requests", "", "special requests")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tableID, err := a.resolveTable(ctx, *table)
	if err != nil {
		return err
	}
	spec.TableID = tableID

	booking, err := a.bookings.Create(ctx, spec)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "booking %s confirmed for %s %s\n", booking.ID, booking.Date, booking.Time)
	return nil
}

func (a *app) cmdUpdate(ctx context.Context, args []string) error {
	fs := a.newFlagSet("update")
	id := fs.String("id", "", "booking id")
	name := fs.String("name", "", "customer name")
	phone := fs.String("phone", "", "customer phone")
	email := fs.String("email", "", "customer email")
	table := fs.String("table", "", "table id or number")
	party := fs.Int("party", 0, "party size")
	date := fs.String("date", "", "date (YYYY-MM-DD)")
	tm := fs.String("time", "", "time (HH:MM)")
	requests := fs.String("requests", "", "special requests")
	status := fs.String("status", "", "confirmed, pending or cancelled")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var patch models.BookingPatch
	set := visited(fs)
	if set["name"] {
		patch.CustomerName = name
	}
	if set["phone"] {
		patch.CustomerPhone = phone
	}
	if set["email"] {
		patch.CustomerEmail = email
	}
	if set["table"] {
		tableID, err := a.resolveTable(ctx, *table)
		if err != nil {
			return err
		}
		patch.TableID = &tableID
	}
	if set["party"] {
		patch.PartySize = party
	}
	if set["date"] {
		patch.Date = date
	}
	if set["time"] {
		patch.Time = tm
	}
	if set["requests"] {
		patch.SpecialRequests = requests
	}
	if set["status"] {
		s := models.BookingStatus(*status)
		patch.Status = &s
	}

	booking, err := a.bookings.Update(ctx, *id, patch)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "booking %s updated (%s)\n", booking.ID, booking.Status)
	return nil
}

func (a *app) cmdCancel(ctx context.Context, args []string) error {
	fs := a.newFlagSet("cancel")
	id := fs.String("id", "", "booking id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := a.bookings.Cancel(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "booking %s cancelled\n", *id)
	return nil
}

func (a *app) cmdDelete(ctx context.Context, args []string) error {
	fs := a.newFlagSet("delete")
	id := fs.String("id", "", "booking id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	deleted, err := a.bookings.Delete(ctx, *id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("booking %s: %w", *id, domain.ErrNotFound)
	}
	fmt.Fprintf(a.out, "booking %s deleted\n", *id)
	return nil
}

func (a *app) cmdAvailable(ctx context.Context, args []string) error {
	fs := a.newFlagSet("available")
	var q models.AvailabilityQuery
	fs.StringVar(&q.Date, "date", "", "date (YYYY-MM-DD)")
	fs.StringVar(&q.Time, "time", "", "time (HH:MM)")
	table := fs.String("table", "", "table id or number")
	fs.IntVar(&q.PartySize, "party", 0, "party size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *table != "" {
		tableID, err := a.resolveTable(ctx, *table)
		if err != nil {
			return err
		}
		q.TableID = tableID
	}

	available, err := a.availability.IsAvailable(ctx, q)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "available: %t\n", available)

	if q.TableID == "" && q.PartySize > 0 {
		free, err := a.availability.FreeTables(ctx, q)
		if err != nil {
			return err
		}
		for _, t := range free {
			fmt.Fprintf(a.out, "  table %d (%d seats, %s)\n", t.Number, t.Capacity, t.Location)
		}
	}
	return nil
}

func (a *app) cmdOrders(ctx context.Context, args []string) error {
	fs := a.newFlagSet("orders")
	status := fs.String("status", "", "pending, preparing, ready, delivered or cancelled")
	table := fs.String("table", "", "table id or number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tableID, err := a.resolveTable(ctx, *table)
	if err != nil {
		return err
	}

	orders, err := a.orders.List(ctx, service.OrderFilter{Status: *status, TableID: tableID})
	if err != nil {
		return err
	}

	numbers, err := a.tableNumbers(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tTABLE\tCUSTOMER\tITEMS\tTOTAL\tSTATUS\tPAYMENT")
	for _, o := range orders {
		tbl := "-"
		if n, ok := numbers[o.TableID]; ok {
			tbl = strconv.Itoa(n)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.2f\t%s\t%s\n",
			o.ID, o.CreatedAt.In(a.location).Format("2006-01-02 15:04"), tbl, o.CustomerName,
			len(o.Items), o.Total, o.Status, o.PaymentStatus)
	}
	return w.Flush()
}

func (a *app) cmdOrder(ctx context.Context, args []string) error {
	fs := a.newFlagSet("order")
	id := fs.String("id", "", "order id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	order, err := a.orders.GetByID(ctx, *id)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(order)
}

func (a *app) cmdDashboard(ctx context.Context, args []string) error {
	fs := a.newFlagSet("dashboard")
	today := fs.String("today", "", "reference date (YYYY-MM-DD), defaults to the current date")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dashboard, err := a.dashboard.Build(ctx, *today)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(dashboard)
}

func (a *app) cmdExport(ctx context.Context, args []string) error {
	fs := a.newFlagSet("export")
	fromStr := fs.String("from", "", "first date (YYYY-MM-DD), defaults to today")
	toStr := fs.String("to", "", "last date (YYYY-MM-DD), defaults to a week after from")
	if err := fs.Parse(args); err != nil {
		return err
	}

	from := time.Now().In(a.location)
	if *fromStr != "" {
		parsed, err := time.ParseInLocation(models.DateLayout, *fromStr, a.location)
		if err != nil {
			return domain.Invalid("from", "must be YYYY-MM-DD")
		}
		from = parsed
	}
	to := from.AddDate(0, 0, 6)
	if *toStr != "" {
		parsed, err := time.ParseInLocation(models.DateLayout, *toStr, a.location)
		if err != nil {
			return domain.Invalid("to", "must be YYYY-MM-DD")
		}
		to = parsed
	}

	bookings, err := a.bookings.List(ctx)
	if err != nil {
		return err
	}
	tables, err := a.tables.List(ctx)
	if err != nil {
		return err
	}

	path, err := a.exporter.ExportSchedule(from, to, bookings, tables)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, path)
	return nil
}

func (a *app) cmdBackup(ctx context.Context, _ []string) error {
	if a.backup == nil {
		return errors.New("backup needs the sqlite storage backend")
	}

	path, err := a.backup.PerformBackup(ctx)
	if err != nil {
		return err
	}
	removed := a.backup.CleanupOldBackups()
	fmt.Fprintf(a.out, "%s (%d old snapshots removed)\n", path, removed)
	return nil
}

// resolveTable accepts a table id or a table number.
func (a *app) resolveTable(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", nil
	}

	tables, err := a.tables.List(ctx)
	if err != nil {
		return "", err
	}
	for _, t := range tables {
		if t.ID == ref {
			return t.ID, nil
		}
	}

	number, err := strconv.Atoi(ref)
	if err != nil {
		return "", fmt.Errorf("table %s: %w", ref, domain.ErrNotFound)
	}
	for _, t := range tables {
		if t.Number == number {
			return t.ID, nil
		}
	}
	return "", fmt.Errorf("table %d: %w", number, domain.ErrNotFound)
}

func (a *app) tableNumbers(ctx context.Context) (map[string]int, error) {
	tables, err := a.tables.List(ctx)
	if err != nil {
		return nil, err
	}
	numbers := make(map[string]int, len(tables))
	for _, t := range tables {
		numbers[t.ID] = t.Number
	}
	return numbers, nil
}

func visited(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}
