package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restobar/internal/config"
	"restobar/internal/database"
	"restobar/internal/domain"
	"restobar/internal/events"
	"restobar/internal/export"
	"restobar/internal/logging"
	"restobar/internal/metrics"
	"restobar/internal/repository"
	"restobar/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

// app holds the wired engine for one CLI invocation.
type app struct {
	cfg          *config.Config
	logger       *zerolog.Logger
	location     *time.Location
	out          io.Writer
	store        *store
	tables       *service.TableService
	bookings     *service.BookingService
	availability *service.AvailabilityService
	dashboard    *service.DashboardService
	orders       *service.OrderService
	exporter     *export.Exporter
	backup       *database.BackupService
}

type store struct {
	tables   domain.TableRepository
	remover  domain.TableRemover
	bookings domain.BookingRepository
	orders   domain.OrderRepository
	menu     domain.MenuRepository
	db       *database.DB
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("restobar", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", envOr("CONFIG_PATH", "configs/config.yaml"), "path to config.yaml")
	seedPath := fs.String("seed", "", "seed file applied to an empty store (overrides seed_path)")
	fs.Usage = func() { usage(fs) }
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		usage(fs)
		return errUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *seedPath != "" {
		cfg.SeedPath = *seedPath
	}

	logs, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return err
	}
	defer func() { _ = logs.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, cleanup, err := newApp(ctx, cfg, logs, out)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := a.seed(ctx); err != nil {
		return err
	}

	return a.dispatch(ctx, fs.Arg(0), fs.Args()[1:])
}

func newApp(ctx context.Context, cfg *config.Config, logs *logging.Loggers, out io.Writer) (*app, func(), error) {
	logger := logs.Component("cli")
	metrics.Register()

	location := time.Local
	if cfg.App.Timezone != "" {
		loc, err := time.LoadLocation(cfg.App.Timezone)
		if err != nil {
			return nil, nil, fmt.Errorf("load timezone %q: %w", cfg.App.Timezone, err)
		}
		location = loc
	}

	st, err := initStore(cfg, logs)
	if err != nil {
		return nil, nil, err
	}

	locker, redisClient := initSlotLocker(ctx, cfg, logs)
	cleanup := func() {
		if redisClient != nil {
			_ = repository.Close(redisClient)
		}
		if st.db != nil {
			_ = st.db.Close()
		}
	}

	eventBus := events.NewEventBus()
	subscribeEventLog(eventBus, logs.Component("events"))

	a := &app{
		cfg:      cfg,
		logger:   logger,
		location: location,
		out:      out,
		store:    st,
		tables: service.NewTableService(st.tables, st.remover, eventBus, cfg.Tables.DeletePolicy,
			logs.Component("tables")),
		bookings: service.NewBookingService(st.bookings, locker, eventBus, service.BookingOptions{
			StrictStatusTransitions: cfg.Bookings.StrictStatusTransitions,
			LockTTL:                 time.Duration(cfg.Locks.TTLSeconds) * time.Second,
			LockRetry: service.LockRetry{
				Attempts: cfg.Locks.RetryAttempts,
				Delay:    time.Duration(cfg.Locks.RetryDelayMs) * time.Millisecond,
				MaxDelay: time.Second,
				Jitter:   0.2,
			},
		}, logs.Component("bookings")),
		availability: service.NewAvailabilityService(st.tables, st.bookings, cfg.Availability.PartySizeMode,
			logs.Component("availability")),
		dashboard: service.NewDashboardService(st.bookings, st.orders, st.tables, st.menu, service.DashboardOptions{
			Location:      location,
			UpcomingLimit: cfg.Bookings.UpcomingLimit,
			RecentLimit:   cfg.Bookings.RecentOrdersLimit,
		}, logs.Component("dashboard")),
		orders:   service.NewOrderService(st.orders, logs.Component("orders")),
		exporter: export.NewExporter(cfg.Exports.Path, logs.Component("export")),
	}
	if st.db != nil {
		a.backup = database.NewBackupService(st.db, cfg.Backup, logs.Component("backup"))
	}
	return a, cleanup, nil
}

func initStore(cfg *config.Config, logs *logging.Loggers) (*store, error) {
	logger := logs.Component("database")
	if cfg.Storage.Backend == "sqlite" {
		db, err := database.NewDB(cfg.Storage.SQLitePath, logger)
		if err != nil {
			logger.Error().Err(err).Msg("database init failed")
			return nil, err
		}
		return &store{tables: db, remover: db, bookings: db, orders: db, menu: db, db: db}, nil
	}

	logger.Debug().Msg("using in-memory store")
	tables := repository.NewMemoryTableRegistry()
	bookings := repository.NewMemoryBookingLedger()
	return &store{
		tables:   tables,
		remover:  repository.NewMemoryTableRemover(tables, bookings),
		bookings: bookings,
		orders:   repository.NewMemoryOrderStore(),
		menu:     repository.NewMemoryMenuStore(),
	}, nil
}

func initSlotLocker(ctx context.Context, cfg *config.Config, logs *logging.Loggers) (domain.SlotLocker, *redis.Client) {
	logger := logs.Component("locks")
	memory := repository.NewMemorySlotLocker()
	if cfg.Locks.Backend == "memory" {
		return memory, nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Str("address", cfg.Redis.Address).Msg("Redis unavailable")
	}

	primary := repository.NewRedisSlotLocker(client, logger)
	if cfg.Locks.Backend == "redis" {
		return primary, client
	}
	return repository.NewFailoverSlotLocker(primary, memory, logger), client
}

func subscribeEventLog(bus *events.EventBus, logger *zerolog.Logger) {
	handler := func(ev *events.Event) error {
		var fields map[string]interface{}
		if err := json.Unmarshal(ev.Payload, &fields); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return nil
		}
		logger.Debug().Str("event", ev.Type).Fields(fields).Msg("event published")
		return nil
	}

	for _, eventType := range []string{
		events.EventBookingCreated,
		events.EventBookingUpdated,
		events.EventBookingCancelled,
		events.EventBookingDeleted,
		events.EventTableCreated,
		events.EventTableUpdated,
		events.EventTableDeleted,
	} {
		bus.Subscribe(eventType, handler)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
