// internal/bootstrap/bootstrap.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"offer-ledger/internal/audit"
	"offer-ledger/internal/common/aws"
	"offer-ledger/internal/common/config"
	"offer-ledger/internal/common/database"
	httpclient "offer-ledger/internal/common/http"
	"offer-ledger/internal/common/logger"
	"offer-ledger/internal/common/observability"
	"offer-ledger/internal/ledger"
	"offer-ledger/internal/lifecycle"
	"offer-ledger/internal/notify"
	"offer-ledger/internal/reconcile"
	"offer-ledger/internal/store"
	"offer-ledger/internal/users"

	"github.com/prometheus/client_golang/prometheus"
)

// Options tune Build for the calling binary.
type Options struct {
	ServiceName string
	// Registerer receives the otel prometheus exporter; nil uses the default registry.
	Registerer prometheus.Registerer
	// MemoryLedger replaces the sheets driver, for tests and dry runs.
	MemoryLedger *ledger.MemorySheet
}

// App is the wired object graph shared by the daemon and the CLI.
type App struct {
	Config        *config.Config
	Logger        logger.Logger
	Store         store.Store
	Ledger        *ledger.Ledger
	Gate          reconcile.Gate
	Notifier      *notify.Dispatcher
	Audit         audit.Recorder
	Engine        *lifecycle.Engine
	Coordinator   *lifecycle.Coordinator
	Users         *users.Service
	Loop          *reconcile.Loop
	Observability *observability.Observability

	closers []func() error
}

// Build connects every backend selected by cfg. On error, whatever was
// already opened is closed.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger, opts Options) (_ *App, err error) {
	app := &App{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	if opts.ServiceName == "" {
		opts.ServiceName = cfg.App.Name
	}
	registerer := &trackingRegisterer{Registerer: opts.Registerer}
	if registerer.Registerer == nil {
		registerer.Registerer = prometheus.DefaultRegisterer
	}
	app.closers = append(app.closers, registerer.unregisterAll)
	app.Observability, err = observability.New(observability.Options{
		ServiceName:    opts.ServiceName,
		Registerer:     registerer,
		TracingEnabled: cfg.Tracing.Enabled,
		JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
		SampleRatio:    cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("observability: %w", err)
	}
	app.closers = append(app.closers, func() error { return app.Observability.Shutdown(context.Background()) })

	var redisClient *database.RedisClient
	if cfg.Store.Driver == config.StoreRedis || cfg.Reconcile.PauseBackend == config.PauseRedis {
		redisClient, err = database.NewRedis(ctx, cfg.Database.Redis)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, redisClient.Close)
		log.Info("redis connected", map[string]interface{}{"address": cfg.Database.Redis.Address})
	}

	if app.Store, err = buildStore(ctx, cfg, redisClient, log); err != nil {
		return nil, err
	}
	app.closers = append(app.closers, app.Store.Close)

	if app.Ledger, err = buildLedger(ctx, cfg, opts, log); err != nil {
		return nil, err
	}

	switch cfg.Reconcile.PauseBackend {
	case config.PauseRedis:
		app.Gate = reconcile.NewRedisGate(redisClient.Client, cfg.Store.KeyPrefix, cfg.Reconcile.PauseTTL)
	default:
		app.Gate = reconcile.NewLocalGate()
	}

	if app.Notifier, err = buildNotifier(ctx, cfg, log); err != nil {
		return nil, err
	}

	if app.Audit, err = buildAudit(cfg, log); err != nil {
		return nil, err
	}

	app.Engine = lifecycle.New(lifecycle.Deps{
		Store:    app.Store,
		Ledger:   app.Ledger,
		Notifier: app.Notifier,
		Audit:    app.Audit,
		Logger:   log,
	})
	app.Coordinator = lifecycle.NewCoordinator(app.Engine, app.Gate, cfg.Reconcile.SettleDelay, log)
	app.Users = users.NewService(app.Store, app.Notifier, log)
	app.Loop = reconcile.NewLoop(app.Engine, app.Gate, cfg.Reconcile.Interval, app.Observability, log)
	return app, nil
}

func buildStore(ctx context.Context, cfg *config.Config, redisClient *database.RedisClient, log logger.Logger) (store.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreRedis:
		return store.NewRedis(redisClient.Client, cfg.Store.KeyPrefix), nil
	case config.StorePostgres:
		pg, err := database.NewPostgres(ctx, cfg.Database.Postgres)
		if err != nil {
			return nil, err
		}
		st := store.NewPostgres(pg.DB)
		if err := st.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, err
		}
		log.Info("postgres store ready", map[string]interface{}{"database": cfg.Database.Postgres.Database})
		return &postgresStore{Postgres: st, client: pg}, nil
	default:
		log.Warn("using in-memory record store; records are lost on restart", nil)
		return store.NewMemory(), nil
	}
}

// trackingRegisterer remembers what Build registered so Close can undo it
// and a retried Build does not collide with the previous attempt.
type trackingRegisterer struct {
	prometheus.Registerer
	collectors []prometheus.Collector
}

func (t *trackingRegisterer) Register(c prometheus.Collector) error {
	if err := t.Registerer.Register(c); err != nil {
		return err
	}
	t.collectors = append(t.collectors, c)
	return nil
}

func (t *trackingRegisterer) MustRegister(cs ...prometheus.Collector) {
	for _, c := range cs {
		if err := t.Register(c); err != nil {
			panic(err)
		}
	}
}

func (t *trackingRegisterer) unregisterAll() error {
	for _, c := range t.collectors {
		t.Registerer.Unregister(c)
	}
	t.collectors = nil
	return nil
}

// postgresStore closes the pool together with the store.
type postgresStore struct {
	*store.Postgres
	client *database.PostgresClient
}

func (p *postgresStore) Close() error { return p.client.Close() }

func buildLedger(ctx context.Context, cfg *config.Config, opts Options, log logger.Logger) (*ledger.Ledger, error) {
	lc := cfg.Ledger
	layout := ledger.NewLayout(lc)

	if opts.MemoryLedger != nil || lc.Driver == config.LedgerMemory {
		main := opts.MemoryLedger
		if main == nil {
			main = ledger.NewMemorySheet()
		}
		return ledger.New(main, nil, layout, log), nil
	}

	svc, err := ledger.NewSheetsService(ctx, ledger.SheetsOptions{
		CredentialsFile: lc.CredentialsFile,
		CredentialsJSON: lc.CredentialsJSON,
		Endpoint:        lc.Endpoint,
	})
	if err != nil {
		return nil, err
	}
	main := ledger.WithTimeout(ledger.NewSheetsSheet(svc, lc.SpreadsheetID, lc.Sheet), lc.Timeout)

	priceID, priceSheet := lc.PriceSpreadsheetID, lc.PriceSheet
	if priceID == "" {
		priceID = lc.SpreadsheetID
	}
	if priceSheet == "" {
		priceSheet = lc.Sheet
	}
	var price ledger.Sheet
	if priceID != lc.SpreadsheetID || priceSheet != lc.Sheet {
		price = ledger.WithTimeout(ledger.NewSheetsSheet(svc, priceID, priceSheet), lc.Timeout)
	}
	log.Info("sheets ledger configured", map[string]interface{}{
		"spreadsheetId":      lc.SpreadsheetID,
		"sheet":              lc.Sheet,
		"priceSpreadsheetId": priceID,
		"priceSheet":         priceSheet,
	})
	return ledger.New(main, price, layout, log), nil
}

func buildNotifier(ctx context.Context, cfg *config.Config, log logger.Logger) (*notify.Dispatcher, error) {
	nc := cfg.Notifications
	router := &notify.Router{}

	if nc.Telegram.Enabled && nc.Telegram.Token != "" {
		router.Telegram = notify.NewTelegram(httpclient.NewClient(10*time.Second), nc.Telegram.BaseURL, nc.Telegram.Token)
	} else {
		router.Telegram = notify.NewLogSender(log)
	}
	if nc.SMS.Enabled {
		sns, err := aws.NewSNSClient(ctx, nc.AWS.Region, nc.SMS.SenderID)
		if err != nil {
			return nil, fmt.Errorf("sns client: %w", err)
		}
		router.SMS = notify.NewSMS(sns)
	}
	if nc.Email.Enabled {
		ses, err := aws.NewSESClient(ctx, nc.AWS.Region, nc.Email.FromEmail)
		if err != nil {
			return nil, fmt.Errorf("ses client: %w", err)
		}
		router.Email = notify.NewEmail(ses)
	}
	return notify.NewDispatcher(router, nc.Admins, log), nil
}

func buildAudit(cfg *config.Config, log logger.Logger) (audit.Recorder, error) {
	if !cfg.Audit.Enabled {
		return audit.Nop{}, nil
	}
	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		return nil, err
	}
	log.Info("audit trail enabled", map[string]interface{}{"index": cfg.Audit.Index})
	return audit.NewElasticsearch(es.Client, cfg.Audit.Index), nil
}

// Ready reports whether the record store answers.
func (a *App) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return a.Store.Ping(ctx)
}

// Close releases backends in reverse order of opening.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}
