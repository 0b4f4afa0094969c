package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/internal/adapter/export"
	"github.com/niksmo/storefront/internal/adapter/httphandler"
	"github.com/niksmo/storefront/internal/adapter/kafka"
	"github.com/niksmo/storefront/internal/adapter/mongodb"
	"github.com/niksmo/storefront/internal/adapter/storage"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/niksmo/storefront/pkg/retry"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/sr"
)

type serdes struct {
	product      schema.Serde
	productEvent schema.Serde
}

type storages struct {
	products port.ProductsStorage
	users    port.UsersStorage
	close    func(context.Context)
}

type producers struct {
	products kafka.ProductsProducer
	events   kafka.CatalogEventsProducer
}

type App struct {
	ctx        context.Context
	cfg        config.Config
	tlsCfg     *tls.Config
	serdes     serdes
	storages   storages
	producers  producers
	consumer   *kafka.ProductsConsumer
	processor  *kafka.CatalogProcessor
	view       *kafka.CatalogView
	service    service.Service
	httpServer httphandler.HTTPServer
	wg         sync.WaitGroup
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initTLS()
	app.initSerdes()
	app.initStorage()
	app.initOutboundAdapters()
	app.initCatalog()
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initTLS() {
	const op = "App.initTLS"

	t := app.cfg.Broker.TLS
	if !t.Enabled() {
		return
	}

	tlsCfg, err := adapter.MakeTLSConfig(t.CA, t.Cert, t.Key)
	if err != nil {
		app.fallDown(op, err)
	}
	app.tlsCfg = tlsCfg
}

func (app *App) initSerdes() {
	const op = "App.initSerdes"
	urls := app.cfg.Broker.SchemaRegistryURLs
	topics := app.cfg.Broker.Topics
	ctx := app.ctx

	srOpts := []sr.ClientOpt{sr.URLs(urls...)}
	if app.tlsCfg != nil {
		srOpts = append(srOpts, sr.DialTLSConfig(app.tlsCfg))
	}
	srClient, err := sr.NewClient(srOpts...)
	if err != nil {
		app.fallDown(op, err)
	}

	schemaCreater := schema.NewSchemaCreater(srClient)

	productSerde, err := schema.NewSerdeProductV1(
		ctx,
		schema.SubjectOpt(topics.ProductsImport+"-value"),
		schema.SchemaIdentifierOpt(schemaCreater),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	productEventSerde, err := schema.NewSerdeProductEventV1(
		ctx,
		schema.SubjectOpt(topics.CatalogEvents+"-value"),
		schema.SchemaIdentifierOpt(schemaCreater),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.serdes.product = productSerde
	app.serdes.productEvent = productEventSerde
}

func (app *App) initStorage() {
	const op = "App.initStorage"

	s := app.cfg.Storage
	retryCfg := retry.RetryConfig{
		MaxAttempts: s.ConnectAttempts,
		Backoff:     retry.ExponentialBackoff(200 * time.Millisecond),
	}

	switch s.Driver {
	case config.DriverMongoDB:
		db, err := mongodb.NewDatabase(app.ctx, s.MongoURI, s.MongoDatabase, retryCfg)
		if err != nil {
			app.fallDown(op, err)
		}
		app.storages = storages{
			products: db.Products(),
			users:    db.Users(),
			close:    db.Close,
		}
	default:
		db, err := storage.NewSQLDB(app.ctx, s.SQLDB, retryCfg)
		if err != nil {
			app.fallDown(op, err)
		}
		app.storages = storages{
			products: storage.NewProductsRepository(db),
			users:    storage.NewUsersRepository(db),
			close:    func(context.Context) { db.Close() },
		}
	}
}

func (app *App) initOutboundAdapters() {
	const op = "App.initOutboundAdapters"

	ctx := app.ctx
	seedBrokers := app.cfg.Broker.SeedBrokers
	topics := app.cfg.Broker.Topics

	productsProducer, err := kafka.NewProductsProducer(
		kafka.ProducerClientOpt(ctx, seedBrokers, topics.ProductsImport, app.tlsCfg),
		kafka.ProducerEncoderOpt(app.serdes.product),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	eventsProducer, err := kafka.NewCatalogEventsProducer(
		kafka.ProducerClientOpt(ctx, seedBrokers, topics.CatalogEvents, app.tlsCfg),
		kafka.ProducerEncoderOpt(app.serdes.productEvent),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.producers.products = productsProducer
	app.producers.events = eventsProducer
}

func (app *App) initCatalog() {
	const op = "App.initCatalog"

	b := app.cfg.Broker

	processor, err := kafka.NewCatalogProcessor(kafka.CatalogProcessorConfig{
		SeedBrokers:  b.SeedBrokers,
		EventsTopic:  b.Topics.CatalogEvents,
		Group:        b.Consumers.CatalogGroup,
		EventSerde:   app.serdes.productEvent,
		ProductSerde: app.serdes.product,
		TLSConfig:    app.tlsCfg,
	})
	if err != nil {
		app.fallDown(op, err)
	}
	app.processor = processor

	if !b.CatalogView {
		return
	}

	view, err := kafka.NewCatalogView(kafka.CatalogViewConfig{
		SeedBrokers:  b.SeedBrokers,
		Group:        b.Consumers.CatalogGroup,
		ProductSerde: app.serdes.product,
		TLSConfig:    app.tlsCfg,
	})
	if err != nil {
		app.fallDown(op, err)
	}
	app.view = view
}

func (app *App) initCoreService() {
	deps := service.Deps{
		ProductsStorage:  app.storages.products,
		UsersStorage:     app.storages.users,
		ProductsProducer: app.producers.products,
		EventsProducer:   app.producers.events,
		Exporter:         export.NewCSVExporter(),
		AdminEmail:       app.cfg.Admin.Email,
	}
	if app.view != nil {
		deps.Reader = app.view
	}
	app.service = service.New(deps)
}

func (app *App) initInboundAdapters() {
	const op = "App.initInboundAdapters"

	b := app.cfg.Broker
	consumer, err := kafka.NewProductsConsumer(
		kafka.ConsumerClientOpt(
			b.SeedBrokers, b.Topics.ProductsImport,
			b.Consumers.ProductsSaverGroup, app.tlsCfg,
		),
		kafka.ConsumerDecoderOpt(app.serdes.product),
		kafka.ProductsConsumerSaverOpt(app.service),
		kafka.ConsumerSaveRetryOpt(retry.RetryConfig{
			MaxAttempts: app.cfg.Storage.ConnectAttempts,
			Backoff:     retry.ExponentialBackoff(200 * time.Millisecond),
		}),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.consumer = consumer

	handler := httphandler.NewRouter(httphandler.RouterDeps{
		Lister:    app.service,
		Admin:     app.service,
		Sender:    app.service,
		Users:     app.service,
		AdminUser: app.cfg.Admin.User,
		AdminPass: app.cfg.Admin.Pass,
	})
	app.httpServer = httphandler.NewHTTPServer(app.cfg.HTTPServerAddr, handler)
}

func (app *App) Run(stopFn context.CancelFunc) {
	const op = "App.Run"

	app.wg.Add(1)
	go app.processor.Run(app.ctx, stopFn, &app.wg)

	if app.view != nil {
		go app.view.Run(app.ctx)
		if err := app.view.WaitRecovered(app.ctx); err != nil {
			slog.Warn("catalog view is not recovered", "op", op, "err", err)
		}
	}

	go app.consumer.Run(app.ctx)
	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	app.consumer.Close()
	app.wg.Wait()
	app.processor.Close()
	app.producers.products.Close()
	app.producers.events.Close()
	app.storages.close(ctx)

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
