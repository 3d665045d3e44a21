package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	analytic "github.com/goliatone/go-analytics-embed/components/analytic"
	"github.com/goliatone/go-analytics-embed/components/analytic/commands"
	"github.com/goliatone/go-analytics-embed/components/analytic/gorouter"
	"github.com/goliatone/go-analytics-embed/components/analytic/httpapi"
	"github.com/goliatone/go-analytics-embed/components/analytic/queries"
	"github.com/goliatone/go-analytics-embed/pkg/catalogwatch"
	"github.com/goliatone/go-analytics-embed/pkg/mongostore"
	"github.com/goliatone/go-analytics-embed/pkg/reports"
	"github.com/goliatone/go-analytics-embed/pkg/telemetry"
)

// app holds everything the server wires together.
type app struct {
	service   *analytic.Service
	store     analytic.ConfigStore
	broadcast *analytic.BroadcastHook
	handlers  *httpapi.Handlers
	control   *analytic.Controller
	watcher   *catalogwatch.Watcher
	mongo     *mongo.Client
	logger    *logrus.Logger
}

func buildApp(ctx context.Context, cfg ServerConfig, logger *logrus.Logger, seed bool) (*app, error) {
	tel := telemetry.NewLogrusTelemetry(logger)
	a := &app{logger: logger, broadcast: analytic.NewBroadcastHook()}

	store, err := a.openStore(ctx, cfg, tel, seed)
	if err != nil {
		return nil, err
	}
	a.store = store

	var client analytic.ReportClient
	if cfg.ReportsURL != "" {
		httpClient, err := reports.NewHTTPClient(reports.HTTPConfig{BaseURL: cfg.ReportsURL, APIKey: cfg.ReportsAPIKey})
		if err != nil {
			return nil, err
		}
		client = httpClient
	} else {
		logger.Warn("REPORTS_URL not set, serving mock report data")
		client = reports.NewMockClient()
	}

	holder := analytic.NewCatalogHolder(nil)
	if cfg.CatalogPath != "" {
		watcher, err := catalogwatch.New(cfg.CatalogPath, holder, tel)
		if err != nil {
			return nil, err
		}
		a.watcher = watcher
	}

	translations, err := loadTranslations(cfg.TranslationsPath)
	if err != nil {
		return nil, err
	}
	var translator analytic.TranslationService
	if translations != nil {
		translator = translations
	}

	mapOptions := []analytic.MapRendererOption{}
	if cfg.EChartsCDN != "" {
		mapOptions = append(mapOptions, analytic.WithMapAssetsHost(cfg.EChartsCDN))
	}

	a.service = analytic.NewService(analytic.Options{
		Store:         store,
		Reports:       client,
		Catalog:       holder,
		Hook:          a.broadcast,
		Notifier:      telemetry.NewLogNotifier(logger),
		Telemetry:     tel,
		Translator:    translator,
		MapRenderer:   analytic.NewEChartsMapRenderer(mapOptions...),
		SnapshotCache: analytic.NewTTLCache[analytic.ReportSnapshot](cfg.snapshotCacheTTL()),
	})

	renderer, err := analytic.NewTemplateRenderer()
	if err != nil {
		return nil, fmt.Errorf("embedserver: template renderer: %w", err)
	}
	a.control = analytic.NewController(analytic.ControllerOptions{Service: a.service, Renderer: renderer})
	a.handlers = &httpapi.Handlers{
		Save:     commands.NewSaveAnalyticCommand(a.service, tel),
		Refresh:  commands.NewRefreshReportCommand(a.service, tel),
		Analytic: queries.NewAnalyticQuery(a.service),
		Widget:   queries.NewWidgetQuery(a.service),
		Reports:  a.service,
		Embed:    a.control,
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context, cfg ServerConfig, tel analytic.Telemetry, seed bool) (analytic.ConfigStore, error) {
	var (
		base    analytic.ConfigStore
		creator analytic.AnalyticCreator
	)
	if cfg.MongoURI != "" {
		store, client, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			return nil, err
		}
		a.mongo = client
		base, creator = store, store
	} else {
		memory := analytic.NewInMemoryConfigStore()
		base, creator = memory, memory
	}
	if seed {
		if err := commands.NewSeedAnalyticsCommand(creator, tel).Execute(ctx, commands.SeedAnalyticsInput{}); err != nil {
			return nil, fmt.Errorf("embedserver: seed analytics: %w", err)
		}
	}
	if ttl := cfg.configCacheTTL(); ttl > 0 {
		return analytic.NewCachedConfigStore(base, ttl), nil
	}
	return base, nil
}

func (a *app) register(r gorouter.Registrar, basePath string) error {
	return gorouter.Register(gorouter.Config{
		Router:     r,
		Controller: a.control,
		API:        a.handlers,
		Broadcast:  a.broadcast,
		BasePath:   basePath,
	})
}

// logSnippets prints the iframe markup of every stored analytic.
func (a *app) logSnippets(ctx context.Context, publicURL string) error {
	records, err := a.service.ListAnalytics(ctx)
	if err != nil {
		return err
	}
	for _, record := range records {
		a.logger.WithField("analytic_id", record.ID).Info(a.service.EmbedSnippet(record, publicURL))
	}
	return nil
}

func (a *app) close(ctx context.Context) error {
	var err error
	if a.watcher != nil {
		err = errors.Join(err, a.watcher.Close())
	}
	if a.mongo != nil {
		err = errors.Join(err, a.mongo.Disconnect(ctx))
	}
	return err
}
