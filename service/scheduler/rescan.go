package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/apicrafter/metacrafter/classifier/analyzer"
	"github.com/apicrafter/metacrafter/classifier/catalog"
	"github.com/apicrafter/metacrafter/classifier/engine"
	"github.com/apicrafter/metacrafter/classifier/model"
	"github.com/apicrafter/metacrafter/client/connectors"
	"github.com/apicrafter/metacrafter/metrics"
	"github.com/apicrafter/metacrafter/store/sqlsource"
)

// RescanConfig selects which configured D3/D4 source a RescanService
// opens on each tick, and the parameters that source needs.
type RescanConfig struct {
	SourceKind  string // "sql", "kafka", or "mqtt"
	DatabaseDSN string
	Query       string

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string

	MaxMessages int
	ReadTimeout time.Duration
}

// RescanService periodically opens the configured data source and runs
// the same analyze/classify pipeline D1's `scan`/`scan-db` commands run
// on demand, on a cron schedule instead — the rescan half of D7, next
// to ReloadService's catalog-reload half.
type RescanService struct {
	cfg          RescanConfig
	catalogFn    func() *catalog.Catalog
	engineOpts   engine.Options
	analyzerOpts analyzer.Options
	cron         *cron.Cron
	db           *gorm.DB
}

// NewRescanService builds a RescanService for cfg. For a SQL source it
// opens the database connection pool once up front, the same way
// cmd/metacrafter/scandb.go does, rather than reconnecting on every tick.
func NewRescanService(cfg RescanConfig, catalogFn func() *catalog.Catalog, engineOpts engine.Options, analyzerOpts analyzer.Options) (*RescanService, error) {
	s := &RescanService{cfg: cfg, catalogFn: catalogFn, engineOpts: engineOpts, analyzerOpts: analyzerOpts, cron: cron.New()}
	if cfg.SourceKind == "sql" {
		db, err := gorm.Open(postgres.New(postgres.Config{
			DSN:        cfg.DatabaseDSN,
			DriverName: "postgres",
		}), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("rescan: connecting to database: %w", err)
		}
		s.db = db
	}
	return s, nil
}

// Start schedules a rescan at the given cron spec and begins running it.
func (s *RescanService) Start(ctx context.Context, spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.rescanOnce(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron scheduler, waiting for any in-flight rescan.
func (s *RescanService) Stop() {
	<-s.cron.Stop().Done()
}

func (s *RescanService) rescanOnce(ctx context.Context) {
	start := time.Now()
	src, closeFn, err := s.open(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "rescan: opening source failed", "source", s.cfg.SourceKind, "error", err)
		metrics.ObserveScan(time.Since(start), err)
		return
	}
	defer closeFn()

	stats := analyzer.Analyze(src, s.analyzerOpts)
	view := s.catalogFn().Select(catalog.SelectOptions{IgnoreImprecise: true})

	report, err := engine.Classify(ctx, view, stats, s.engineOpts)
	metrics.ObserveScan(time.Since(start), err)
	if err != nil {
		slog.ErrorContext(ctx, "rescan failed", "source", s.cfg.SourceKind, "error", err)
		return
	}
	slog.InfoContext(ctx, "rescan completed", "source", s.cfg.SourceKind, "fields", len(report.Data), "duration_ms", time.Since(start).Milliseconds())
}

// open dispatches to the configured D3/D4 source, returning it as a
// model.Source alongside a close function that hides the three source
// types' differing Close signatures.
func (s *RescanService) open(ctx context.Context) (model.Source, func(), error) {
	switch s.cfg.SourceKind {
	case "sql":
		src, err := sqlsource.Open(s.db, s.cfg.Query)
		if err != nil {
			return nil, nil, fmt.Errorf("rescan: running query: %w", err)
		}
		return src, func() { src.Close() }, nil
	case "kafka":
		src := connectors.NewKafkaSource(ctx, s.cfg.KafkaBrokers, s.cfg.KafkaTopic, s.cfg.KafkaGroupID, s.cfg.MaxMessages)
		return src, func() { src.Close() }, nil
	case "mqtt":
		src, err := connectors.NewMQTTSource(s.cfg.MQTTBroker, s.cfg.MQTTClientID, s.cfg.MQTTTopic, 0, s.cfg.MaxMessages, s.cfg.ReadTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("rescan: connecting to mqtt broker: %w", err)
		}
		return src, func() { src.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("rescan: unknown source kind %q", s.cfg.SourceKind)
	}
}
