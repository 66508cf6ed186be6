package commands

import (
	"context"
	"os"

	"github.com/wonny/volscan/internal/api"
	"github.com/wonny/volscan/internal/channelconfig"
	"github.com/wonny/volscan/internal/contracts"
	"github.com/wonny/volscan/internal/exclusion"
	"github.com/wonny/volscan/internal/external/fmp"
	"github.com/wonny/volscan/internal/history"
	"github.com/wonny/volscan/internal/metrics"
	"github.com/wonny/volscan/internal/notify"
	"github.com/wonny/volscan/internal/output"
	"github.com/wonny/volscan/internal/quality"
	"github.com/wonny/volscan/internal/report"
	"github.com/wonny/volscan/internal/scanner"
	"github.com/wonny/volscan/internal/selection"
	"github.com/wonny/volscan/pkg/config"
	"github.com/wonny/volscan/pkg/database"
	"github.com/wonny/volscan/pkg/httputil"
	"github.com/wonny/volscan/pkg/logger"
	"github.com/wonny/volscan/pkg/redis"
)

// app holds the wired engine shared by start and scan
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	source   *channelconfig.Source
	runner   *scanner.Runner
	recorder *history.Recorder
	metrics  *metrics.Registry
	sound    *notify.Toggle
	hub      *api.Hub
	notifier contracts.Notifier
	closers  []func()
}

// newApp wires every dependency. Redis and PostgreSQL are optional:
// a failed connection is logged and the engine runs without them.
func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger, withStream bool) *app {
	a := &app{cfg: cfg, log: log}

	// 1. Metrics
	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
	}

	// 2. Notifiers: log, sound toggle, websocket stream
	a.sound = notify.NewToggle(notify.NewBell(os.Stdout), cfg.Scanner.NotifySound)
	notifiers := notify.Multi{notify.NewLog(log), a.sound}
	if withStream {
		a.hub = api.NewHub(log)
		notifiers = append(notifiers, a.hub)
		a.closers = append(a.closers, a.hub.Close)
	}
	a.notifier = notifiers

	// 3. Redis snapshot cache
	var cache *redis.Cache
	rc, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, snapshot cache disabled")
	} else {
		cache = redis.NewCache(rc, "volscan")
		a.closers = append(a.closers, func() { rc.Close() })
	}

	// 4. Feed client
	httpClient := httputil.New(cfg, log)
	feed := fmp.NewClient(httpClient, cfg.FMP, log).WithCache(cache, cfg.Redis.SnapshotTTL)

	// 5. Run history
	var store history.Store
	if cfg.Database.Enabled {
		db, err := database.New(ctx, cfg)
		if err != nil {
			log.WithError(err).Warn("Database unavailable, run history kept in memory only")
		} else {
			pg := history.NewPostgresStore(db.Pool)
			if err := pg.EnsureSchema(ctx); err != nil {
				log.WithError(err).Warn("Failed to ensure history schema")
			}
			store = pg
			a.closers = append(a.closers, db.Close)
			log.Info("Connected to database")
		}
	}
	a.recorder = history.NewRecorder(history.NewRing(100), store, log)

	// 6. Channel runner
	var releaser output.Releaser = output.NopReleaser{}
	if len(cfg.Scanner.ReleaseCommand) > 0 {
		releaser = output.NewProcessReleaser(cfg.Scanner.ReleaseCommand, log)
	}

	a.source = channelconfig.NewSource(cfg.Scanner.InputWorkbook)
	a.runner = scanner.NewRunner(
		feed,
		exclusion.NewLoader(cfg.Scanner, log),
		selection.NewPipeline(log),
		output.NewMerger(releaser, cfg.Scanner.ReleaseGrace, log),
		report.NewWriter(cfg.Scanner.ReportDir),
		a.notifier,
		a.recorder,
		a.metrics,
		log,
	)

	if path := cfg.Scanner.QualityConfig; path != "" {
		qc, err := quality.LoadConfig(path)
		if err != nil {
			log.WithField("path", path).WithError(err).Warn("Invalid quality thresholds, using defaults")
		}
		a.runner.WithQualityGate(quality.NewGate(qc))
	}

	return a
}

// Close releases connections in reverse order
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
